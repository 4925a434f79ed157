package ocr

import (
	"context"
	"errors"

	"github.com/nao1215/cinfetch/internal/imaging"
)

// ErrBackend marks an unrecoverable recognizer failure.
var ErrBackend = errors.New("ocr backend failure")

// Engine recognizes text in a preprocessed captcha variant.
type Engine interface {
	// Name identifies the backend in logs.
	Name() string

	// Recognize returns the raw text read from v under mode. The text may be
	// empty. An error means the backend itself failed.
	Recognize(ctx context.Context, v imaging.Variant, mode Mode) (string, error)
}

// Attempt records one recognition pass. Attempts are never modified after
// they are produced.
type Attempt struct {
	VariantID string
	Mode      Mode
	RawText   string
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, v imaging.Variant, mode Mode) (string, error)

// Name implements Engine.
func (f EngineFunc) Name() string { return "func" }

// Recognize implements Engine.
func (f EngineFunc) Recognize(ctx context.Context, v imaging.Variant, mode Mode) (string, error) {
	return f(ctx, v, mode)
}
