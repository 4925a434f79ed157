package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/ocr"
)

// Engine implements ocr.Engine with the gosseract client.
//
// Design decision: A fresh client is created for every call. Tesseract
// clients carry image and variable state between calls, and the solver switches
// page segmentation mode on nearly every call, so reusing a client would mean
// resetting most of it anyway.
type Engine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	dpi           int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages sets the trained-data languages (default "eng").
func WithLanguages(langs ...string) Option {
	return func(e *Engine) {
		e.languages = append([]string(nil), langs...)
	}
}

// WithDPI sets user_defined_dpi; captcha screenshots carry no DPI metadata.
func WithDPI(dpi int) Option {
	return func(e *Engine) {
		e.dpi = dpi
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates a Tesseract-backed engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clientFactory: gosseract.NewClient,
		languages:     []string{"eng"},
		dpi:           300,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return "tesseract" }

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, v imaging.Variant, mode ocr.Mode) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	data, err := v.PNG()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ocr.ErrBackend, err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: set image: %w", ocr.ErrBackend, err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("%w: set languages: %w", ocr.ErrBackend, err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("%w: set psm %d: %w", ocr.ErrBackend, int(mode), err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("tessedit_char_whitelist"), ocr.Alphabet); err != nil {
		return "", fmt.Errorf("%w: set whitelist: %w", ocr.ErrBackend, err)
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return "", fmt.Errorf("%w: set dpi: %w", ocr.ErrBackend, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("%w: recognize: %w", ocr.ErrBackend, err)
	}
	text = strings.TrimSpace(text)

	e.logger.Debug("tesseract pass",
		"variant", v.ID,
		"mode", mode.String(),
		"text", text,
	)
	return text, nil
}
