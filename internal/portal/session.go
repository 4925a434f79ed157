package portal

import (
	"context"
	"time"
)

// LinkStrategy selects how ActivateLink locates the identifier's detail link.
type LinkStrategy int

const (
	// LinkByAttribute looks the link up by its structural attributes
	// (element type, class and exact normalized text).
	LinkByAttribute LinkStrategy = iota

	// LinkByTextMatch scans every candidate element in the document and
	// compares normalized text.
	LinkByTextMatch
)

// String returns the strategy name.
func (s LinkStrategy) String() string {
	switch s {
	case LinkByAttribute:
		return "attribute"
	case LinkByTextMatch:
		return "text-match"
	default:
		return "unknown"
	}
}

// LinkStrategies returns the strategies in the order they are tried.
func LinkStrategies() []LinkStrategy {
	return []LinkStrategy{LinkByAttribute, LinkByTextMatch}
}

// Session drives one portal lookup. Methods are called sequentially by a
// single goroutine. Missing controls are reported as ErrElementNotFound and
// expired waits as ErrNavigationTimeout, possibly wrapped.
type Session interface {
	// SubmitSearch types identifier into the search control and submits it.
	SubmitSearch(ctx context.Context, identifier string) error

	// WaitCaptcha waits up to timeout for a captcha image to become visible.
	WaitCaptcha(ctx context.Context, timeout time.Duration) error

	// CaptureCaptcha returns the encoded image of the visible captcha.
	CaptureCaptcha(ctx context.Context) ([]byte, error)

	// SubmitCaptcha enters text into the captcha field and submits it. It
	// reports false when the portal shows an incorrect/retry signal.
	SubmitCaptcha(ctx context.Context, text string) (accepted bool, err error)

	// WaitResults waits up to timeout for a results table and returns the
	// page HTML.
	WaitResults(ctx context.Context, timeout time.Duration) (string, error)

	// ActivateLink clicks the element whose normalized text equals
	// identifier, located with strategy.
	ActivateLink(ctx context.Context, identifier string, strategy LinkStrategy) error

	// OpenExportMenu activates the export control.
	OpenExportMenu(ctx context.Context) error

	// ExportAll activates the export-all confirmation control.
	ExportAll(ctx context.Context) error

	// PageHTML returns the current document HTML.
	PageHTML(ctx context.Context) (string, error)

	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Factory opens fresh sessions.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Session, error)

// NewSession implements Factory.
func (f FactoryFunc) NewSession(ctx context.Context) (Session, error) {
	return f(ctx)
}
