package workflow

import (
	"context"
	"time"

	"github.com/nao1215/cinfetch/internal/model"
)

// Gate identifies a captcha gate.
type Gate int

const (
	// GateFirst is the captcha shown after the search.
	GateFirst Gate = iota + 1

	// GateSecond is the captcha shown after the detail link.
	GateSecond
)

// String returns "step1" or "step2", the names used for artifacts.
func (g Gate) String() string {
	switch g {
	case GateFirst:
		return "step1"
	case GateSecond:
		return "step2"
	default:
		return "unknown"
	}
}

// TableSink receives the parsed results table when it has data rows.
type TableSink interface {
	WriteTable(identifier string, t model.Table) error
}

// Recorder keeps debug artifacts. Recorder errors never fail an attempt.
type Recorder interface {
	RecordCaptcha(identifier string, gate Gate, image []byte) error
	RecordPage(identifier, name, html string) error
	RecordScreenshot(identifier, name string, png []byte) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Timings are the bounded waits and settle pauses of an attempt.
type Timings struct {
	// FirstCaptcha bounds the wait for the first captcha image.
	FirstCaptcha time.Duration

	// SecondCaptcha bounds the wait for the second captcha image.
	SecondCaptcha time.Duration

	// Results bounds the wait for the results table.
	Results time.Duration

	// DetailSettle is the pause after activating the detail link.
	DetailSettle time.Duration

	// DetailPageSettle is the pause after the second captcha before export.
	DetailPageSettle time.Duration

	// ExportGap is the pause between the export control and export-all.
	ExportGap time.Duration

	// ExportSettle is the pause that lets the download finish.
	ExportSettle time.Duration
}

// DefaultTimings returns the waits used against the live portal.
func DefaultTimings() Timings {
	return Timings{
		FirstCaptcha:     30 * time.Second,
		SecondCaptcha:    15 * time.Second,
		Results:          15 * time.Second,
		DetailSettle:     2 * time.Second,
		DetailPageSettle: 3 * time.Second,
		ExportGap:        time.Second,
		ExportSettle:     10 * time.Second,
	}
}
