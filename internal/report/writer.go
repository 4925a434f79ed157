package report

import (
	"io"

	"github.com/nao1215/cinfetch/internal/model"
)

// Writer defines the interface for run report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same
// API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// lookupStatus returns a one-word status for a lookup.
func lookupStatus(l model.LookupReport) string {
	switch {
	case l.Done:
		return "done"
	case len(l.Attempts) == 0:
		return "skipped"
	default:
		return "interrupted"
	}
}

// lastFailure returns the step where the latest failed attempt stopped, or
// "-" when no attempt failed.
func lastFailure(l model.LookupReport) string {
	for i := len(l.Attempts) - 1; i >= 0; i-- {
		if !l.Attempts[i].Succeeded() && l.Attempts[i].FailedAt != "" {
			return l.Attempts[i].FailedAt
		}
	}
	return "-"
}
