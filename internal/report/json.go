package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/cinfetch/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because it's sufficient for our needs and the model types
// already carry json tags.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into the output envelope.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the version recorded in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run report with derived totals.
//
// Design decision: We wrap the report rather than adding fields to
// RunReport because the totals are derived and would go stale if stored.
type JSONReport struct {
	Version       string             `json:"version,omitempty"`
	Identifiers   int                `json:"identifiers"`
	Completed     int                `json:"completed"`
	TotalAttempts int                `json:"total_attempts"`
	Failures      []model.StageCount `json:"failures"`
	Tiers         []model.StageCount `json:"tiers"`
	Report        *model.RunReport   `json:"report"`
}

// NewJSONReport creates a JSONReport for report.
func NewJSONReport(report *model.RunReport, version string) *JSONReport {
	return &JSONReport{
		Version:       version,
		Identifiers:   len(report.Lookups),
		Completed:     report.Completed(),
		TotalAttempts: report.TotalAttempts(),
		Failures:      report.FailureStages(),
		Tiers:         report.TierUsage(),
		Report:        report,
	}
}

// Write outputs the wrapped report in JSON format.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
