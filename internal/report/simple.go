package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/cinfetch/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because the summary is often piped into a log file at the
// end of a long unattended run.
type SimpleWriter struct {
	baseWriter

	// verbose lists every attempt, not just each lookup.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-attempt output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeLookups(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CINFETCH RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	submitted, accepted := report.CaptchaStats()
	fmt.Fprintf(sb, "Run ID:      %s\n", report.RunID)
	fmt.Fprintf(sb, "Started:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Elapsed:     %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(sb, "Completed:   %d/%d\n", report.Completed(), len(report.Lookups))
	fmt.Fprintf(sb, "Attempts:    %d\n", report.TotalAttempts())
	fmt.Fprintf(sb, "Captchas:    %d submitted, %d accepted\n", submitted, accepted)
	sb.WriteString("\n")
}

// writeLookups writes one line per identifier.
func (w *SimpleWriter) writeLookups(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LOOKUPS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Lookups) == 0 {
		sb.WriteString("  No identifiers processed\n\n")
		return
	}

	for _, l := range report.Lookups {
		fmt.Fprintf(sb, "  [%s] %-24s attempts=%d rows=%d\n",
			statusIndicator(l), l.Identifier, l.AttemptCount(), l.Rows)
		if !w.verbose {
			continue
		}
		for _, a := range l.Attempts {
			line := fmt.Sprintf("      #%d %s", a.Attempt, a.Stage)
			if a.FailedAt != "" {
				line += " at " + a.FailedAt
			}
			if a.Error != "" {
				line += ": " + a.Error
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failure-stage distribution.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	failures := report.FailureStages()
	if len(failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES BY STEP\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range failures {
		fmt.Fprintf(sb, "  %-24s %d\n", f.Stage, f.Count)
	}
	sb.WriteString("\n")
}

// statusIndicator returns a visual indicator for a lookup.
func statusIndicator(l model.LookupReport) string {
	switch lookupStatus(l) {
	case "done":
		return "+"
	case "interrupted":
		return "!"
	default:
		return "-"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
