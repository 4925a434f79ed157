package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/cinfetch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides tables, mermaid charts and GitHub-flavored
// alerts without hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeLookups(md, report)
	w.writeFailures(md, report)
	w.writeTiers(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("cinfetch Run Report")
	md.PlainText("")

	submitted, accepted := report.CaptchaStats()
	rows := [][]string{
		{"Run ID", "`" + report.RunID + "`"},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if !report.FinishedAt.IsZero() {
		rows = append(rows, []string{"Elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String()})
	}
	rows = append(rows,
		[]string{"Completed", strconv.Itoa(report.Completed()) + "/" + strconv.Itoa(len(report.Lookups))},
		[]string{"Attempts", strconv.Itoa(report.TotalAttempts())},
		[]string{"Captchas accepted", strconv.Itoa(accepted) + "/" + strconv.Itoa(submitted)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Completed() < len(report.Lookups) {
		md.Cautionf("%d identifier(s) were not fetched; the run was interrupted.",
			len(report.Lookups)-report.Completed())
	} else {
		md.Note("Every identifier was fetched.")
	}
	md.PlainText("")
}

// writeLookups writes one table row per identifier.
func (w *MarkdownWriter) writeLookups(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Lookups")
	md.PlainText("")

	if len(report.Lookups) == 0 {
		md.PlainText("No identifiers processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Lookups))
	for i, l := range report.Lookups {
		rows[i] = []string{
			"`" + l.Identifier + "`",
			lookupStatus(l),
			strconv.Itoa(l.AttemptCount()),
			strconv.Itoa(l.Rows),
			lastFailure(l),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Identifier", "Status", "Attempts", "Rows", "Last failure"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failure-stage table and pie chart.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failures := report.FailureStages()
	if len(failures) == 0 {
		return
	}

	md.H2("Failures by Step")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Failed Attempts by Step"),
		piechart.WithShowData(true),
	)
	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{f.Stage, strconv.Itoa(f.Count)}
		chart.LabelAndIntValue(f.Stage, uint64(f.Count))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Failures"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTiers writes how often each solving tier passed a gate.
func (w *MarkdownWriter) writeTiers(md *markdown.Markdown, report *model.RunReport) {
	tiers := report.TierUsage()
	if len(tiers) == 0 {
		return
	}

	md.H2("Captcha Tiers")
	md.PlainText("")
	items := make([]string, len(tiers))
	for i, t := range tiers {
		items[i] = t.Stage + ": " + strconv.Itoa(t.Count)
	}
	md.BulletList(items...)
	md.PlainText("")
}
