package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, mermaid charts and GitHub-flavored
// alerts without string templating.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeLabels(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("colortag Summary")
	md.PlainText("")

	rows := make([][]string, 0, 10)
	if summary.Input != "" {
		rows = append(rows, []string{"Input", "`" + summary.Input + "`"})
	}
	if summary.Output != "" {
		rows = append(rows, []string{"Output", "`" + summary.Output + "`"})
	}
	rows = append(rows,
		[]string{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
		[]string{"Total Rows", strconv.Itoa(summary.Total)},
		[]string{"Processed", strconv.Itoa(summary.Processed)},
		[]string{"Resumed", strconv.Itoa(summary.Skipped)},
		[]string{"Succeeded", strconv.Itoa(summary.Succeeded)},
		[]string{"Failed", strconv.Itoa(summary.Failed)},
		[]string{"Checkpoints", strconv.Itoa(summary.Checkpoints)},
		[]string{"Status", statusText(summary)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, summary)
}

// writeAlert writes an alert describing how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Interrupted:
		md.Importantf(
			"The run was interrupted after %d of %d rows. Run again with --resume to continue.",
			summary.Completed(), summary.Total,
		)
	case summary.Failed > 0:
		md.Warningf(
			"%d row(s) could not be classified and were marked with %q.",
			summary.Failed, model.FailureMarker,
		)
	default:
		md.Tip("Every row was classified.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeLabels(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Label Distribution")
	md.PlainText("")

	labels := summary.SortedLabels()
	if len(labels) == 0 {
		md.PlainText("No rows were labeled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(labels))
	for i, lc := range labels {
		rows[i] = []string{
			lc.Label,
			strconv.Itoa(lc.Count),
			fmt.Sprintf("%.1f%%", percent(lc.Count, summary.Succeeded)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Label", "Rows", "Share"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, labels)
}

// writePieChart writes a mermaid pie chart for the label distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, labels []model.LabelCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Label Distribution"),
		piechart.WithShowData(true),
	)

	for _, lc := range labels {
		chart.LabelAndIntValue(lc.Label, uint64(lc.Count)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(summary.Failures))
	for i, f := range summary.Failures {
		rows[i] = []string{
			strconv.Itoa(f.Index + 1),
			f.Identifier,
			truncateString(f.ImageURL, 50),
			truncateString(f.Error, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Row", "Identifier", "Image URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [colortag](https://github.com/nao1215/colortag)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
