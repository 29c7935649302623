package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/colortag/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose lists every failure with its error message.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
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

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeLabels(&sb, summary)
	w.writeFailures(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         COLORTAG SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if summary.Input != "" {
		sb.WriteString(fmt.Sprintf("Input:          %s\n", summary.Input))
	}
	if summary.Output != "" {
		sb.WriteString(fmt.Sprintf("Output:         %s\n", summary.Output))
	}
	sb.WriteString(fmt.Sprintf("Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", summary.Elapsed.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", statusText(summary)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ROWS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:       %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("  PROCESSED:   %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("  RESUMED:     %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("  SUCCEEDED:   %d\n", summary.Succeeded))
	sb.WriteString(fmt.Sprintf("  FAILED:      %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("  CHECKPOINTS: %d\n", summary.Checkpoints))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeLabels(sb *strings.Builder, summary *model.Summary) {
	labels := summary.SortedLabels()
	if len(labels) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LABELS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, lc := range labels {
		sb.WriteString(fmt.Sprintf("  %-40s %5d  %5.1f%%\n",
			lc.Label, lc.Count, percent(lc.Count, summary.Succeeded)))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range summary.Failures {
		sb.WriteString(fmt.Sprintf("  [!] row %d %s\n", f.Index+1, f.Identifier))
		if w.verbose {
			if f.ImageURL != "" {
				sb.WriteString(fmt.Sprintf("      URL:   %s\n", f.ImageURL))
			}
			if f.Error != "" {
				sb.WriteString(fmt.Sprintf("      Error: %s\n", f.Error))
			}
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by colortag\n")
	sb.WriteString("https://github.com/nao1215/colortag\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
