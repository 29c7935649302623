package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/colortag/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
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
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
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

// JSONReport wraps the summary with derived fields.
//
// Design decision: We wrap the summary rather than adding presentation
// fields to model.Summary so the model stays a plain record of the run.
type JSONReport struct {
	*model.Summary

	// Status is the human-readable run status.
	Status string `json:"status"`

	// Labels is the label distribution in presentation order.
	Labels []LabelShare `json:"labels"`
}

// LabelShare is one label with its count and share of successful rows.
type LabelShare struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// NewJSONReport builds the JSON view of a summary.
func NewJSONReport(summary *model.Summary) *JSONReport {
	sorted := summary.SortedLabels()
	labels := make([]LabelShare, 0, len(sorted))
	for _, lc := range sorted {
		labels = append(labels, LabelShare{
			Label:   lc.Label,
			Count:   lc.Count,
			Percent: percent(lc.Count, summary.Succeeded),
		})
	}
	return &JSONReport{
		Summary: summary,
		Status:  statusText(summary),
		Labels:  labels,
	}
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	return w.writeJSON(NewJSONReport(summary))
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
