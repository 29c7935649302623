package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/colortag/internal/model"
)

// Format names a report output format.
type Format string

const (
	// FormatText is the human-readable terminal format.
	FormatText Format = "text"
	// FormatJSON is the machine-readable format.
	FormatJSON Format = "json"
	// FormatMarkdown is the Markdown format.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned when a report format name is not recognized.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat converts a format name into a Format.
// "md" is accepted as an alias for markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// New creates the Writer for the given format.
// verbose only affects the text format.
func New(format Format, output io.Writer, verbose bool) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output, WithVerbose(verbose)), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
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

// statusText describes how the run ended.
func statusText(summary *model.Summary) string {
	switch {
	case summary.Interrupted:
		return "Interrupted (partial results)"
	case summary.Failed > 0:
		return "Complete with failures"
	default:
		return "Complete"
	}
}

// percent returns n as a percentage of total, or 0 for an empty run.
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
