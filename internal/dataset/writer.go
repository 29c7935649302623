package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/colortag/internal/model"
)

// utf8BOM is prepended when WithBOM is set.
const utf8BOM = "\ufeff"

// Writer writes snapshots of a classified dataset. It implements
// pipeline.Sink.
type Writer struct {
	ds          *Dataset
	path        string
	bom         bool
	keepPrior   bool
	diagnostics bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM(bom bool) WriterOption {
	return func(w *Writer) {
		w.bom = bom
	}
}

// WithKeepPriorColor copies the input color column to color_old.
func WithKeepPriorColor(keep bool) WriterOption {
	return func(w *Writer) {
		w.keepPrior = keep
	}
}

// WithDiagnostics adds a dominant_rgb column holding the raw #rrggbb color.
func WithDiagnostics(on bool) WriterOption {
	return func(w *Writer) {
		w.diagnostics = on
	}
}

// NewWriter creates a Writer for ds that writes to path.
func NewWriter(ds *Dataset, path string, opts ...WriterOption) *Writer {
	w := &Writer{ds: ds, path: path}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the output path.
func (w *Writer) Path() string {
	return w.path
}

// Header returns the output header.
func (w *Writer) Header() []string {
	header := append([]string(nil), w.ds.Header...)
	if _, ok := w.ds.Column(ColumnColor); !ok {
		header = append(header, ColumnColor)
	}
	if w.keepPrior {
		if _, ok := w.ds.Column(ColumnColorOld); !ok {
			header = append(header, ColumnColorOld)
		}
	}
	if w.diagnostics {
		if _, ok := w.ds.Column(ColumnDominant); !ok {
			header = append(header, ColumnDominant)
		}
	}
	return header
}

// Write replaces the output file with the rows that have results, in the
// order given.
func (w *Writer) Write(results []model.Result) error {
	header := w.Header()
	cols := indexColumns(header)

	records := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(w.ds.Records) {
			return fmt.Errorf("result %q refers to row %d outside the dataset", r.Identifier, r.Index)
		}
		src := w.ds.Records[r.Index]
		rec := make([]string, len(header))
		copy(rec, src)

		prior := ""
		if i, ok := w.ds.Column(ColumnColor); ok {
			prior = src[i]
		}
		rec[cols[ColumnColor]] = r.Label
		if w.keepPrior {
			rec[cols[ColumnColorOld]] = prior
		}
		if w.diagnostics {
			rec[cols[ColumnDominant]] = r.DominantHex()
		}
		records = append(records, rec)
	}

	return writeAtomic(w.path, func(f *os.File) error {
		bw := bufio.NewWriter(f)
		if w.bom {
			if _, err := bw.WriteString(utf8BOM); err != nil {
				return err
			}
		}
		cw := csv.NewWriter(bw)
		cw.Comma = Comma(w.path)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		return bw.Flush()
	})
}

// writeAtomic writes through a temporary file in the target directory and
// renames it over path.
func writeAtomic(path string, fill func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := fill(tmp); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // output is a shared catalog
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
