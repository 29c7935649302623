package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/colortag/internal/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names.
const (
	ColumnIdentifier = "identifier"
	ColumnName       = "name"
	ColumnImageURL   = "image_url"
	ColumnColor      = "color"
	ColumnColorOld   = "color_old"
	ColumnDominant   = "dominant_rgb"
)

// Errors returned while reading catalogs.
var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("required column missing")

	// ErrEmptyDataset is returned when the file has no header row.
	ErrEmptyDataset = errors.New("dataset has no header row")
)

// Dataset is a catalog table held in memory.
type Dataset struct {
	// Path is the file the dataset was read from.
	Path string

	// Header holds the column names in file order.
	Header []string

	// Records holds the data rows. Every record has len(Header) fields.
	Records [][]string

	columns map[string]int
}

// Comma returns the field delimiter for path: tab for .tsv, comma otherwise.
func Comma(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// Read loads a catalog from path.
func Read(path string) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	header, records, err := readTable(f, Comma(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ds := &Dataset{
		Path:    path,
		Header:  header,
		Records: records,
		columns: indexColumns(header),
	}
	for _, col := range []string{ColumnIdentifier, ColumnName, ColumnImageURL} {
		if _, ok := ds.columns[col]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, col)
		}
	}
	return ds, nil
}

// readTable decodes a delimited table, accepting UTF-8 and UTF-16 BOMs.
func readTable(r io.Reader, comma rune) ([]string, [][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records: %w", err)
	}
	return header, records, nil
}

// indexColumns maps lower-cased column names to their position.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

// Column returns the index of a column, ignoring case.
func (d *Dataset) Column(name string) (int, bool) {
	i, ok := d.columns[strings.ToLower(name)]
	return i, ok
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Value returns the named field of a record, or "" when the column is absent.
func (d *Dataset) Value(record int, column string) string {
	i, ok := d.Column(column)
	if !ok {
		return ""
	}
	return strings.TrimSpace(d.Records[record][i])
}

// Rows converts the records into pipeline rows.
func (d *Dataset) Rows() []model.Row {
	rows := make([]model.Row, len(d.Records))
	for i := range d.Records {
		rows[i] = model.Row{
			Index:      i,
			Identifier: d.Value(i, ColumnIdentifier),
			Name:       d.Value(i, ColumnName),
			ImageURL:   d.Value(i, ColumnImageURL),
		}
	}
	return rows
}
