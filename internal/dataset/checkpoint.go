package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/colortag/internal/model"
)

// ReadCheckpoint loads the results recorded in an earlier snapshot so a run
// can resume. A missing file is reported with an error wrapping
// os.ErrNotExist.
func ReadCheckpoint(path string) ([]model.Result, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer f.Close()

	header, records, err := readTable(f, Comma(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cols := indexColumns(header)
	for _, col := range []string{ColumnIdentifier, ColumnColor} {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	results := make([]model.Result, 0, len(records))
	for i, rec := range records {
		label := field(rec, ColumnColor)
		r := model.Result{
			Index:      i,
			Identifier: field(rec, ColumnIdentifier),
			Name:       field(rec, ColumnName),
			ImageURL:   field(rec, ColumnImageURL),
			Label:      label,
		}
		switch label {
		case model.FailureMarker, "":
			r.Label = model.FailureMarker
			r.Failed = true
			r.Error = "failed in an earlier run"
		default:
			if c, err := model.ParseRGB(field(rec, ColumnDominant)); err == nil {
				r.Dominant = c
			} else {
				r.NoDominant = true
			}
		}
		results = append(results, r)
	}
	return results, nil
}
