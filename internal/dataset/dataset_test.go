package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/nao1215/colortag/internal/model"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const catalogCSV = `identifier,name,image_url,color
E001,Crew Neck T,https://image.example.com/1.jpg,old-red
E002,Oxford Shirt,https://image.example.com/2.jpg,
E003,Chino,https://image.example.com/3.jpg,khaki
`

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Len() != 3 {
			t.Fatalf("expected 3 rows, got %d", ds.Len())
		}
		rows := ds.Rows()
		if rows[1].Identifier != "E002" || rows[1].Name != "Oxford Shirt" || rows[1].Index != 1 {
			t.Errorf("unexpected row %+v", rows[1])
		}
		if rows[2].ImageURL != "https://image.example.com/3.jpg" {
			t.Errorf("unexpected url %q", rows[2].ImageURL)
		}
	})

	t.Run("tsv with utf-8 bom", func(t *testing.T) {
		t.Parallel()
		data := "\ufeffIdentifier\tName\tImage_URL\nE001\tTee\thttp://x/1.jpg\n"
		ds, err := Read(writeFile(t, "catalog.tsv", []byte(data)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ds.Rows()[0]; got.Identifier != "E001" || got.ImageURL != "http://x/1.jpg" {
			t.Errorf("unexpected row %+v", got)
		}
	})

	t.Run("utf-16 export", func(t *testing.T) {
		t.Parallel()
		text := "identifier,name,image_url\nE001,Tee,http://x/1.jpg\n"
		units := utf16.Encode([]rune(text))
		data := []byte{0xFF, 0xFE} // little-endian BOM
		for _, u := range units {
			data = append(data, byte(u), byte(u>>8))
		}
		ds, err := Read(writeFile(t, "catalog.csv", data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ds.Rows()[0]; got.Name != "Tee" {
			t.Errorf("unexpected row %+v", got)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		t.Parallel()
		_, err := Read(writeFile(t, "bad.csv", []byte("identifier,name\nE001,Tee\n")))
		if !errors.Is(err, ErrMissingColumn) {
			t.Errorf("expected ErrMissingColumn, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, err := Read(writeFile(t, "empty.csv", nil))
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("expected ErrEmptyDataset, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

func results() []model.Result {
	return []model.Result{
		{Index: 0, Identifier: "E001", Label: "Red (Pantone 186 C)", Dominant: model.RGB{R: 200, G: 16, B: 46}},
		{Index: 1, Identifier: "E002", Label: model.FailureMarker, Failed: true, Error: "404"},
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes only processed rows", func(t *testing.T) {
		t.Parallel()
		ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
		if err != nil {
			t.Fatal(err)
		}
		out := filepath.Join(t.TempDir(), "out.csv")
		w := NewWriter(ds, out, WithKeepPriorColor(true), WithDiagnostics(true))
		if err := w.Write(results()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		want := strings.Join([]string{
			"identifier,name,image_url,color,color_old,dominant_rgb",
			"E001,Crew Neck T,https://image.example.com/1.jpg,Red (Pantone 186 C),old-red,#c8102e",
			"E002,Oxford Shirt,https://image.example.com/2.jpg,-,,",
			"",
		}, "\n")
		if string(data) != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("adds color column and bom", func(t *testing.T) {
		t.Parallel()
		ds, err := Read(writeFile(t, "catalog.tsv", []byte("identifier\tname\timage_url\nE001\tTee\thttp://x/1.jpg\n")))
		if err != nil {
			t.Fatal(err)
		}
		out := filepath.Join(t.TempDir(), "out.tsv")
		if err := NewWriter(ds, out, WithBOM(true)).Write(results()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		want := "\ufeffidentifier\tname\timage_url\tcolor\nE001\tTee\thttp://x/1.jpg\tRed (Pantone 186 C)\n"
		if string(data) != want {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("overwrites previous snapshot", func(t *testing.T) {
		t.Parallel()
		ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
		if err != nil {
			t.Fatal(err)
		}
		dir := t.TempDir()
		out := filepath.Join(dir, "out.csv")
		w := NewWriter(ds, out)
		if err := w.Write(results()); err != nil {
			t.Fatal(err)
		}
		if err := w.Write(results()[:1]); err != nil {
			t.Fatal(err)
		}
		got, err := ReadCheckpoint(out)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 row after overwrite, got %d", len(got))
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected temporary files to be cleaned up, found %d entries", len(entries))
		}
	})

	t.Run("rejects out of range index", func(t *testing.T) {
		t.Parallel()
		ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
		if err != nil {
			t.Fatal(err)
		}
		w := NewWriter(ds, filepath.Join(t.TempDir(), "out.csv"))
		if err := w.Write([]model.Result{{Index: 9, Identifier: "X"}}); err == nil {
			t.Error("expected error for unknown row")
		}
	})
}

func TestReadCheckpoint(t *testing.T) {
	t.Parallel()

	ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")
	if err := NewWriter(ds, out, WithDiagnostics(true), WithBOM(true)).Write(results()); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCheckpoint(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Identifier != "E001" || got[0].Label != "Red (Pantone 186 C)" || got[0].Failed {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[0].Dominant != (model.RGB{R: 200, G: 16, B: 46}) {
		t.Errorf("expected dominant to be restored, got %v", got[0].Dominant)
	}
	if !got[1].Failed || got[1].Label != model.FailureMarker {
		t.Errorf("expected failed second result, got %+v", got[1])
	}

	if _, err := ReadCheckpoint(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestResumedRowWithoutDominant(t *testing.T) {
	t.Parallel()

	ds, err := Read(writeFile(t, "catalog.csv", []byte(catalogCSV)))
	if err != nil {
		t.Fatal(err)
	}
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.csv")
	if err := NewWriter(ds, checkpoint).Write(results()); err != nil {
		t.Fatal(err)
	}

	prior, err := ReadCheckpoint(checkpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !prior[0].NoDominant || prior[0].DominantHex() != "" {
		t.Fatalf("expected no dominant color for a plain checkpoint, got %+v", prior[0])
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := NewWriter(ds, out, WithDiagnostics(true)).Write(prior[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"identifier,name,image_url,color,dominant_rgb",
		"E001,Crew Neck T,https://image.example.com/1.jpg,Red (Pantone 186 C),",
		"",
	}, "\n")
	if string(data) != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", data, want)
	}
}
