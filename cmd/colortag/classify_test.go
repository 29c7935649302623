package main

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/colortag/internal/config"
	"github.com/nao1215/colortag/internal/dataset"
	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/pipeline"
)

func TestNewClassifyCmd(t *testing.T) {
	t.Parallel()

	cmd := NewClassifyCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "output", shorthand: "o", defValue: ""},
		{name: "checkpoint-every", shorthand: "n", defValue: "10"},
		{name: "resume", shorthand: "r", defValue: "false"},
		{name: "timeout", shorthand: "t", defValue: "20s"},
		{name: "clusters", shorthand: "k", defValue: "5"},
		{name: "filter", defValue: "statistical"},
		{name: "crop-ratio", defValue: "0.75"},
		{name: "strategy", defValue: "largest"},
		{name: "throttle", defValue: "fixed"},
		{name: "report", shorthand: "f", defValue: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	newDataset := func(t *testing.T, base string) (dir, input string) {
		t.Helper()
		dir = t.TempDir()
		input = writeFile(t, dir, "products.csv",
			"identifier,name,image_url\n"+
				"E001,Red shirt,"+base+"/red.png\n"+
				"E002,Navy shirt,"+base+"/navy.png\n"+
				"E003,Lost shirt,"+base+"/missing.png\n")
		return dir, input
	}

	colors := func(t *testing.T, path string) []string {
		t.Helper()
		ds, err := dataset.Read(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		out := make([]string, ds.Len())
		for i := range out {
			out[i] = ds.Value(i, dataset.ColumnColor)
		}
		return out
	}

	images := map[string]color.NRGBA{
		"/red.png":  {R: 200, G: 16, B: 46, A: 255},
		"/navy.png": {R: 13, G: 36, B: 107, A: 255},
	}
	want := []string{"Red (Pantone 186 C)", "Navy (Pantone 2767 C)", model.FailureMarker}

	t.Run("labels rows and marks failures", func(t *testing.T) {
		t.Parallel()

		srv, _ := imageServer(t, images)
		dir, input := newDataset(t, srv.URL)
		output := filepath.Join(dir, "labeled.csv")

		stdout, err := execute(t, "classify", input, "-o", output,
			"--throttle", "none", "--quiet",
			"--db-dir", t.TempDir(), "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := colors(t, output)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d: expected %q, got %q", i, want[i], got[i])
			}
		}
		if !strings.Contains(stdout, "COLORTAG SUMMARY") {
			t.Errorf("expected summary on stdout, got %q", stdout)
		}
		if strings.Contains(stdout, "[1/3]") {
			t.Error("expected no progress lines with --quiet")
		}
	})

	t.Run("prints progress lines", func(t *testing.T) {
		t.Parallel()

		srv, _ := imageServer(t, images)
		dir, input := newDataset(t, srv.URL)

		stdout, err := execute(t, "classify", input, "-o", filepath.Join(dir, "out.csv"),
			"--throttle", "none", "--no-history", "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, line := range []string{
			"[1/3] Red shirt -> Red (Pantone 186 C)",
			"[2/3] Navy shirt -> Navy (Pantone 2767 C)",
			"[3/3] Lost shirt -> -",
		} {
			if !strings.Contains(stdout, line) {
				t.Errorf("expected %q in output, got %q", line, stdout)
			}
		}
	})

	t.Run("resume skips finished rows", func(t *testing.T) {
		t.Parallel()

		srv, hits := imageServer(t, images)
		dir, input := newDataset(t, srv.URL)
		output := filepath.Join(dir, "labeled.csv")
		cfgPath := emptyConfig(t)
		args := []string{"classify", input, "-o", output,
			"--throttle", "none", "--quiet", "--no-history", "--config", cfgPath}

		if _, err := execute(t, args...); err != nil {
			t.Fatalf("first run: %v", err)
		}
		if hits.Load() != 3 {
			t.Fatalf("expected 3 requests, got %d", hits.Load())
		}

		if _, err := execute(t, append(args, "--resume")...); err != nil {
			t.Fatalf("resumed run: %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("expected no new requests on resume, got %d", hits.Load()-3)
		}

		if _, err := execute(t, append(args, "--resume", "--retry-failed")...); err != nil {
			t.Fatalf("retry run: %v", err)
		}
		if hits.Load() != 4 {
			t.Errorf("expected only the failed row to be retried, got %d new requests", hits.Load()-3)
		}

		got := colors(t, output)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("resume without checkpoint starts fresh", func(t *testing.T) {
		t.Parallel()

		srv, hits := imageServer(t, images)
		dir, input := newDataset(t, srv.URL)

		_, err := execute(t, "classify", input, "-o", filepath.Join(dir, "new.csv"), "--resume",
			"--throttle", "none", "--quiet", "--no-history", "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", hits.Load())
		}
	})

	t.Run("writes a markdown report file", func(t *testing.T) {
		t.Parallel()

		srv, _ := imageServer(t, images)
		dir, input := newDataset(t, srv.URL)
		reportPath := filepath.Join(dir, "reports", "summary.md")

		stdout, err := execute(t, "classify", input, "-o", filepath.Join(dir, "out.csv"),
			"--throttle", "none", "--quiet", "--no-history", "--config", emptyConfig(t),
			"--report", "markdown", "--report-file", reportPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, "COLORTAG SUMMARY") {
			t.Error("expected the summary in the report file only")
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# colortag Summary") {
			t.Errorf("unexpected report content %q", content)
		}
	})

	t.Run("missing output is a configuration error", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "classify", "products.csv", "--config", emptyConfig(t))
		if !errors.Is(err, config.ErrNoOutput) {
			t.Errorf("expected ErrNoOutput, got %v", err)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := execute(t, "classify", filepath.Join(dir, "absent.csv"), "-o", filepath.Join(dir, "out.csv"),
			"--no-history", "--config", emptyConfig(t))
		if err == nil || !strings.Contains(err.Error(), "failed to read dataset") {
			t.Errorf("expected dataset error, got %v", err)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := execute(t, "classify", "in.csv", "-o", filepath.Join(dir, "out.csv"),
			"--config", filepath.Join(dir, "absent.yaml"))
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected config not found error, got %v", err)
		}
	})
}

func TestWhiteCutoffUsage(t *testing.T) {
	t.Parallel()

	usage := NewClassifyCmd().Flags().Lookup("white-cutoff").Usage
	if strings.Contains(usage, "at or above") || !strings.Contains(usage, "above") {
		t.Errorf("usage must describe a strict cutoff, got %q", usage)
	}
}

func TestNewStagesKeepsClusterMinimum(t *testing.T) {
	t.Parallel()

	// Three product pixels on a white backdrop.
	pixels := make([]model.RGB, 100)
	for i := range pixels {
		pixels[i] = model.RGB{R: 250, G: 250, B: 250}
	}
	for i := 0; i < 3; i++ {
		pixels[i] = model.RGB{R: 200, G: 16, B: 46}
	}
	img := &model.SourceImage{Width: 10, Height: 10, Pixels: pixels}

	tests := []struct {
		name     string
		k        int
		strategy string
		want     int
	}{
		{name: "k equal to the kept set", k: 3, strategy: "largest", want: 3},
		{name: "k above the kept set falls back to all pixels", k: 5, strategy: "largest", want: 100},
		{name: "mean needs a single pixel", k: 5, strategy: "mean", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.K = tt.k
			cfg.Strategy = tt.strategy

			flt, extractor, err := newStages(cfg, slog.Default())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := flt.Apply(context.Background(), img)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("k=%d: expected %d pixels, got %d", extractor.K(), tt.want, len(got))
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result model.Result
		want   string
	}{
		{
			name:   "classified",
			result: model.Result{Identifier: "E001", Name: "Shirt", Label: "Red"},
			want:   "[1/2] Shirt -> Red\n",
		},
		{
			name:   "falls back to identifier",
			result: model.Result{Identifier: "E001", Label: "Red"},
			want:   "[1/2] E001 -> Red\n",
		},
		{
			name:   "resumed",
			result: model.Result{Identifier: "E001", Name: "Shirt", Label: "Red", Resumed: true},
			want:   "[1/2] Shirt -> Red (resumed)\n",
		},
		{
			name:   "failed",
			result: model.Result{Identifier: "E001", Name: "Shirt", Label: "-", Failed: true, Error: "HTTP 404"},
			want:   "[1/2] Shirt -> - (HTTP 404)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sb strings.Builder
			progressPrinter(&sb)(pipeline.Progress{Position: 1, Total: 2, Result: tt.result})
			if sb.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, sb.String())
			}
		})
	}
}
