package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/colortag/internal/taxonomy"
)

func TestTaxonomyCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists the built-in taxonomy", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "taxonomy", "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := taxonomy.Default().Len()
		if !strings.Contains(out, "Color taxonomy (") || !strings.Contains(out, " entries):") {
			t.Errorf("expected header, got %q", out)
		}
		for _, e := range taxonomy.Default().Entries() {
			if !strings.Contains(out, e.DisplayLabel()) {
				t.Errorf("expected %q in listing", e.DisplayLabel())
			}
		}
		if strings.Count(out, "(default)") != 1 {
			t.Errorf("expected exactly one default entry, got %q", out)
		}
		if got := strings.Count(out, "\n  "); got < want {
			t.Errorf("expected at least %d entry lines, got %d", want, got)
		}
	})

	t.Run("export round trips", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "colors.yaml")
		out, err := execute(t, "taxonomy", "--export", path, "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Exported") {
			t.Errorf("unexpected output %q", out)
		}

		loaded, err := taxonomy.LoadFile(path)
		if err != nil {
			t.Fatalf("exported taxonomy does not load: %v", err)
		}
		def := taxonomy.Default()
		if loaded.Len() != def.Len() {
			t.Errorf("expected %d entries, got %d", def.Len(), loaded.Len())
		}
		if loaded.Fallback().Name != def.Fallback().Name {
			t.Errorf("expected fallback %q, got %q", def.Fallback().Name, loaded.Fallback().Name)
		}
	})

	t.Run("export to stdout", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "taxonomy", "--export", "-", "--config", emptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := taxonomy.Parse([]byte(out)); err != nil {
			t.Errorf("stdout export does not parse: %v", err)
		}
	})
}

func TestDescribeRule(t *testing.T) {
	t.Parallel()

	sat := 40.0
	tests := []struct {
		name  string
		entry taxonomy.Entry
		want  string
	}{
		{
			name:  "achromatic",
			entry: taxonomy.Entry{Tier: taxonomy.TierBlack},
			want:  "achromatic: black",
		},
		{
			name:  "hue only",
			entry: taxonomy.Entry{Hue: &taxonomy.HueRange{Min: 350, Max: 10}},
			want:  "H 350-10",
		},
		{
			name: "hue with limits",
			entry: taxonomy.Entry{
				Hue:           &taxonomy.HueRange{Min: 30, Max: 50},
				SaturationMax: &sat,
				Value:         &taxonomy.Range{Min: 20, Max: 80},
			},
			want: "H 30-50, S <= 40, V 20-80",
		},
		{
			name:  "no rule",
			entry: taxonomy.Entry{},
			want:  "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := describeRule(tt.entry); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
