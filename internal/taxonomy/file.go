package taxonomy

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nao1215/colortag/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the yaml representation of a taxonomy.
//
// Example:
//
//	default: gray
//	entries:
//	  - name: black
//	    label: Black
//	    rgb: "#000000"
//	    tier: black
//	  - name: red
//	    label: Red
//	    rgb: "200,16,46"
//	    hue: {min: 350, max: 10}
type File struct {
	Default string      `yaml:"default,omitempty"`
	Entries []FileEntry `yaml:"entries"`
}

// FileEntry is one entry in a taxonomy file.
// RGB accepts any form understood by model.ParseRGB.
type FileEntry struct {
	Name          string    `yaml:"name"`
	Label         string    `yaml:"label,omitempty"`
	RGB           string    `yaml:"rgb"`
	Hue           *HueRange `yaml:"hue,omitempty"`
	SaturationMax *float64  `yaml:"saturation_max,omitempty"`
	Value         *Range    `yaml:"value,omitempty"`
	Tier          Tier      `yaml:"tier,omitempty"`
}

// LoadFile reads and validates a yaml taxonomy file.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a yaml taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	entries := make([]Entry, 0, len(f.Entries))
	for i, fe := range f.Entries {
		ref, err := model.ParseRGB(fe.RGB)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, fe.Name, err)
		}
		entries = append(entries, Entry{
			Name:          fe.Name,
			Label:         fe.Label,
			Reference:     ref,
			Hue:           fe.Hue,
			SaturationMax: fe.SaturationMax,
			Value:         fe.Value,
			Tier:          fe.Tier,
		})
	}

	var opts []Option
	if f.Default != "" {
		opts = append(opts, WithDefault(f.Default))
	}
	return New(entries, opts...)
}

// Marshal encodes the taxonomy as a yaml document that Parse accepts.
func Marshal(t *Taxonomy) ([]byte, error) {
	f := File{Default: t.Fallback().Name}
	for _, e := range t.entries {
		f.Entries = append(f.Entries, FileEntry{
			Name:          e.Name,
			Label:         e.Label,
			RGB:           e.Reference.Hex(),
			Hue:           e.Hue,
			SaturationMax: e.SaturationMax,
			Value:         e.Value,
			Tier:          e.Tier,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	return buf.Bytes(), nil
}
