package filter

import (
	"context"

	"github.com/nao1215/colortag/internal/model"
)

// Statistical removes shadows and backdrop by per-pixel thresholds.
type Statistical struct {
	settings
}

// NewStatistical creates a Statistical filter.
func NewStatistical(opts ...Option) *Statistical {
	return &Statistical{settings: newSettings(opts)}
}

// Name implements Filter.
func (f *Statistical) Name() string {
	return string(ModeStatistical)
}

// Apply implements Filter.
func (f *Statistical) Apply(_ context.Context, img *model.SourceImage) ([]model.RGB, error) {
	if img == nil || len(img.Pixels) == 0 {
		return []model.RGB{}, nil
	}

	kept := make([]model.RGB, 0, len(img.Pixels))
	for _, p := range img.Pixels {
		if f.keep(p) {
			kept = append(kept, p)
		}
	}
	return orAll(kept, img.Pixels, f.minPixels), nil
}

// keep reports whether a pixel survives both thresholds.
func (f *Statistical) keep(p model.RGB) bool {
	if value(p) <= f.minValue {
		return false
	}
	c := f.whiteCutoff
	if c > 0 && p.R > c && p.G > c && p.B > c {
		return false
	}
	return true
}

// value is the HSV value of p as a percentage.
func value(p model.RGB) float64 {
	m := max(p.R, p.G, p.B)
	return float64(m) / 255.0 * 100.0
}
