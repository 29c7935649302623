package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/colortag/internal/model"
)

// ErrUnknownMode is returned by New for an unsupported mode.
var ErrUnknownMode = errors.New("unknown filter mode")

// Filter selects the pixels that represent the product.
type Filter interface {
	// Apply returns the retained pixels. The input image is not modified.
	Apply(ctx context.Context, img *model.SourceImage) ([]model.RGB, error)

	// Name identifies the variant in logs and reports.
	Name() string
}

// Mode selects a Filter variant.
type Mode string

// Supported modes.
const (
	ModeStatistical  Mode = "statistical"
	ModeSegmentation Mode = "segmentation"
)

// Defaults.
const (
	// DefaultMinValue drops shadows: pixels with V <= 20% are removed.
	DefaultMinValue = 20.0

	// DefaultWhiteCutoff drops studio backdrop pixels with R, G and B above 240.
	DefaultWhiteCutoff uint8 = 240

	// DefaultMinPixels matches the default cluster count.
	DefaultMinPixels = 5

	// DefaultTolerance is the RGB distance within which a pixel joins the
	// border background region.
	DefaultTolerance = 30.0

	// DefaultCropRatio is the edge of the salient square relative to the
	// shorter grid edge.
	DefaultCropRatio = 0.75
)

// settings holds the options shared by all variants.
type settings struct {
	minValue    float64
	whiteCutoff uint8
	minPixels   int
	tolerance   float64
	cropRatio   float64
	logger      *slog.Logger
}

// Option configures a Filter.
type Option func(*settings)

// WithMinValue sets the HSV value percentage at or below which pixels are dropped.
func WithMinValue(v float64) Option {
	return func(s *settings) {
		s.minValue = v
	}
}

// WithWhiteCutoff sets the per-channel threshold for near white pixels. 0 disables the rule.
func WithWhiteCutoff(c uint8) Option {
	return func(s *settings) {
		s.whiteCutoff = c
	}
}

// WithMinPixels sets the minimum retained set size before falling back to all pixels.
func WithMinPixels(n int) Option {
	return func(s *settings) {
		s.minPixels = n
	}
}

// WithTolerance sets the background flood fill tolerance of the segmentation variant.
func WithTolerance(t float64) Option {
	return func(s *settings) {
		s.tolerance = t
	}
}

// WithCropRatio sets the salient square edge of the segmentation variant as a
// fraction of the shorter grid edge. Values outside (0,1) keep the whole grid.
func WithCropRatio(r float64) Option {
	return func(s *settings) {
		s.cropRatio = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		minValue:    DefaultMinValue,
		whiteCutoff: DefaultWhiteCutoff,
		minPixels:   DefaultMinPixels,
		tolerance:   DefaultTolerance,
		cropRatio:   DefaultCropRatio,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.minPixels < 1 {
		s.minPixels = 1
	}
	return s
}

// New creates the Filter variant for mode.
func New(mode Mode, opts ...Option) (Filter, error) {
	switch mode {
	case ModeStatistical, "":
		return NewStatistical(opts...), nil
	case ModeSegmentation:
		return NewSegmentation(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// orAll returns kept when it is large enough, otherwise a copy of all pixels.
func orAll(kept, all []model.RGB, minPixels int) []model.RGB {
	if len(kept) >= minPixels {
		return kept
	}
	out := make([]model.RGB, len(all))
	copy(out, all)
	return out
}
