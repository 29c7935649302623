package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/colortag/internal/filter"
	"github.com/nao1215/colortag/internal/model"
)

// ErrNoImage is returned by steps that need an image the fetch step did not provide.
var ErrNoImage = errors.New("no image to process")

// Fetcher downloads and normalizes one image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.SourceImage, error)
}

// Extractor reduces a pixel set to one dominant color.
type Extractor interface {
	Extract(pixels []model.RGB) model.Extraction
}

// Matcher maps a color to a taxonomy label.
type Matcher interface {
	Match(c model.RGB) model.Match
}

// FetchStep downloads the row's image.
type FetchStep struct {
	fetcher Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(f Fetcher) *FetchStep {
	return &FetchStep{fetcher: f}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, job *model.Job) error {
	img, err := s.fetcher.Fetch(ctx, job.Row.ImageURL)
	if err != nil {
		return err
	}
	job.Image = img
	job.Digest = img.Digest
	return nil
}

// FilterStep removes background and shadow pixels.
type FilterStep struct {
	filter filter.Filter
}

// NewFilterStep creates a FilterStep.
func NewFilterStep(f filter.Filter) *FilterStep {
	return &FilterStep{filter: f}
}

// Name returns the step name.
func (s *FilterStep) Name() string {
	return "filter"
}

// Do executes the filter step.
func (s *FilterStep) Do(ctx context.Context, job *model.Job) error {
	if job.Image == nil {
		return ErrNoImage
	}
	pixels, err := s.filter.Apply(ctx, job.Image)
	if err != nil {
		return err
	}
	job.Pixels = pixels
	return nil
}

// ExtractStep computes the dominant color and releases the pixel data.
type ExtractStep struct {
	extractor Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(e Extractor) *ExtractStep {
	return &ExtractStep{extractor: e}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(_ context.Context, job *model.Job) error {
	job.Extraction = s.extractor.Extract(job.Pixels)
	job.Image = nil
	job.Pixels = nil
	return nil
}

// MatchStep classifies the dominant color.
type MatchStep struct {
	matcher Matcher
}

// NewMatchStep creates a MatchStep.
func NewMatchStep(m Matcher) *MatchStep {
	return &MatchStep{matcher: m}
}

// Name returns the step name.
func (s *MatchStep) Name() string {
	return "match"
}

// Do executes the match step.
func (s *MatchStep) Do(_ context.Context, job *model.Job) error {
	job.Match = s.matcher.Match(job.Extraction.Dominant)
	return nil
}

// NewClassifier assembles the standard fetch, filter, extract, match pipeline.
func NewClassifier(f Fetcher, flt filter.Filter, e Extractor, m Matcher, logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchStep(f),
		NewFilterStep(flt),
		NewExtractStep(e),
		NewMatchStep(m),
	)
	return p
}
