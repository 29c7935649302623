package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/colortag/internal/cluster"
	"github.com/nao1215/colortag/internal/filter"
	"github.com/nao1215/colortag/internal/match"
	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/taxonomy"
)

// stubFetcher serves a fixed image or error.
type stubFetcher struct {
	img *model.SourceImage
	err error
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*model.SourceImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	img := *s.img
	img.URL = url
	return &img, nil
}

func uniform(c model.RGB, w, h int) *model.SourceImage {
	px := make([]model.RGB, w*h)
	for i := range px {
		px[i] = c
	}
	return &model.SourceImage{Width: w, Height: h, Pixels: px, Digest: "abc"}
}

func TestClassifierSteps(t *testing.T) {
	t.Parallel()

	navy := model.RGB{R: 13, G: 36, B: 107}
	p := NewClassifier(
		&stubFetcher{img: uniform(navy, 8, 8)},
		filter.NewStatistical(),
		cluster.New(),
		match.New(taxonomy.Default()),
		nil,
	)

	if got := p.StepNames(); len(got) != 4 || got[0] != "fetch" || got[3] != "match" {
		t.Fatalf("unexpected steps %v", got)
	}

	job := testJob()
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Extraction.Dominant != navy {
		t.Errorf("expected dominant %v, got %v", navy, job.Extraction.Dominant)
	}
	if job.Match.EntryName != "navy" {
		t.Errorf("expected navy, got %q", job.Match.EntryName)
	}
	if job.Digest != "abc" {
		t.Errorf("expected digest to survive, got %q", job.Digest)
	}
	if job.Image != nil || job.Pixels != nil {
		t.Error("expected image data to be released after extraction")
	}
}

func TestFetchStepError(t *testing.T) {
	t.Parallel()

	boom := errors.New("unreachable")
	step := NewFetchStep(&stubFetcher{err: boom})
	if err := step.Do(context.Background(), testJob()); !errors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestFilterStepWithoutImage(t *testing.T) {
	t.Parallel()

	step := NewFilterStep(filter.NewStatistical())
	if err := step.Do(context.Background(), testJob()); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

func TestExtractStepDegenerate(t *testing.T) {
	t.Parallel()

	job := testJob()
	if err := NewExtractStep(cluster.New()).Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.Extraction.Degenerate || job.Extraction.Dominant != model.White {
		t.Errorf("expected degenerate white, got %+v", job.Extraction)
	}

	if err := NewMatchStep(match.New(taxonomy.Default())).Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Match.EntryName != "white" {
		t.Errorf("expected white, got %q", job.Match.EntryName)
	}
}
