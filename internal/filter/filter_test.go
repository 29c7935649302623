package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/colortag/internal/model"
)

var (
	red    = model.RGB{R: 200, G: 16, B: 46}
	shadow = model.RGB{R: 10, G: 10, B: 12}
	paper  = model.RGB{R: 250, G: 250, B: 250}
)

func grid(w, h int, fill model.RGB) *model.SourceImage {
	px := make([]model.RGB, w*h)
	for i := range px {
		px[i] = fill
	}
	return &model.SourceImage{Width: w, Height: h, Pixels: px}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode     Mode
		wantName string
		wantErr  error
	}{
		{mode: ModeStatistical, wantName: "statistical"},
		{mode: "", wantName: "statistical"},
		{mode: ModeSegmentation, wantName: "segmentation"},
		{mode: "rembg", wantErr: ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			f, err := New(tt.mode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Name() != tt.wantName {
				t.Errorf("expected %q, got %q", tt.wantName, f.Name())
			}
		})
	}
}

func TestStatistical(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("drops shadows and backdrop", func(t *testing.T) {
		t.Parallel()
		img := &model.SourceImage{Width: 6, Height: 1, Pixels: []model.RGB{red, shadow, paper, red, shadow, red}}
		got, err := NewStatistical(WithMinPixels(1)).Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 pixels, got %d: %v", len(got), got)
		}
		for _, p := range got {
			if p != red {
				t.Errorf("unexpected pixel %v", p)
			}
		}
	})

	t.Run("white cutoff zero keeps backdrop", func(t *testing.T) {
		t.Parallel()
		img := &model.SourceImage{Width: 3, Height: 1, Pixels: []model.RGB{red, paper, shadow}}
		got, err := NewStatistical(WithMinPixels(1), WithWhiteCutoff(0)).Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected red and paper, got %v", got)
		}
	})

	t.Run("configurable min value", func(t *testing.T) {
		t.Parallel()
		img := &model.SourceImage{Width: 2, Height: 1, Pixels: []model.RGB{shadow, red}}
		got, err := NewStatistical(WithMinPixels(1), WithMinValue(0)).Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected both pixels with min value 0, got %v", got)
		}
	})

	t.Run("falls back to all pixels below minimum", func(t *testing.T) {
		t.Parallel()
		img := grid(4, 4, shadow)
		img.Pixels[0] = red
		got, err := NewStatistical(WithMinPixels(5)).Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 16 {
			t.Errorf("expected unfiltered 16 pixels, got %d", len(got))
		}
		got[0] = paper
		if img.Pixels[0] != red {
			t.Error("fallback must not alias the source pixels")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		got, err := NewStatistical().Apply(ctx, &model.SourceImage{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty set, got %v", got)
		}
	})
}

func TestSegmentation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("removes border connected background", func(t *testing.T) {
		t.Parallel()
		img := grid(30, 30, paper)
		for y := 9; y < 21; y++ {
			for x := 9; x < 21; x++ {
				img.Pixels[y*30+x] = red
			}
		}

		got, err := NewSegmentation().Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) < 100 {
			t.Fatalf("expected most of the 144 product pixels, got %d", len(got))
		}
		for _, p := range got {
			if p != red {
				t.Fatalf("background pixel %v survived", p)
			}
		}
	})

	t.Run("uniform image falls back", func(t *testing.T) {
		t.Parallel()
		img := grid(10, 10, paper)
		got, err := NewSegmentation().Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 100 {
			t.Errorf("expected all 100 pixels, got %d", len(got))
		}
	})

	t.Run("tiny grid uses statistical filter", func(t *testing.T) {
		t.Parallel()
		img := &model.SourceImage{Width: 2, Height: 1, Pixels: []model.RGB{red, shadow}}
		got, err := NewSegmentation(WithMinPixels(1)).Apply(ctx, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != red {
			t.Errorf("expected only red, got %v", got)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := NewSegmentation().Apply(cctx, grid(10, 10, red)); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSalientRect(t *testing.T) {
	t.Parallel()

	// A saturated product in the upper left quadrant of a 150x150 grid.
	img := grid(150, 150, paper)
	for y := 20; y < 60; y++ {
		for x := 20; x < 60; x++ {
			img.Pixels[y*150+x] = red
		}
	}

	t.Run("square smaller than the grid around the product", func(t *testing.T) {
		t.Parallel()

		rect, err := salientRect(img, DefaultCropRatio)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rect.Dx() != 112 || rect.Dy() != 112 {
			t.Fatalf("expected a 112x112 region, got %v", rect)
		}
		if rect.Min.X > 20 || rect.Min.Y > 20 || rect.Max.X < 60 || rect.Max.Y < 60 {
			t.Errorf("region %v does not cover the product", rect)
		}
		if rect.Max.X >= 150 || rect.Max.Y >= 150 {
			t.Errorf("region %v should exclude the far corner", rect)
		}
	})

	t.Run("ratio of one keeps the grid", func(t *testing.T) {
		t.Parallel()

		rect, err := salientRect(img, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rect.Dx() != 150 || rect.Dy() != 150 {
			t.Errorf("expected the full grid, got %v", rect)
		}
	})
}

func TestSegmentationDropsOffCenterClutter(t *testing.T) {
	t.Parallel()

	// Red product near the upper left, a blue price tag against the right edge.
	blue := model.RGB{R: 20, G: 40, B: 210}
	img := grid(150, 150, paper)
	for y := 20; y < 60; y++ {
		for x := 20; x < 60; x++ {
			img.Pixels[y*150+x] = red
		}
	}
	for y := 100; y < 130; y++ {
		for x := 140; x < 150; x++ {
			img.Pixels[y*150+x] = blue
		}
	}

	count := func(pixels []model.RGB, c model.RGB) int {
		n := 0
		for _, p := range pixels {
			if p == c {
				n++
			}
		}
		return n
	}

	cropped, err := NewSegmentation().Apply(context.Background(), img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := count(cropped, blue); n != 0 {
		t.Errorf("expected the tag outside the salient region to be dropped, kept %d pixels", n)
	}
	if n := count(cropped, red); n != 1600 {
		t.Errorf("expected all 1600 product pixels, got %d", n)
	}

	whole, err := NewSegmentation(WithCropRatio(1)).Apply(context.Background(), img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := count(whole, blue); n != 300 {
		t.Errorf("expected the tag to survive without cropping, got %d pixels", n)
	}
}

func TestBorderMedian(t *testing.T) {
	t.Parallel()

	img := grid(5, 5, paper)
	img.Pixels[0] = red
	img.Pixels[12] = red // center is not on the border
	if got := borderMedian(img); got != paper {
		t.Errorf("expected paper, got %v", got)
	}
}
