package filter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	"github.com/nao1215/colortag/internal/model"
)

// Segmentation keeps the salient, non-background part of the image.
//
// The background is estimated as the per-channel median of the border
// pixels. A flood fill seeded from every border pixel close to that color
// marks the connected background region. Pixels outside the smartcrop
// salient rectangle are dropped as well.
type Segmentation struct {
	settings
	fallback *Statistical
}

// NewSegmentation creates a Segmentation filter.
func NewSegmentation(opts ...Option) *Segmentation {
	return &Segmentation{
		settings: newSettings(opts),
		fallback: NewStatistical(opts...),
	}
}

// Name implements Filter.
func (f *Segmentation) Name() string {
	return string(ModeSegmentation)
}

// Apply implements Filter.
func (f *Segmentation) Apply(ctx context.Context, img *model.SourceImage) ([]model.RGB, error) {
	if img == nil || len(img.Pixels) == 0 {
		return []model.RGB{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept, err := f.segment(img)
	if err != nil {
		f.logger.Debug("segmentation failed, using statistical filter", "url", img.URL, "error", err)
		return f.fallback.Apply(ctx, img)
	}
	if len(kept) < f.minPixels {
		f.logger.Debug("segmentation kept too few pixels, using statistical filter",
			"url", img.URL, "kept", len(kept))
		return f.fallback.Apply(ctx, img)
	}
	return kept, nil
}

// segment returns the pixels inside the salient region that are not background.
func (f *Segmentation) segment(img *model.SourceImage) ([]model.RGB, error) {
	if img.Width < 3 || img.Height < 3 || len(img.Pixels) != img.Width*img.Height {
		return nil, fmt.Errorf("grid %dx%d too small to segment", img.Width, img.Height)
	}

	crop, err := salientRect(img, f.cropRatio)
	if err != nil {
		return nil, err
	}

	bg := borderMedian(img)
	mask := floodBackground(img, bg, f.tolerance)

	kept := make([]model.RGB, 0, crop.Dx()*crop.Dy())
	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		for x := crop.Min.X; x < crop.Max.X; x++ {
			if mask[y*img.Width+x] {
				continue
			}
			kept = append(kept, img.At(x, y))
		}
	}
	return kept, nil
}

// resizer adapts imaging to smartcrop's Resizer interface.
type resizer struct{}

// Resize implements smartcrop's Resizer.
func (resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), imaging.Box) //nolint:gosec // grid sizes are small
}

// salientRect finds the most interesting square of the grid whose edge is
// ratio times the shorter grid edge.
//
// smartcrop always returns the largest crop of the requested aspect ratio,
// so the square is located in two passes: a full-width band of the target
// height first, then the target square inside that band.
func salientRect(img *model.SourceImage, ratio float64) (image.Rectangle, error) {
	full := image.Rect(0, 0, img.Width, img.Height)
	side := int(float64(min(img.Width, img.Height)) * ratio)
	if ratio <= 0 || ratio >= 1 || side < 1 {
		return full, nil
	}

	analyzer := smartcrop.NewAnalyzer(resizer{})
	src := toNRGBA(img)

	band := full
	if side < img.Height {
		crop, err := analyzer.FindBestCrop(src, img.Width, side)
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("finding salient band: %w", err)
		}
		band = image.Rect(0, crop.Min.Y, img.Width, crop.Min.Y+side).Intersect(full)
	}

	rect := band
	if side < band.Dx() {
		crop, err := analyzer.FindBestCrop(imaging.Crop(src, band), side, side)
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("finding salient region: %w", err)
		}
		rect = image.Rect(band.Min.X+crop.Min.X, band.Min.Y, band.Min.X+crop.Min.X+side, band.Max.Y).Intersect(full)
	}

	if rect.Empty() {
		return image.Rectangle{}, errors.New("empty salient region")
	}
	return rect, nil
}

// toNRGBA renders the pixel grid as an opaque image.
func toNRGBA(img *model.SourceImage) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, p := range img.Pixels {
		out.SetNRGBA(i%img.Width, i/img.Width, color.NRGBA{R: p.R, G: p.G, B: p.B, A: 255})
	}
	return out
}

// borderPixels returns the grid indices on the outer ring.
func borderPixels(w, h int) []int {
	idx := make([]int, 0, 2*w+2*h)
	for x := 0; x < w; x++ {
		idx = append(idx, x, (h-1)*w+x)
	}
	for y := 1; y < h-1; y++ {
		idx = append(idx, y*w, y*w+w-1)
	}
	return idx
}

// borderMedian estimates the background color from the border ring.
func borderMedian(img *model.SourceImage) model.RGB {
	border := borderPixels(img.Width, img.Height)
	rs := make([]uint8, len(border))
	gs := make([]uint8, len(border))
	bs := make([]uint8, len(border))
	for i, idx := range border {
		p := img.Pixels[idx]
		rs[i], gs[i], bs[i] = p.R, p.G, p.B
	}
	slices.Sort(rs)
	slices.Sort(gs)
	slices.Sort(bs)
	mid := len(border) / 2
	return model.RGB{R: rs[mid], G: gs[mid], B: bs[mid]}
}

// floodBackground marks pixels 4-connected to the border whose color is
// within tolerance of bg.
func floodBackground(img *model.SourceImage, bg model.RGB, tolerance float64) []bool {
	w, h := img.Width, img.Height
	mask := make([]bool, w*h)
	near := func(i int) bool {
		return distance(img.Pixels[i], bg) <= tolerance
	}

	queue := make([]int, 0, 2*w+2*h)
	for _, i := range borderPixels(w, h) {
		if !mask[i] && near(i) {
			mask[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			nx, ny := n[0], n[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if mask[j] || !near(j) {
				continue
			}
			mask[j] = true
			queue = append(queue, j)
		}
	}
	return mask
}

func distance(a, b model.RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
