// Package filter separates product (foreground) pixels from background and
// shadow pixels before dominant color extraction.
//
// Two variants implement the Filter interface:
//   - Statistical drops dark pixels (HSV value at or below MinValue) and
//     near white pixels (all channels above WhiteCutoff).
//   - Segmentation locates the salient region with smartcrop and removes
//     the background connected to the image border by flood fill, falling
//     back to Statistical when too few pixels survive.
//
// The variant is chosen at construction with New. Both guarantee that the
// returned set is never smaller than MinPixels unless the input itself is:
// when filtering removes too much, the unfiltered pixels are returned.
package filter
