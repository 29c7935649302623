package model

// SourceImage is a decoded remote image normalized to an RGB pixel grid.
//
// Width and Height describe the downsampled grid that Pixels holds in
// row-major order; SourceWidth and SourceHeight are the dimensions of the
// image as served. The fetch step owns the value; the pipeline drops its
// reference once the dominant color has been extracted.
type SourceImage struct {
	URL          string
	Format       string
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int

	// Digest is the hex encoded SHA3-256 of the raw response body.
	Digest string

	Pixels []RGB
}

// At returns the pixel at grid position (x, y).
func (img *SourceImage) At(x, y int) RGB {
	return img.Pixels[y*img.Width+x]
}

// Cluster is one k-means cluster produced while extracting a dominant color.
type Cluster struct {
	Centroid RGB `json:"centroid"`
	Members  int `json:"members"`
}

// Extraction is the outcome of dominant color extraction.
type Extraction struct {
	// Dominant is the representative color of the pixel set.
	Dominant RGB

	// Clusters lists every cluster in index order. Empty when Degenerate.
	Clusters []Cluster

	// Degenerate is true when the pixel set was empty and Dominant is the
	// white default rather than a measured color.
	Degenerate bool
}

// Match is the outcome of matching a color sample against the taxonomy.
type Match struct {
	// Label is the human readable label written to the dataset.
	Label string `json:"label"`

	// EntryName is the taxonomy entry key that produced Label.
	EntryName string `json:"entry_name"`

	// HSV is the sample converted to HSV.
	HSV HSV `json:"hsv"`

	// Distance is the RGB Euclidean distance to the entry reference.
	Distance float64 `json:"distance"`

	// Achromatic is true when the achromatic short-circuit decided the label.
	Achromatic bool `json:"achromatic"`

	// Fallback is true when no entry qualified and the default entry was used.
	Fallback bool `json:"fallback"`
}
