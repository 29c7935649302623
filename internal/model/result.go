package model

import "time"

// FailureMarker is the sentinel label recorded for rows whose image could
// not be fetched, decoded or classified.
const FailureMarker = "-"

// Result is the classification outcome for one dataset row.
type Result struct {
	// Index is the row position in the input dataset.
	Index int `json:"index"`

	// Identifier is the row identifier from the input dataset.
	Identifier string `json:"identifier"`

	// Name is the product name, carried for progress output and reports.
	Name string `json:"name,omitempty"`

	// ImageURL is the URL the image was fetched from.
	ImageURL string `json:"image_url"`

	// Label is the matched taxonomy label, or FailureMarker when Failed.
	Label string `json:"label"`

	// EntryName is the taxonomy entry key. Empty when Failed.
	EntryName string `json:"entry_name,omitempty"`

	// Dominant is the raw dominant color, kept for diagnostics.
	Dominant RGB `json:"dominant"`

	// NoDominant is true when Dominant was never recorded, as for rows
	// resumed from a checkpoint written without diagnostics.
	NoDominant bool `json:"no_dominant,omitempty"`

	// Failed is true when any pipeline stage failed for this row.
	Failed bool `json:"failed"`

	// Error is the failure message. Empty when not Failed.
	Error string `json:"error,omitempty"`

	// Achromatic is true when the achromatic rules decided the label.
	Achromatic bool `json:"achromatic,omitempty"`

	// Fallback is true when the taxonomy default entry was used.
	Fallback bool `json:"fallback,omitempty"`

	// Degenerate is true when no pixels survived and the white default was used.
	Degenerate bool `json:"degenerate,omitempty"`

	// Distance is the RGB distance to the matched entry reference.
	Distance float64 `json:"distance,omitempty"`

	// Digest is the SHA3-256 of the fetched image body.
	Digest string `json:"digest,omitempty"`

	// Resumed is true when the result was carried over from a checkpoint.
	Resumed bool `json:"resumed,omitempty"`

	// ProcessedAt is when the row finished processing.
	ProcessedAt time.Time `json:"processed_at"`
}

// DominantHex returns the dominant color as #rrggbb, or "" when the row
// failed or no dominant color is known.
func (r Result) DominantHex() string {
	if r.Failed || r.NoDominant {
		return ""
	}
	return r.Dominant.Hex()
}

// NewFailedResult creates a sentinel-marked result for a row.
func NewFailedResult(row Row, err error) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Index:       row.Index,
		Identifier:  row.Identifier,
		Name:        row.Name,
		ImageURL:    row.ImageURL,
		Label:       FailureMarker,
		Failed:      true,
		Error:       msg,
		ProcessedAt: time.Now(),
	}
}

// NewResultFromJob builds a successful result from a completed job.
func NewResultFromJob(job *Job) Result {
	return Result{
		Index:       job.Row.Index,
		Identifier:  job.Row.Identifier,
		Name:        job.Row.Name,
		ImageURL:    job.Row.ImageURL,
		Label:       job.Match.Label,
		EntryName:   job.Match.EntryName,
		Dominant:    job.Extraction.Dominant,
		Achromatic:  job.Match.Achromatic,
		Fallback:    job.Match.Fallback,
		Degenerate:  job.Extraction.Degenerate,
		Distance:    job.Match.Distance,
		Digest:      job.Digest,
		ProcessedAt: time.Now(),
	}
}
