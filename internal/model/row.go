package model

// Row is one dataset row handed to the batch runner.
// Index is the zero-based position of the row in the input dataset.
type Row struct {
	Index      int
	Identifier string
	Name       string
	ImageURL   string
}

// Job carries one row through the pipeline steps.
// Each step reads what earlier steps produced and fills in its own part.
type Job struct {
	Row Row

	// Image is set by the fetch step and released after extraction.
	Image *SourceImage

	// Pixels is the filtered pixel set produced by the filter step.
	Pixels []RGB

	// Extraction is set by the extract step.
	Extraction Extraction

	// Match is set by the match step.
	Match Match

	// Digest survives Image release so it can be recorded in the result.
	Digest string

	// PerformedSteps lists the names of steps that ran, in order.
	PerformedSteps []string
}

// NewJob creates a Job for the given row.
func NewJob(row Row) *Job {
	return &Job{
		Row:            row,
		PerformedSteps: make([]string, 0, 4),
	}
}
