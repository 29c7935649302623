package model

import (
	"sort"
	"time"
)

// Summary reports the outcome of a batch run.
//
// Design decision: The summary is the only batch level signal. Row failures
// are counted here and listed in Failures, but they never fail the run.
type Summary struct {
	// Input is the dataset path the rows were read from.
	Input string `json:"input,omitempty"`

	// Output is the path the result table was written to.
	Output string `json:"output,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Total is the number of input rows.
	Total int `json:"total"`

	// Processed is the number of rows classified during this run.
	Processed int `json:"processed"`

	// Succeeded counts rows with a label, including resumed ones.
	Succeeded int `json:"succeeded"`

	// Failed counts sentinel-marked rows, including resumed ones.
	Failed int `json:"failed"`

	// Skipped counts rows carried over from a checkpoint.
	Skipped int `json:"skipped"`

	// Checkpoints is the number of snapshot writes, including the final one.
	Checkpoints int `json:"checkpoints"`

	// Interrupted is true when the run stopped before reaching the last row.
	Interrupted bool `json:"interrupted,omitempty"`

	// LabelCounts maps each label to the number of rows that received it.
	LabelCounts map[string]int `json:"label_counts"`

	// Failures lists the failed rows in input order.
	Failures []Failure `json:"failures,omitempty"`
}

// Failure describes one failed row.
type Failure struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier"`
	ImageURL   string `json:"image_url"`
	Error      string `json:"error"`
}

// LabelCount is one entry of a sorted label distribution.
type LabelCount struct {
	Label string
	Count int
}

// NewSummary creates an empty summary.
func NewSummary(total int) *Summary {
	return &Summary{
		StartedAt:   time.Now(),
		Total:       total,
		LabelCounts: make(map[string]int),
	}
}

// Add records a result in the summary counters.
func (s *Summary) Add(r Result) {
	if r.Resumed {
		s.Skipped++
	} else {
		s.Processed++
	}

	if r.Failed {
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Index:      r.Index,
			Identifier: r.Identifier,
			ImageURL:   r.ImageURL,
			Error:      r.Error,
		})
		return
	}

	s.Succeeded++
	s.LabelCounts[r.Label]++
}

// Completed returns the number of rows that have a result.
func (s *Summary) Completed() int {
	return s.Succeeded + s.Failed
}

// SortedLabels returns the label distribution ordered by count (descending),
// then label (ascending) for a stable presentation.
func (s *Summary) SortedLabels() []LabelCount {
	counts := make([]LabelCount, 0, len(s.LabelCounts))
	for label, n := range s.LabelCounts {
		counts = append(counts, LabelCount{Label: label, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}
