package model

import (
	"errors"
	"testing"
)

func TestSummaryAdd(t *testing.T) {
	t.Parallel()

	s := NewSummary(4)
	s.Add(Result{Identifier: "a", Label: "red"})
	s.Add(Result{Identifier: "b", Label: "red"})
	s.Add(Result{Identifier: "c", Label: "navy", Resumed: true})
	s.Add(NewFailedResult(Row{Index: 3, Identifier: "d", ImageURL: "http://x/d.jpg"}, errors.New("status 404")))

	if s.Succeeded != 3 {
		t.Errorf("expected 3 succeeded, got %d", s.Succeeded)
	}
	if s.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", s.Failed)
	}
	if s.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", s.Skipped)
	}
	if s.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", s.Processed)
	}
	if s.Completed() != 4 {
		t.Errorf("expected 4 completed, got %d", s.Completed())
	}
	if len(s.Failures) != 1 || s.Failures[0].Identifier != "d" {
		t.Fatalf("unexpected failures: %+v", s.Failures)
	}
	if s.Failures[0].Error != "status 404" {
		t.Errorf("expected failure message to be kept, got %q", s.Failures[0].Error)
	}
	if _, ok := s.LabelCounts[FailureMarker]; ok {
		t.Error("failure marker must not be counted as a label")
	}
}

func TestSummarySortedLabels(t *testing.T) {
	t.Parallel()

	s := NewSummary(0)
	s.LabelCounts = map[string]int{"white": 2, "black": 2, "red": 5}

	got := s.SortedLabels()
	want := []string{"red", "black", "white"}
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i, lc := range got {
		if lc.Label != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], lc.Label)
		}
	}
}
