package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/colortag/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *model.Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *model.Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func testJob() *model.Job {
	return model.NewJob(model.Row{Identifier: "E001", ImageURL: "http://example.com/a.png"})
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
	if p.logger == nil {
		t.Error("expected default logger")
	}
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "step-1"}, &mockStep{name: "step-2"}, &mockStep{name: "step-3"})

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		expected := []string{"first", "second", "third"}
		for i, name := range p.StepNames() {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		record := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.Job) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New()
		p.AddSteps(record("step-1"), record("step-2"))

		job := testJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("unexpected order %v", order)
		}
		if len(job.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", job.PerformedSteps)
		}
	})

	t.Run("stops at first failing step", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.Job) error { return boom }}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(&mockStep{name: "before"}, failing, after)

		job := testJob()
		err := p.Execute(context.Background(), job)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		var stepErr *StepError
		if !errors.As(err, &stepErr) || stepErr.Step != "failing" {
			t.Errorf("expected StepError for failing, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("step after failure must not run")
		}
		if len(job.PerformedSteps) != 1 || job.PerformedSteps[0] != "before" {
			t.Errorf("unexpected performed steps %v", job.PerformedSteps)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		if err := p.Execute(ctx, testJob()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step must not run after cancellation")
		}
	})
}
