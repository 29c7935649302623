package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/colortag/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the job that
// earlier steps have filled in.
type Step interface {
	// Do executes the step. A non-nil error stops the pipeline for this job.
	Do(ctx context.Context, job *model.Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// StepError records which step failed for a job.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the step's error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first failure, which
// is returned as a *StepError.
//
// Design decision: We check ctx.Err() before each step rather than during,
// because steps that block (the fetch) enforce their own deadlines.
func (p *Pipeline) Execute(ctx context.Context, job *model.Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"identifier", job.Row.Identifier,
				"reason", err,
			)
			return &StepError{Step: step.Name(), Err: err}
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"identifier", job.Row.Identifier,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"identifier", job.Row.Identifier,
				"error", err,
			)
			return &StepError{Step: step.Name(), Err: err}
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
