package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/throttle"
)

// Row level errors recorded in results.
var (
	// ErrNoImageURL is recorded for rows without an image URL.
	ErrNoImageURL = errors.New("row has no image URL")

	// ErrPanic is recorded when a step panics while processing a row.
	ErrPanic = errors.New("panic while processing row")
)

// DefaultCheckpointEvery is the number of processed rows between snapshot writes.
const DefaultCheckpointEvery = 10

// Sink persists the accumulated result table. Every call receives all
// results so far in input order and replaces what was written before.
type Sink interface {
	Write(results []model.Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(results []model.Result) error

// Write implements Sink.
func (f SinkFunc) Write(results []model.Result) error {
	return f(results)
}

// PersistenceError reports a failed snapshot write. It is the only error
// that aborts a batch run.
type PersistenceError struct {
	// Rows is the number of results the failed write contained.
	Rows int
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %d results: %v", e.Rows, e.Err)
}

// Unwrap returns the sink error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Progress is passed to observers after each row.
type Progress struct {
	// Position is the 1-based position of the row in the run.
	Position int
	Total    int
	Result   model.Result
}

// BatchRunner classifies rows one at a time and checkpoints the results.
//
// Design decision: the runner owns the accumulated table and hands the
// whole table to the Sink on every checkpoint. Sinks therefore stay
// stateless, and after an interruption the output always holds exactly
// the rows finished so far.
type BatchRunner struct {
	pipeline        *Pipeline
	sink            Sink
	throttle        throttle.Throttle
	checkpointEvery int
	prior           map[string]model.Result
	retryFailed     bool
	observers       []func(Progress)
	logger          *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithCheckpointEvery sets how many processed rows trigger a snapshot write.
// Non-positive values keep the default.
func WithCheckpointEvery(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.checkpointEvery = n
		}
	}
}

// WithThrottle sets the wait policy between rows.
func WithThrottle(t throttle.Throttle) BatchOption {
	return func(b *BatchRunner) {
		b.throttle = t
	}
}

// WithPriorResults seeds the run with results from an earlier checkpoint.
// Rows whose identifier has a prior result are not processed again.
func WithPriorResults(results []model.Result) BatchOption {
	return func(b *BatchRunner) {
		for _, r := range results {
			b.prior[r.Identifier] = r
		}
	}
}

// WithRetryFailed reprocesses rows whose prior result is a failure.
func WithRetryFailed(retry bool) BatchOption {
	return func(b *BatchRunner) {
		b.retryFailed = retry
	}
}

// WithObserver registers a callback invoked after every row, in order.
func WithObserver(fn func(Progress)) BatchOption {
	return func(b *BatchRunner) {
		b.observers = append(b.observers, fn)
	}
}

// NewBatchRunner creates a BatchRunner that runs p for every row and writes
// snapshots to sink.
func NewBatchRunner(p *Pipeline, sink Sink, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		pipeline:        p,
		sink:            sink,
		throttle:        throttle.None{},
		checkpointEvery: DefaultCheckpointEvery,
		prior:           make(map[string]model.Result),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Run processes rows in order and returns the run summary.
//
// A cancelled context ends the run at the next row boundary; the result
// table is still written once more before Run returns. The returned error
// is nil or a *PersistenceError.
func (b *BatchRunner) Run(ctx context.Context, rows []model.Row) (*model.Summary, error) {
	summary := model.NewSummary(len(rows))
	results := make([]model.Result, 0, len(rows))
	pending := 0
	stop := len(rows)

	b.logger.Info("starting batch run",
		"rows", len(rows),
		"resumable", len(b.prior),
		"checkpoint_every", b.checkpointEvery,
	)

	for i, row := range rows {
		if ctx.Err() != nil {
			summary.Interrupted = true
			stop = i
			break
		}

		if prev, ok := b.resumed(row); ok {
			results = append(results, prev)
			summary.Add(prev)
			b.notify(i+1, len(rows), prev)
			continue
		}

		if err := b.throttle.Wait(ctx); err != nil {
			summary.Interrupted = true
			stop = i
			break
		}

		result := b.process(ctx, row)
		if result.Failed && ctx.Err() != nil {
			// The row was cut short by cancellation, not by its image.
			summary.Interrupted = true
			stop = i
			break
		}

		results = append(results, result)
		summary.Add(result)
		b.notify(i+1, len(rows), result)

		pending++
		if pending >= b.checkpointEvery {
			if err := b.persist(summary, results, rows[i+1:]); err != nil {
				return b.finish(summary), err
			}
			pending = 0
		}
	}

	if err := b.persist(summary, results, rows[stop:]); err != nil {
		return b.finish(summary), err
	}
	return b.finish(summary), nil
}

// carried returns the prior results of rows, in input order, including
// failures that were due for a retry.
func (b *BatchRunner) carried(rows []model.Row) []model.Result {
	var out []model.Result
	for _, row := range rows {
		prev, ok := b.prior[row.Identifier]
		if !ok {
			continue
		}
		prev.Index = row.Index
		prev.Resumed = true
		out = append(out, prev)
	}
	return out
}

// resumed returns the prior result for row when it should be skipped.
func (b *BatchRunner) resumed(row model.Row) (model.Result, bool) {
	prev, ok := b.prior[row.Identifier]
	if !ok || (prev.Failed && b.retryFailed) {
		return model.Result{}, false
	}
	prev.Index = row.Index
	prev.Resumed = true
	return prev, true
}

// process runs the pipeline for one row. Failures and panics become a
// FailureMarker result.
func (b *BatchRunner) process(ctx context.Context, row model.Row) (result model.Result) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("row panicked", "identifier", row.Identifier, "panic", r)
			result = model.NewFailedResult(row, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	if row.ImageURL == "" {
		return model.NewFailedResult(row, ErrNoImageURL)
	}

	job := model.NewJob(row)
	if err := b.pipeline.Execute(ctx, job); err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("row failed",
				"identifier", row.Identifier,
				"url", row.ImageURL,
				"error", err,
			)
		}
		return model.NewFailedResult(row, err)
	}

	b.logger.Debug("row classified",
		"identifier", row.Identifier,
		"label", job.Match.Label,
		"dominant", job.Extraction.Dominant.Hex(),
	)
	return model.NewResultFromJob(job)
}

// persist hands the full table to the sink. Prior results of the rows in
// rest are appended so a snapshot never drops rows an earlier checkpoint held.
func (b *BatchRunner) persist(summary *model.Summary, results []model.Result, rest []model.Row) error {
	table := slices.Concat(results, b.carried(rest))
	if err := b.sink.Write(table); err != nil {
		b.logger.Error("checkpoint failed", "rows", len(table), "error", err)
		return &PersistenceError{Rows: len(table), Err: err}
	}
	summary.Checkpoints++
	b.logger.Debug("checkpoint written", "rows", len(table))
	return nil
}

func (b *BatchRunner) notify(pos, total int, r model.Result) {
	for _, fn := range b.observers {
		fn(Progress{Position: pos, Total: total, Result: r})
	}
}

func (b *BatchRunner) finish(summary *model.Summary) *model.Summary {
	summary.Elapsed = time.Since(summary.StartedAt)
	b.logger.Info("batch run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"interrupted", summary.Interrupted,
		"elapsed", summary.Elapsed,
	)
	return summary
}
