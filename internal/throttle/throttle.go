// Package throttle paces outbound requests between batch rows.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttle blocks until the next request may start.
type Throttle interface {
	// Wait returns early with ctx.Err() when the context is done.
	Wait(ctx context.Context) error
}

// Mode selects a Throttle implementation.
type Mode string

// Supported modes.
const (
	ModeFixed  Mode = "fixed"
	ModeBucket Mode = "bucket"
	ModeNone   Mode = "none"
)

// ErrUnknownMode is returned by New for an unsupported mode.
var ErrUnknownMode = errors.New("unknown throttle mode")

// New builds the Throttle for mode. delay is the pause (fixed) or the
// refill interval (bucket); burst only applies to the bucket.
func New(mode Mode, delay time.Duration, burst int) (Throttle, error) {
	switch mode {
	case ModeFixed, "":
		return NewFixedDelay(delay), nil
	case ModeBucket:
		return NewTokenBucket(delay, burst), nil
	case ModeNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// FixedDelay sleeps a constant duration on every call after the first.
type FixedDelay struct {
	delay   time.Duration
	started bool
}

// NewFixedDelay creates a FixedDelay.
func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{delay: d}
}

// Wait implements Throttle.
func (f *FixedDelay) Wait(ctx context.Context) error {
	if !f.started {
		f.started = true
		return ctx.Err()
	}
	if f.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucket allows short bursts while bounding the average rate to one
// request per interval.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a TokenBucket. A non-positive interval disables limiting.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{limiter: rate.NewLimiter(limit, max(burst, 1))}
}

// Wait implements Throttle.
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// None never waits.
type None struct{}

// Wait implements Throttle.
func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}
