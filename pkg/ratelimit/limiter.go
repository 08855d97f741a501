package ratelimit

import (
	"context"
	"math"
	"time"
)

// BackoffStrategy decides how long to wait before re-requesting the
// same page after a rate-limit response.
type BackoffStrategy interface {
	// NextDelay returns the delay for the given 1-based attempt
	NextDelay(attempt int) time.Duration
	// Reset resets the backoff strategy to initial state
	Reset()
}

// FixedBackoff waits a constant multiple of the base delay on every
// attempt, with no growth. This mirrors the retry-forever policy of
// the tags endpoint walk: 429s are transient and the same page is
// re-requested after the fixed pause.
type FixedBackoff struct {
	// BaseDelay is the configured inter-page delay
	BaseDelay time.Duration
	// Multiplier scales the base delay for backoff pauses
	Multiplier float64
}

// NewFixedBackoff returns the default rate-limit backoff: four times
// the inter-page delay.
func NewFixedBackoff(baseDelay time.Duration) *FixedBackoff {
	return &FixedBackoff{
		BaseDelay:  baseDelay,
		Multiplier: 4.0,
	}
}

// NextDelay returns the constant backoff delay
func (fb *FixedBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(float64(fb.BaseDelay) * fb.Multiplier)
}

// Reset is a no-op for a fixed backoff
func (fb *FixedBackoff) Reset() {}

// ExponentialBackoff grows the delay per consecutive rate-limit
// response, capped at MaxDelay.
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
}

// NewExponentialBackoff returns an exponential backoff starting at the
// base delay and capped at maxDelay.
func NewExponentialBackoff(baseDelay, maxDelay time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Multiplier: 2.0,
	}
}

// NextDelay calculates the delay for the given attempt
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	return time.Duration(delay)
}

// Reset resets the backoff to initial state
func (eb *ExponentialBackoff) Reset() {}

// Pacer enforces the fixed delay between successive page requests
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer with the given inter-page delay
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait sleeps for the inter-page delay or until the context is
// canceled, whichever comes first.
func (p *Pacer) Wait(ctx context.Context) error {
	return Sleep(ctx, p.delay)
}

// Sleep blocks for d or until ctx is canceled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
