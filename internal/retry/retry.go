// Package retry implements bounded exponential backoff for transient failures.
package retry

import (
	"context"
	"time"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Policy configures a retry loop. It is immutable per call site.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap applied to the doubling delay
}

// DefaultPolicy returns the policy used when config provides none.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Delay returns the backoff before attempt i+1: min(BaseDelay*2^i, MaxDelay).
func (p Policy) Delay(i int) time.Duration {
	d := p.BaseDelay
	for ; i > 0 && d < p.MaxDelay; i-- {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op up to MaxAttempts times. Only transient errors (per
// apperror.IsTransient) are retried; all others are surfaced immediately.
// The backoff sleep respects context cancellation.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, p.Delay(i-1)); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !apperror.IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
