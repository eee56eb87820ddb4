package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy wraps a fallible operation with a bounded attempt count and a
// backoff schedule. It makes the retry rules of every caller explicit instead
// of scattering counters through the call sites.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// LinearBackoff returns a schedule of base, 2*base, 3*base, ...
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt+1) * base
	}
}

// NoBackoff returns a schedule with no delay between attempts
func NoBackoff() func(int) time.Duration {
	return func(int) time.Duration { return 0 }
}

// Do runs op up to MaxAttempts times, sleeping per the backoff schedule
// between attempts. It stops early when the context is cancelled and returns
// the last error wrapped with the attempt count.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("cancelled after %d attempts (%v): %w", attempt, err, lastErr)
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts-1 && p.Backoff != nil {
			delay := p.Backoff(attempt)
			if delay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(delay):
				}
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
