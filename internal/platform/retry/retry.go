package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	// Retryable decides whether a failed attempt is worth repeating.
	// Nil means every error except context cancellation is retried.
	Retryable func(error) bool
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. Backoff doubles after each failure and waits
// respect context cancellation.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}

	return lastErr
}
