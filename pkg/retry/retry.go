package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy defines a bounded, fixed-delay retry schedule.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn up to MaxAttempts times, sleeping Delay between attempts.
// It stops early when fn succeeds or ctx is cancelled. On exhaustion the
// last attempt's error is returned, wrapped with the operation name.
func (p Policy) Do(ctx context.Context, op string, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			}
		}

		if err := fn(attempt); err != nil {
			lastErr = err
			slog.Warn("retryable operation failed", "op", op, "attempt", attempt, "of", attempts, "error", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", op, attempts, lastErr)
}
