package resilience

import (
	"context"
	"time"
)

// Retry calls fn up to attempts times, sleeping delay between tries and doubling it each time.
// It stops early when ctx is done or retryable reports false.
func Retry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
