package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff retries fn up to maxAttempts times with a quadratic
// backoff between attempts. It stops early when the context is done and
// returns the last error wrapped with the attempt count. fn must be safe
// to call repeatedly.
func RetryWithBackoff(ctx context.Context, maxAttempts int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed, last error: %w", maxAttempts, lastErr)
}
