package retry

import (
	"context"
	"time"
)

// Do invokes op up to maxAttempts times, sleeping baseDelay * attempt between
// failures (linear backoff). The last error is returned unchanged so callers
// can still match it with errors.Is/As. The context is checked between
// attempts; a cancelled context wins over further retries.
//
// Only use this around operations that are safe to repeat. Payment creation
// is deliberately never wrapped here: retrying it risks duplicate charges.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay * time.Duration(attempt)):
		}
	}
	return lastErr
}
