package helpers

import (
	"context"
	"time"

	"market-simulator/src/logger"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, doubling baseDelay between
// tries. It gives up early when ctx is done.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, attempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Debug("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, attempts, operation, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}
