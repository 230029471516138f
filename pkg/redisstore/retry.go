package redisstore

import (
	"context"
	"time"
)

const retryBaseWait = 25 * time.Millisecond

// retry runs fn up to attempts times, doubling the wait between tries.
// Failure tracking is best effort: callers that still fail after the
// last attempt get that attempt's error.
func retry(ctx context.Context, attempts int, fn func() error) error {
	wait := retryBaseWait

	var lastErr error
	for attempt := 1; ; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt >= attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
}
