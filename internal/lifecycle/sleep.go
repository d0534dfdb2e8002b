package lifecycle

import (
	"context"
	"time"
)

// sleepContext waits for d or until ctx is done. Non-positive durations
// return immediately.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
