// Package clock turns the portal's simulated latencies into cancellable waits.
package clock

import (
	"context"
	"time"
)

// Sleep blocks for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when cancelled and nil otherwise. A non-positive d
// only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
