package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartJanitor runs task every interval until ctx is cancelled. Failures are
// logged and the next round runs as scheduled.
func StartJanitor(ctx context.Context, name string, interval time.Duration, task func(context.Context) error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			// wait first so startup is not slowed by a cleanup round
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := task(ctx); err != nil && ctx.Err() == nil {
				Logger.Warn("janitor round failed", zap.String("task", name), zap.Error(err))
			}
		}
	}()
}
