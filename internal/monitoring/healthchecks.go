package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

const HEALTHCHECK_INTERVAL = 15 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorHealth pings target on every tick and stores the outcome in
// healthy. It logs only on transitions and returns when ctx is done.
func MonitorHealth(ctx context.Context, clock clockwork.Clock, name string, target Pinger, healthy *atomic.Bool, interval time.Duration) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			pingCtx, cancel := context.WithTimeout(ctx, interval/2)
			err := target.Ping(pingCtx)
			cancel()

			isHealthy := err == nil
			if was := healthy.Swap(isHealthy); was != isHealthy {
				if isHealthy {
					slog.Info("[HealthCheck] Dependency recovered", slog.String("name", name))
				} else {
					slog.Warn("[HealthCheck] Dependency is unhealthy",
						slog.String("name", name),
						slog.String("error", err.Error()))
				}
			}
		}
	}
}
