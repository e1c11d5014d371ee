package app

import (
	"context"
	"time"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
)

// runSyncScheduler calls Sync every interval until ctx is cancelled.
// Failures are logged by the service and retried on the next tick.
func runSyncScheduler(ctx context.Context, svc interfaces.SyncService, logger *common.Logger, interval time.Duration, runOnStart bool) {
	if runOnStart {
		syncOnce(ctx, svc, logger)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Sync scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Sync scheduler: stopped")
			return
		case <-ticker.C:
			syncOnce(ctx, svc, logger)
		}
	}
}

func syncOnce(ctx context.Context, svc interfaces.SyncService, logger *common.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := svc.Sync(ctx); err != nil {
		logger.Warn().Err(err).Msg("Sync scheduler: run failed, waiting for next tick")
	}
}
