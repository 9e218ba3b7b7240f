package main

import (
	"time"

	"github.com/duelforge/arena/internal/config"
	"github.com/duelforge/arena/internal/logging"
	"github.com/duelforge/arena/internal/recovery"
	"github.com/duelforge/arena/internal/service"
	"github.com/duelforge/arena/internal/spells"
)

// cooldownRetention is how long spent cooldown rows are kept before the
// maintenance scanner deletes them.
const cooldownRetention = 24 * time.Hour

// startMaintenanceScanners launches the background tickers: the cache sweep
// (stale pending expiry + lock reaping + gauge refresh), the stale-active
// reaper against the durable records, and the cooldown-row cleanup.
func startMaintenanceScanners(cfg *config.Config, orch *service.Orchestrator, sweeper *recovery.Sweeper, tracker *spells.Tracker) {
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			orch.Sweep()
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.TurnTimeout)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := sweeper.ReapStale(time.Now()); err != nil {
				logging.Error("stale session reaper failed", err, nil)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := tracker.CleanupExpired(time.Now().Add(-cooldownRetention)); err != nil {
				logging.Error("cooldown cleanup failed", err, nil)
			}
		}
	}()
}
