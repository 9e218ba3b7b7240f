package main

import (
	"os"

	"github.com/duelforge/arena/internal/api"
	"github.com/duelforge/arena/internal/character"
	"github.com/duelforge/arena/internal/constants"
	"github.com/duelforge/arena/internal/effects"
	"github.com/duelforge/arena/internal/logging"
	"github.com/duelforge/arena/internal/metrics"
	"github.com/duelforge/arena/internal/recovery"
	"github.com/duelforge/arena/internal/service"
	"github.com/duelforge/arena/internal/spells"

	"github.com/gin-gonic/gin"
)

func main() {
	// Configuration path may be provided via ARENA_CONFIG; with no file the
	// built-in defaults apply.
	cfg := loadConfigOrExit(os.Getenv(constants.EnvConfigPath))
	repo := createRepositoryOrExit(cfg.DBPath)

	collector := metrics.NewCollector()
	sweeper := recovery.NewSweeper(repo, collector, cfg.TurnTimeout)

	// Close out records from a previous process before serving traffic so no
	// participant stays flagged as mid-battle forever.
	if n, err := sweeper.RecoverOnStartup(); err != nil {
		logging.Fatal("startup recovery failed", err, nil)
	} else if n > 0 {
		logging.Info("startup recovery complete", logging.Fields{"recovered": n})
	}

	chars := character.NewCachedProvider(loadRosterOrExit(cfg.RosterPath))
	tracker := spells.NewTracker(repo)
	orch := service.NewOrchestrator(cfg, chars, repo, effects.NewEngine(repo), tracker, collector)

	startMaintenanceScanners(cfg, orch, sweeper, tracker)

	router := gin.Default()
	handler := api.NewArenaHandler(orch, sweeper, collector)
	handler.RegisterRoutes(router)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
