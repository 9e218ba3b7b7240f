package main

import (
	"github.com/duelforge/arena/internal/character"
	"github.com/duelforge/arena/internal/config"
	"github.com/duelforge/arena/internal/logging"
	"github.com/duelforge/arena/internal/storage"
)

func loadConfigOrExit(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal("Missing or invalid arena configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db)
}

func loadRosterOrExit(path string) character.Provider {
	provider, err := character.NewFileProvider(path)
	if err != nil {
		logging.Fatal("Failed to load character roster", err, logging.Fields{"roster_path": path})
	}
	if path == "" {
		logging.Warn("no roster configured, every character lookup will miss", nil)
	} else {
		logging.Info("character roster loaded", logging.Fields{"roster_path": path, "characters": provider.Len()})
	}
	return provider
}
