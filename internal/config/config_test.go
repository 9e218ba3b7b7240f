package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.CritThreshold != 20 || cfg.CritMultiplier != 2.0 || cfg.DamageDieSides != 6 {
		t.Fatalf("unexpected combat defaults: %+v", cfg)
	}
	if cfg.BaseHealthFor("warrior") != 20 {
		t.Fatalf("warrior base health = %d, want 20", cfg.BaseHealthFor("warrior"))
	}
	if cfg.BaseHealthFor("unknown-class") != 10 {
		t.Fatalf("unknown class should fall back to 10, got %d", cfg.BaseHealthFor("unknown-class"))
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.json")
	body := `{
		"server": {"address": ":9999"},
		"combat": {"crit_threshold": 19, "damage_die_sides": 8},
		"class_base_health": {"warrior": 24},
		"battle": {"challenge_expiry_seconds": 60, "max_sessions_per_guild": 3}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerAddress != ":9999" || cfg.CritThreshold != 19 || cfg.DamageDieSides != 8 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ChallengeExpiry != time.Minute || cfg.MaxSessionsPerGuild != 3 {
		t.Fatalf("battle section not applied: %+v", cfg)
	}
	if cfg.BaseHealthFor("warrior") != 24 {
		t.Fatalf("class health not applied, got %d", cfg.BaseHealthFor("warrior"))
	}
	// Unset sections keep their defaults.
	if cfg.CritMultiplier != 2.0 || cfg.SweepInterval != 30*time.Second {
		t.Fatalf("defaults lost for unset keys: %+v", cfg)
	}
}

func TestEnvOverridesWinOverFileAndDefaults(t *testing.T) {
	t.Setenv("ARENA_DB", "/tmp/override.db")
	t.Setenv("ARENA_ADDR", ":7070")
	t.Setenv("ARENA_ROSTER", "/tmp/roster.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("ARENA_DB not applied, got %q", cfg.DBPath)
	}
	if cfg.ServerAddress != ":7070" {
		t.Fatalf("ARENA_ADDR not applied, got %q", cfg.ServerAddress)
	}
	if cfg.RosterPath != "/tmp/roster.json" {
		t.Fatalf("ARENA_ROSTER not applied, got %q", cfg.RosterPath)
	}
}

func TestLoadRejectsInvalidTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.json")
	if err := os.WriteFile(path, []byte(`{"combat": {"crit_threshold": 25}}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("crit threshold above 20 must be rejected")
	}
}
