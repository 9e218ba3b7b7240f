package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/duelforge/arena/internal/engine"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	RosterPath string `json:"roster_path"`
	Combat *struct {
		CritThreshold  int     `json:"crit_threshold"`
		CritMultiplier float64 `json:"crit_multiplier"`
		BaseArmorClass int     `json:"base_armor_class"`
		DamageDieSides int     `json:"damage_die_sides"`
	} `json:"combat"`
	ClassBaseHealth map[string]int `json:"class_base_health"`
	Battle          *struct {
		ChallengeExpirySeconds int `json:"challenge_expiry_seconds"`
		TurnTimeoutSeconds     int `json:"turn_timeout_seconds"`
		MaxSessionsPerGuild    int `json:"max_sessions_per_guild"`
		ActiveIdleTTLSeconds   int `json:"active_idle_ttl_seconds"`
		EndedRetentionSeconds  int `json:"ended_retention_seconds"`
		SweepIntervalSeconds   int `json:"sweep_interval_seconds"`
	} `json:"battle"`
}

type envOverrides struct {
	DBPath     string `env:"ARENA_DB"`
	Address    string `env:"ARENA_ADDR"`
	RosterPath string `env:"ARENA_ROSTER"`
}

// Config carries every numeric tunable the duel core consumes.
type Config struct {
	ServerAddress string
	DBPath        string
	RosterPath    string

	CritThreshold  int
	CritMultiplier float64
	BaseArmorClass int
	DamageDieSides int

	ClassBaseHealth map[string]int

	ChallengeExpiry     time.Duration
	TurnTimeout         time.Duration
	MaxSessionsPerGuild int

	ActiveIdleTTL  time.Duration
	EndedRetention time.Duration
	SweepInterval  time.Duration
}

// Default returns the built-in tunables used when no config file is given.
func Default() *Config {
	return &Config{
		ServerAddress:  ":8080",
		DBPath:         "./data/arena.db",
		CritThreshold:  20,
		CritMultiplier: 2.0,
		BaseArmorClass: 10,
		DamageDieSides: 6,
		ClassBaseHealth: map[string]int{
			"warrior": 20,
			"rogue":   16,
			"mage":    12,
			"cleric":  16,
			"warlock": 14,
			"druid":   14,
		},
		ChallengeExpiry:     5 * time.Minute,
		TurnTimeout:         10 * time.Minute,
		MaxSessionsPerGuild: 10,
		ActiveIdleTTL:       2 * time.Hour,
		EndedRetention:      2 * time.Minute,
		SweepInterval:       30 * time.Second,
	}
}

// Load reads the configuration file at path, applies defaults for absent
// sections, validates the result and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var rc rawConfig
		if err := json.Unmarshal(b, &rc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		applyRaw(cfg, &rc)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyRaw(cfg *Config, rc *rawConfig) {
	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if rc.RosterPath != "" {
		cfg.RosterPath = rc.RosterPath
	}
	if rc.Combat != nil {
		if rc.Combat.CritThreshold > 0 {
			cfg.CritThreshold = rc.Combat.CritThreshold
		}
		if rc.Combat.CritMultiplier > 0 {
			cfg.CritMultiplier = rc.Combat.CritMultiplier
		}
		if rc.Combat.BaseArmorClass > 0 {
			cfg.BaseArmorClass = rc.Combat.BaseArmorClass
		}
		if rc.Combat.DamageDieSides > 0 {
			cfg.DamageDieSides = rc.Combat.DamageDieSides
		}
	}
	if len(rc.ClassBaseHealth) > 0 {
		cfg.ClassBaseHealth = rc.ClassBaseHealth
	}
	if rc.Battle != nil {
		if rc.Battle.ChallengeExpirySeconds > 0 {
			cfg.ChallengeExpiry = time.Duration(rc.Battle.ChallengeExpirySeconds) * time.Second
		}
		if rc.Battle.TurnTimeoutSeconds > 0 {
			cfg.TurnTimeout = time.Duration(rc.Battle.TurnTimeoutSeconds) * time.Second
		}
		if rc.Battle.MaxSessionsPerGuild > 0 {
			cfg.MaxSessionsPerGuild = rc.Battle.MaxSessionsPerGuild
		}
		if rc.Battle.ActiveIdleTTLSeconds > 0 {
			cfg.ActiveIdleTTL = time.Duration(rc.Battle.ActiveIdleTTLSeconds) * time.Second
		}
		if rc.Battle.EndedRetentionSeconds > 0 {
			cfg.EndedRetention = time.Duration(rc.Battle.EndedRetentionSeconds) * time.Second
		}
		if rc.Battle.SweepIntervalSeconds > 0 {
			cfg.SweepInterval = time.Duration(rc.Battle.SweepIntervalSeconds) * time.Second
		}
	}
}

func applyEnv(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	if ov.DBPath != "" {
		cfg.DBPath = ov.DBPath
	}
	if ov.Address != "" {
		cfg.ServerAddress = ov.Address
	}
	if ov.RosterPath != "" {
		cfg.RosterPath = ov.RosterPath
	}
	return nil
}

func (c *Config) validate() error {
	if c.CritThreshold < 2 || c.CritThreshold > 20 {
		return fmt.Errorf("crit_threshold must be in [2,20], got %d", c.CritThreshold)
	}
	if c.CritMultiplier < 1 {
		return fmt.Errorf("crit_multiplier must be >= 1, got %v", c.CritMultiplier)
	}
	if c.DamageDieSides < 2 {
		return fmt.Errorf("damage_die_sides must be >= 2, got %d", c.DamageDieSides)
	}
	if len(c.ClassBaseHealth) == 0 {
		return fmt.Errorf("class_base_health is empty")
	}
	return nil
}

// Params exposes the combat tunables in the shape the resolver consumes.
func (c *Config) Params() engine.Params {
	return engine.Params{
		CritThreshold:  c.CritThreshold,
		CritMultiplier: c.CritMultiplier,
		BaseArmorClass: c.BaseArmorClass,
		DamageDieSides: c.DamageDieSides,
	}
}

// BaseHealthFor returns the configured base health for a class, with a
// conservative fallback for classes the config does not know.
func (c *Config) BaseHealthFor(classID string) int {
	if hp, ok := c.ClassBaseHealth[classID]; ok {
		return hp
	}
	return 10
}
