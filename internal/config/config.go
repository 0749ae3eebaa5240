package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration, parsed from the environment
type Config struct {
	// Addr is the HTTP listen address
	Addr string `env:"ADDR" envDefault:":3001"`

	// StorageType selects the storage backend ("memory" or "redis")
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	// RedisURL is the Redis connection URL (required when StorageType is "redis")
	RedisURL string `env:"REDIS_URL"`

	// CatalogPath points at a character catalog JSON file; empty uses the
	// embedded default set
	CatalogPath string `env:"CATALOG_PATH"`

	// CharactersPerRoom is the number of characters dealt to each room
	CharactersPerRoom int `env:"CHARACTERS_PER_ROOM" envDefault:"25"`
	// RoomTTL is how long an untouched room lives before the sweeper
	// evicts it
	RoomTTL time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	// SweepInterval is how often the sweeper scans for expired rooms
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StorageType == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
	}
	if c.CharactersPerRoom < 1 {
		return fmt.Errorf("CHARACTERS_PER_ROOM must be positive")
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("ROOM_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return nil
}

// SlogLevel maps the configured level onto slog's levels; unknown values
// fall back to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
