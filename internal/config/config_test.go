package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":3001" {
		t.Errorf("expected default addr :3001, got %q", cfg.Addr)
	}
	if cfg.StorageType != "memory" {
		t.Errorf("expected default storage memory, got %q", cfg.StorageType)
	}
	if cfg.CharactersPerRoom != 25 {
		t.Errorf("expected 25 characters per room, got %d", cfg.CharactersPerRoom)
	}
	if cfg.RoomTTL != 24*time.Hour {
		t.Errorf("expected 24h room ttl, got %v", cfg.RoomTTL)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("expected 1h sweep interval, got %v", cfg.SweepInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("ROOM_TTL", "48h")
	t.Setenv("CHARACTERS_PER_ROOM", "16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %q", cfg.Addr)
	}
	if cfg.RoomTTL != 48*time.Hour {
		t.Errorf("expected 48h room ttl, got %v", cfg.RoomTTL)
	}
	if cfg.CharactersPerRoom != 16 {
		t.Errorf("expected 16 characters per room, got %d", cfg.CharactersPerRoom)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("ROOM_TTL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestRedisRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when STORAGE_TYPE=redis without REDIS_URL")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	if _, err := Load(); err != nil {
		t.Fatalf("load with redis url: %v", err)
	}
}

func TestZeroValuesRejected(t *testing.T) {
	t.Setenv("CHARACTERS_PER_ROOM", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero characters per room")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
