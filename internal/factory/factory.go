package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tobyv/guesswho/internal/dependencies/clock"
	"github.com/tobyv/guesswho/internal/dependencies/random"
	"github.com/tobyv/guesswho/internal/services/catalog"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/services/session"
	"github.com/tobyv/guesswho/internal/storage"
	"github.com/tobyv/guesswho/internal/storage/memory"
	redisstorage "github.com/tobyv/guesswho/internal/storage/redis"
	"github.com/tobyv/guesswho/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	CatalogService   *catalog.Service
	RoomController   *room.Controller
	SessionDirectory *session.Directory
	HubManager       *ws.HubManager
	Gateway          *ws.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// CatalogPath is the path to a character catalog file (optional)
	// If empty, the embedded default catalog is used
	CatalogPath string
	// RoomConfig holds room controller settings (optional)
	// If zero value, defaults to room.DefaultConfig()
	RoomConfig room.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired and the
// character catalog loaded
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	roomCfg := cfg.RoomConfig
	if roomCfg.CharactersPerRoom == 0 {
		roomCfg = room.DefaultConfig()
	}

	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, roomCfg, logger)

	if cfg.CatalogPath != "" {
		if err := app.CatalogService.LoadFromFile(ctx, cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("loading catalog from %s: %w", cfg.CatalogPath, err)
		}
	} else if err := app.CatalogService.LoadDefault(ctx); err != nil {
		return nil, fmt.Errorf("loading default catalog: %w", err)
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, roomCfg room.Config, logger *slog.Logger) *App {
	catalogService := catalog.New(store, rnd)
	roomController := room.NewController(store, catalogService, clk, rnd, roomCfg, logger)
	sessionDirectory := session.NewDirectory(clk)
	hubManager := ws.NewHubManager(logger)
	gateway := ws.NewGateway(roomController, sessionDirectory, hubManager, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		CatalogService:   catalogService,
		RoomController:   roomController,
		SessionDirectory: sessionDirectory,
		HubManager:       hubManager,
		Gateway:          gateway,
	}
}
