package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teambalancer/internal/dependencies/clock"
	"github.com/mcoot/teambalancer/internal/dependencies/ids"
	"github.com/mcoot/teambalancer/internal/dependencies/random"
	"github.com/mcoot/teambalancer/internal/pubsub"
	memorybus "github.com/mcoot/teambalancer/internal/pubsub/memory"
	redisbus "github.com/mcoot/teambalancer/internal/pubsub/redis"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/chat"
	"github.com/mcoot/teambalancer/internal/services/registry"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/storage"
	"github.com/mcoot/teambalancer/internal/storage/memory"
	redisstorage "github.com/mcoot/teambalancer/internal/storage/redis"
	"github.com/mcoot/teambalancer/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Bus type constants
const (
	BusTypeMemory = "memory"
	BusTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage and fan-out
	Storage storage.Storage
	Bus     pubsub.Bus

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	RoomController *room.Controller
	Registry       *registry.Service
	Chat           *chat.Service
	Relay          *relay.Service

	logger      *slog.Logger
	ownedClient *redis.Client
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType or BusType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the SQLite database path or DSN (required if StorageType is "sqlite")
	DatabaseURL string
	// BusType selects how updates fan out ("memory" or "redis")
	// If empty, redis storage uses the redis bus and everything else the memory bus
	BusType string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	busType := cfg.BusType
	if busType == "" {
		busType = BusTypeMemory
		if storageType == StorageTypeRedis {
			busType = BusTypeRedis
		}
	}

	var (
		store       storage.Storage
		redisClient *redis.Client
		ownedClient *redis.Client
	)

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
		redisClient = redisStore.Client()
	case StorageTypeSQLite:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	var bus pubsub.Bus
	switch busType {
	case BusTypeMemory:
		bus = memorybus.New(logger)
	case BusTypeRedis:
		if redisClient == nil {
			if cfg.RedisConfig == nil {
				_ = store.Close()
				return nil, errors.New("RedisConfig required when BusType is redis")
			}
			opts, err := redis.ParseURL(cfg.RedisConfig.URL)
			if err != nil {
				_ = store.Close()
				return nil, err
			}
			redisClient = redis.NewClient(opts)
			ownedClient = redisClient
		}
		bus = redisbus.New(redisClient, logger)
	default:
		_ = store.Close()
		return nil, errors.New("invalid BusType: must be 'memory' or 'redis'")
	}

	logger.Info("application configured",
		slog.String("storage", storageType),
		slog.String("bus", busType),
	)

	// Processes sharing Redis share room locks; otherwise rooms only need local serialization
	var locker relay.Locker
	if redisClient != nil {
		locker = redisstorage.NewRoomLocker(redisClient, redisstorage.DefaultLockTTL, logger)
	}

	app := newWithDependencies(store, bus, locker, clock.New(), random.New(), ids.New(), logger)
	app.ownedClient = ownedClient
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, bus pubsub.Bus, locker relay.Locker, clk clock.Clock, rnd random.Random, gen ids.Generator, logger *slog.Logger) *App {
	roomController := room.NewController(store, clk, rnd, logger)
	registryService := registry.New(store, clk, gen, logger)
	chatService := chat.New(store, clk, gen, logger)
	relayService := relay.New(roomController, registryService, chatService, store, bus, clk, locker, logger)

	return &App{
		Storage:        store,
		Bus:            bus,
		Clock:          clk,
		Random:         rnd,
		IDs:            gen,
		RoomController: roomController,
		Registry:       registryService,
		Chat:           chatService,
		Relay:          relayService,
		logger:         logger,
	}
}

// hubSweeper is a bus that keeps per-room fan-out state in process
type hubSweeper interface {
	CleanupEmptyHubs()
	HubCount() int
}

// RunMaintenance releases fan-out state for rooms nobody is watching every
// interval until ctx is done. Buses without such state return immediately.
func (a *App) RunMaintenance(ctx context.Context, interval time.Duration) {
	sweeper, ok := a.Bus.(hubSweeper)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweeper.CleanupEmptyHubs()
			a.logger.Debug("hub sweep finished", slog.Int("hubs", sweeper.HubCount()))
		}
	}
}

// Close stops fan-out and releases storage
func (a *App) Close() error {
	err := errors.Join(a.Bus.Close(), a.Storage.Close())
	if a.ownedClient != nil {
		err = errors.Join(err, a.ownedClient.Close())
	}
	return err
}
