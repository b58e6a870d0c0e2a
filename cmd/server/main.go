package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/teambalancer/internal/api"
	"github.com/mcoot/teambalancer/internal/factory"
	redisstorage "github.com/mcoot/teambalancer/internal/storage/redis"
	"github.com/mcoot/teambalancer/internal/web"
)

// defaultHubCleanupInterval is how often idle room fan-out is released
const defaultHubCleanupInterval = 5 * time.Minute

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env", slog.String("error", err.Error()))
	}

	// Build factory config from environment
	cfg, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		Registry:       app.Registry,
		Chat:           app.Chat,
		Relay:          app.Relay,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		Relay:          app.Relay,
		StaticDir:      findStaticDir(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	// Create server
	serverConfig, err := api.ServerConfigFromEnv()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	server := api.NewServer(mux, serverConfig, logger)

	sweepInterval, err := durationFromEnv("HUB_CLEANUP_INTERVAL", defaultHubCleanupInterval)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.RunMaintenance(ctx, sweepInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("bus", cfg.BusType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// configFromEnv reads STORAGE_TYPE, REDIS_URL, ROOM_TTL, DATABASE_URL and BUS_TYPE
func configFromEnv(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: getEnvOrDefault("STORAGE_TYPE", factory.StorageTypeMemory),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BusType:     os.Getenv("BUS_TYPE"),
	}

	// Configure Redis if storage or bus uses it
	if cfg.StorageType == factory.StorageTypeRedis || cfg.BusType == factory.BusTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE or BUS_TYPE is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL

		if ttl := os.Getenv("ROOM_TTL"); ttl != "" {
			d, err := time.ParseDuration(ttl)
			if err != nil {
				return cfg, fmt.Errorf("ROOM_TTL: %w", err)
			}
			redisCfg.RoomTTL = d
		}
		cfg.RedisConfig = &redisCfg
	}

	if cfg.StorageType == factory.StorageTypeSQLite && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL required when STORAGE_TYPE=sqlite")
	}

	return cfg, nil
}

func durationFromEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	// Try common locations
	candidates := []string{
		"internal/web/static",
		"./internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	// Default to relative path
	return "internal/web/static"
}
