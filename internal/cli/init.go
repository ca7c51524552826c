// Package cli provides common CLI initialization utilities shared by
// cmd/saldo, cmd/saldo-worker and cmd/saldoctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/backend"
	"saldo/internal/cache"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/services"
)

// SetupLogger initializes structured logging at the given level and makes it
// the process default.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// App bundles the ledger service with the resources it owns.
type App struct {
	Ledger  *services.Ledger
	Backend *backend.BackendResult
	Cache   *cache.Manager
}

// Close releases the backend and stops cache cleanup.
func (a *App) Close() error {
	if a.Cache != nil {
		a.Cache.Stop()
	}
	if a.Backend != nil && a.Backend.Cleanup != nil {
		return a.Backend.Cleanup()
	}
	return nil
}

// OpenLedger wires the configured backend, cache and forecast table into a
// ledger service. publisher may be nil.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, publisher services.Publisher) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		_ = closeBackend(res)
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	inc, err := cfg.Increments()
	if err != nil {
		_ = closeBackend(res)
		return nil, fmt.Errorf("forecast table: %w", err)
	}

	app := &App{Backend: res}
	var calendars cache.Cache[[]core.DayAggregate]
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithComponent(log.ComponentCache).Warn("Redis unavailable, using in-process cache", log.FieldError, err)
		} else {
			calendars = cache.NewRedisCache[[]core.DayAggregate](client, "saldo:calendar", cfg.CacheTTL)
		}
	}
	if calendars == nil {
		lru := cache.NewLRUCache[[]core.DayAggregate](24, cfg.CacheTTL)
		app.Cache = cache.NewManager()
		app.Cache.Register(lru)
		app.Cache.StartCleanup(time.Minute)
		calendars = lru
	}

	app.Ledger = services.NewLedger(res.Store, services.Options{
		Publisher:  publisher,
		Mode:       services.RollForwardMode(cfg.RollForwardMode),
		Increments: &inc,
		Location:   loc,
		Calendars:  calendars,
		Logger:     logger.WithComponent(log.ComponentLedger),
	})
	return app, nil
}

func closeBackend(res *backend.BackendResult) error {
	if res.Cleanup != nil {
		return res.Cleanup()
	}
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
