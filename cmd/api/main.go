// Package main is the entrypoint for the waitlist API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/ninjainc/waitlist/internal/cache"
	"github.com/ninjainc/waitlist/internal/config"
	"github.com/ninjainc/waitlist/internal/handler"
	"github.com/ninjainc/waitlist/internal/metrics"
	"github.com/ninjainc/waitlist/internal/middleware"
	"github.com/ninjainc/waitlist/internal/redact"
	"github.com/ninjainc/waitlist/internal/repository"
	"github.com/ninjainc/waitlist/internal/server"
	"github.com/ninjainc/waitlist/internal/service"
)

// startupTimeout bounds each dependency check at boot.
const startupTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	recorder := metrics.NewPrometheus()

	// Database. Missing or broken configuration is not fatal: the
	// subscriber endpoints report it per request.
	repo, dbConfigErr := connectDatabase(ctx, cfg, logger)

	// Cache is optional; without it listings always hit Postgres.
	cacheClient := connectCache(ctx, cfg, logger)

	opts := []service.Option{
		service.WithMetrics(recorder),
		service.WithLogger(logger),
	}
	if cacheClient != nil {
		opts = append(opts, service.WithCache(cacheClient))
	}
	if dbConfigErr != nil {
		opts = append(opts, service.WithConfigurationError(dbConfigErr))
	}

	// Avoid typed-nil interfaces: a nil *Repository must reach the
	// service as a nil Store.
	var (
		store    service.Store
		dbHealth handler.HealthChecker
		rdHealth handler.HealthChecker
	)
	if repo != nil {
		store = repo
		dbHealth = repo
	}
	if cacheClient != nil {
		rdHealth = cacheClient
	}

	subscriberService := service.NewSubscriberService(store, opts...)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:      logger,
		Subscribers: subscriberService,
		Health:      handler.NewHealthHandler(dbHealth, rdHealth),
		Metrics:     recorder.Handler(),
		CORS:        cors,
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run LIFO: redis closes before postgres.
	if repo != nil {
		srv.OnShutdown("postgres", func(ctx context.Context) error {
			repo.Close()
			return nil
		})
	}
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"database_configured", repo != nil,
		"cache_enabled", cacheClient != nil,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// connectDatabase builds the pool and prepares the schema. The repository
// is nil when no usable connection string is configured; the error is set
// only when one is present but cannot be parsed. An unreachable database
// is logged and retried lazily by the service.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Repository, error) {
	dsn := cfg.ConnectionString()
	if dsn == "" {
		logger.Warn("database not configured: set DATABASE_URL or NEON_DATABASE_URL")
		return nil, nil
	}

	repo, err := repository.New(ctx, dsn, repository.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("invalid database configuration",
			slog.String("error", redact.Error(err, dsn)),
			slog.String("database_url", redact.URL(dsn)),
		)
		return nil, errors.New(redact.Error(err, dsn))
	}

	checkCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := repo.Ping(checkCtx); err != nil {
		logger.Warn("database unreachable at startup",
			slog.String("error", redact.Error(err, dsn)),
			slog.String("database_url", redact.URL(dsn)),
		)
		return repo, nil
	}
	logger.Info("connected to database")

	if err := repo.EnsureSchema(checkCtx); err != nil {
		logger.Warn("schema check failed at startup", slog.String("error", redact.Error(err, dsn)))
	}
	return repo, nil
}

// connectCache returns nil when REDIS_URL is unset or Redis cannot be reached.
func connectCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) *cache.Cache {
	if cfg.RedisURL == "" {
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	c, err := cache.New(checkCtx, cfg.RedisURL, cfg.ListCacheTTL)
	if err != nil {
		logger.Warn("list cache disabled: failed to connect to Redis",
			slog.String("error", redact.Error(err, cfg.RedisURL)),
			slog.String("redis_url", redact.URL(cfg.RedisURL)),
		)
		return nil
	}
	logger.Info("connected to Redis", "list_cache_ttl", cfg.ListCacheTTL)
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
