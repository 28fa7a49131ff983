// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded in order before parsing; earlier files and the
// real environment take precedence.
var dotenvFiles = []string{".env.local", ".env"}

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL). Neither is required: a missing connection
	// string is reported per request, not at startup.
	DatabaseURL     string `env:"DATABASE_URL"`
	NeonDatabaseURL string `env:"NEON_DATABASE_URL"`
	DBMaxConns      int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns      int32  `env:"DB_MIN_CONNS" envDefault:"0"`

	// Cache (Redis). Empty disables the subscriber list cache.
	RedisURL     string        `env:"REDIS_URL"`
	ListCacheTTL time.Duration `env:"LIST_CACHE_TTL" envDefault:"5m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://ninja.inc,https://www.ninja.inc")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB, a signup is one field)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ConnectionString returns the PostgreSQL connection string.
// DATABASE_URL wins over NEON_DATABASE_URL. Empty means not configured.
func (c *Config) ConnectionString() string {
	if url := strings.TrimSpace(c.DatabaseURL); url != "" {
		return url
	}
	return strings.TrimSpace(c.NeonDatabaseURL)
}

// HasDatabase reports whether a connection string is configured.
func (c *Config) HasDatabase() bool {
	return c.ConnectionString() != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load reads optional dotenv files, then parses environment variables into a Config.
func Load() (*Config, error) {
	if err := loadDotenv(dotenvFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// loadDotenv loads each file that exists. godotenv never overrides
// variables that are already set.
func loadDotenv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}
