// Package repository provides database access layer.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ninjainc/waitlist/internal/migrate"
)

// ErrNotConfigured is returned by New when no connection string is given.
var ErrNotConfigured = errors.New("database connection string is not configured")

// Options tunes the connection pool.
type Options struct {
	MaxConns int32
	MinConns int32
	Logger   *slog.Logger
}

// Repository provides database access methods.
// It is safe for concurrent use; all statements go through the pool.
type Repository struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new Repository with a connection pool.
// The pool connects lazily; use Ping to verify connectivity.
func New(ctx context.Context, databaseURL string, opts Options) (*Repository, error) {
	if databaseURL == "" {
		return nil, ErrNotConfigured
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		pool:   pool,
		db:     stdlib.OpenDBFromPool(pool),
		logger: logger,
	}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// EnsureSchema applies the embedded migrations through the shared pool.
// It is idempotent and leaves existing rows untouched.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	runner, err := migrate.New(r.db, r.logger)
	if err != nil {
		return err
	}
	return runner.Up(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	_ = r.db.Close()
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
