// Package migrate applies the embedded schema migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/ninjainc/waitlist/migrations"
)

// Runner wraps database migration capabilities.
type Runner struct {
	provider *goose.Provider
	log      *slog.Logger
	timeout  time.Duration
}

// New returns a migration runner over db using the embedded migrations.
func New(db *sql.DB, log *slog.Logger) (*Runner, error) {
	return NewWithFS(db, migrations.FS, log)
}

// NewWithFS returns a migration runner reading migrations from the root of fsys.
func NewWithFS(db *sql.DB, fsys fs.FS, log *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("nil database provided")
	}
	if log == nil {
		log = slog.Default()
	}

	// Instances booting together against an empty database serialize on a
	// Postgres advisory lock instead of racing on goose_db_version.
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("configure migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys,
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		return nil, fmt.Errorf("configure goose: %w", err)
	}

	return &Runner{provider: provider, log: log, timeout: time.Minute}, nil
}

// Up applies pending migrations. Applying to an up-to-date schema is a no-op.
func (r *Runner) Up(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.provider.Up(runCtx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		r.log.Info("migration applied",
			"version", res.Source.Version,
			"path", res.Source.Path,
			"duration", res.Duration,
		)
	}
	if len(results) == 0 {
		r.log.Debug("schema up to date")
	}
	return nil
}

// Status logs applied and pending migrations and returns them.
func (r *Runner) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	for _, st := range statuses {
		attrs := []any{"version", st.Source.Version, "path", st.Source.Path, "state", string(st.State)}
		if !st.AppliedAt.IsZero() {
			attrs = append(attrs, "applied_at", st.AppliedAt)
		}
		r.log.Info("migration status", attrs...)
	}
	return statuses, nil
}

// Down rolls back the latest migration when targetVersion is negative,
// otherwise every migration above targetVersion (0 rolls back everything).
func (r *Runner) Down(ctx context.Context, targetVersion int64) error {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if targetVersion >= 0 {
		r.log.Info("rolling back migrations", "target", targetVersion)
		if _, err := r.provider.DownTo(runCtx, targetVersion); err != nil {
			return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
		}
	} else {
		r.log.Info("rolling back latest migration")
		if _, err := r.provider.Down(runCtx); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
	}

	r.log.Info("rollback complete")
	return nil
}
