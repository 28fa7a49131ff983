// Package main runs the embedded schema migrations against the configured database.
//
// Usage:
//
//	migrate -command up
//	migrate -command status
//	migrate -command down [-target N]
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/ninjainc/waitlist/internal/config"
	"github.com/ninjainc/waitlist/internal/migrate"
	"github.com/ninjainc/waitlist/internal/redact"
)

func main() {
	command := flag.String("command", "up", "migration command: up, status or down")
	target := flag.Int64("target", -1, "down: roll back to this version (default: only the latest migration)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(*command, *target, *timeout, logger); err != nil {
		logger.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(command string, target int64, timeout time.Duration, logger *slog.Logger) error {
	switch command {
	case "up", "status", "down":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dsn := cfg.ConnectionString()
	if dsn == "" {
		return fmt.Errorf("database not configured: set DATABASE_URL or NEON_DATABASE_URL")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %s", redact.Error(err, dsn))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to %s: %s", redact.URL(dsn), redact.Error(err, dsn))
	}

	runner, err := migrate.New(db, logger)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		return runner.Up(ctx)
	case "status":
		_, err := runner.Status(ctx)
		return err
	default:
		return runner.Down(ctx, target)
	}
}
