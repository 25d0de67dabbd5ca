// Command migrate applies the SQL files in migrations/ and records each one
// in schema_migrations so it runs only once.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/clinicmap/internal/pkg/config"
	"github.com/samirrijal/clinicmap/internal/pkg/logging"
)

const usage = "usage: migrate <up|status> [dir]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	dir := "migrations"
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	cfg, err := config.Load("clinicmap-migrate")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	if err := run(context.Background(), cfg.Database, os.Args[1], dir); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, db config.DatabaseConfig, cmd, dir string) error {
	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, db.DSN())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}
	todo := pending(files, applied)

	switch cmd {
	case "status":
		for _, f := range files {
			state := "applied"
			if !applied[version(f)] {
				state = "pending"
			}
			fmt.Printf("%-8s %s\n", state, version(f))
		}
		return nil
	case "up":
		for _, f := range todo {
			if err := apply(ctx, pool, f); err != nil {
				return err
			}
			slog.Info("migration applied", "version", version(f))
		}
		slog.Info("schema up to date", "applied", len(todo), "total", len(files))
		return nil
	default:
		return errors.New(usage)
	}
}

// migrationFiles lists dir/*.sql in lexical order.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func version(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".sql")
}

func pending(files []string, applied map[string]bool) []string {
	var out []string
	for _, f := range files {
		if !applied[version(f)] {
			out = append(out, f)
		}
	}
	return out
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// apply runs one file and records it in the same transaction.
func apply(ctx context.Context, pool *pgxpool.Pool, file string) error {
	sql, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("exec %s: %w", file, err)
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version(file))
		return err
	})
}
