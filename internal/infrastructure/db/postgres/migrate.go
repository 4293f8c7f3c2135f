package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies every embedded migration for dir. Up runs in file order,
// down in reverse. Each file runs in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dir Direction, logger zerolog.Logger) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("unknown migration direction %q", dir)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*."+string(dir)+".sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	if dir == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := execMigration(ctx, pool, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		logger.Info().Str("file", strings.TrimPrefix(name, "migrations/")).Str("direction", string(dir)).Msg("migration applied")
	}
	return nil
}

func execMigration(ctx context.Context, pool *pgxpool.Pool, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, sql); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
