package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded migrations for the dialect directory
// ("sqlite" or "postgres").
func MigrationsFS(dir string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+dir)
}

// MigrationResult summarises an applied or rolled back migration group.
type MigrationResult struct {
	GroupID    int64
	Migrations []string
}

// Empty reports whether nothing was applied.
func (r MigrationResult) Empty() bool { return len(r.Migrations) == 0 }

// Migrate applies every pending migration for the dialect of db.
func Migrate(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return MigrationResult{}, err
	}
	if err := migrator.Lock(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("storage: lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("storage: migrate: %w", err)
	}
	return toResult(group), nil
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return MigrationResult{}, err
	}
	if err := migrator.Lock(ctx); err != nil {
		return MigrationResult{}, fmt.Errorf("storage: lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("storage: rollback: %w", err)
	}
	return toResult(group), nil
}

func newMigrator(ctx context.Context, db *bun.DB) (*migrate.Migrator, error) {
	dir := "postgres"
	if db.Dialect().Name() == dialect.SQLite {
		dir = "sqlite"
	}
	sub, err := MigrationsFS(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: migrations fs: %w", err)
	}
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, fmt.Errorf("storage: discover migrations: %w", err)
	}
	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("storage: init migrations: %w", err)
	}
	return migrator, nil
}

func toResult(group *migrate.MigrationGroup) MigrationResult {
	if group == nil || group.IsZero() {
		return MigrationResult{}
	}
	names := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		names = append(names, m.Name+"_"+m.Comment)
	}
	return MigrationResult{GroupID: group.ID, Migrations: names}
}
