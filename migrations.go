package polyglot

import (
	"context"
	"io/fs"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/storage"
)

// MigrationResult summarises an applied or rolled back migration group.
type MigrationResult = storage.MigrationResult

// Migrate applies the embedded schema migrations for the dialect of db.
func Migrate(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	return storage.Migrate(ctx, db)
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	return storage.Rollback(ctx, db)
}

// GetMigrationsFS returns the embedded migrations for "sqlite" or "postgres".
func GetMigrationsFS(dialect string) (fs.FS, error) {
	return storage.MigrationsFS(dialect)
}
