package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-polyglot/internal/identity"
	"github.com/goliatone/go-polyglot/internal/runtimeconfig"
	"github.com/goliatone/go-polyglot/internal/storage"
)

var memoryDBCounter atomic.Int64

// DefaultLanguages mirrors the reference data seeded in production.
var DefaultLanguages = [][2]string{
	{"ua", "Ukrainian"},
	{"ru", "Russian"},
	{"en", "English"},
}

// NewSQLiteMemoryDB opens an isolated shared-cache in-memory SQLite database
// with foreign keys enabled and immediate transactions. Each call returns a distinct database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("polyglot_test_%d", memoryDBCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_txlock=immediate", name)
	return sql.Open(storage.SQLiteDriverName, dsn)
}

// NewBunDB returns a migrated bun handle over a fresh in-memory database.
// The handle is closed when the test ends.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()

	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	if _, err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewSQLiteFileDB opens a migrated file database through storage.Open with
// maxConns pooled connections, for tests that write concurrently.
func NewSQLiteFileDB(t testing.TB, maxConns int) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := storage.Open(ctx, runtimeconfig.StorageConfig{
		Provider:     storage.ProviderSQLite,
		DSN:          "file:" + filepath.Join(t.TempDir(), "polyglot.db"),
		MaxOpenConns: maxConns,
	})
	if err != nil {
		t.Fatalf("open sqlite file db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if _, err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedLanguages inserts DefaultLanguages with their deterministic ids.
func SeedLanguages(t testing.TB, db bun.IDB) {
	t.Helper()

	for _, lang := range DefaultLanguages {
		_, err := db.NewRaw(
			"INSERT INTO languages (id, prefix, name) VALUES (?, ?, ?)",
			identity.LanguageUUID(lang[0]).String(), lang[0], lang[1],
		).Exec(context.Background())
		if err != nil {
			t.Fatalf("seed language %s: %v", lang[0], err)
		}
	}
}
