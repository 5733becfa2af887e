package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-polyglot/internal/runtimeconfig"
	"github.com/goliatone/go-polyglot/internal/storage"
	"github.com/goliatone/go-polyglot/pkg/testsupport"
)

func TestWithForeignKeys(t *testing.T) {
	cases := map[string]string{
		"file:test.db":                      "file:test.db?_foreign_keys=on",
		"file:test.db?cache=shared":         "file:test.db?cache=shared&_foreign_keys=on",
		"file:test.db?_foreign_keys=off":    "file:test.db?_foreign_keys=off",
		"file:test.db?mode=memory&_fk=true": "file:test.db?mode=memory&_fk=true",
	}
	for in, want := range cases {
		if got := storage.WithForeignKeys(in); got != want {
			t.Fatalf("WithForeignKeys(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithImmediateTx(t *testing.T) {
	cases := map[string]string{
		"file:test.db":                   "file:test.db?_txlock=immediate",
		"file:test.db?_foreign_keys=on":  "file:test.db?_foreign_keys=on&_txlock=immediate",
		"file:test.db?_txlock=exclusive": "file:test.db?_txlock=exclusive",
	}
	for in, want := range cases {
		if got := storage.WithImmediateTx(in); got != want {
			t.Fatalf("WithImmediateTx(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := testsupport.NewBunDB(t)
	ctx := context.Background()

	insert := func(id string) error {
		_, err := db.ExecContext(ctx, "INSERT INTO tags (id, name) VALUES (?, ?)", id, "dup")
		return err
	}
	if err := insert("a"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := insert("b"); !storage.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if storage.IsUniqueViolation(errors.New("other")) || storage.IsUniqueViolation(nil) {
		t.Fatal("expected unrelated errors to be ignored")
	}
}

func TestForUpdateOutsideTransaction(t *testing.T) {
	if storage.ForUpdate(testsupport.NewBunDB(t)) {
		t.Fatal("expected no row lock outside a transaction")
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	if got := storage.LikePattern("50%_Off!"); got != "%50!%!_off!!%" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := storage.LikePattern(""); got != "%%" {
		t.Fatalf("unexpected empty pattern %q", got)
	}
}

func TestOpenRejectsUnknownProvider(t *testing.T) {
	_, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Provider: "oracle", DSN: "x"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenSQLiteAndMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, runtimeconfig.StorageConfig{
		Provider:     "sqlite",
		DSN:          "file:storage_open_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	first, err := storage.Migrate(ctx, db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if first.Empty() {
		t.Fatal("expected first migration run to apply migrations")
	}
	second, err := storage.Migrate(ctx, db)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !second.Empty() {
		t.Fatalf("expected no pending migrations, got %v", second.Migrations)
	}

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign keys enabled, got %d", fk)
	}
}

func TestUnicodeLowerIsRegistered(t *testing.T) {
	db := testsupport.NewBunDB(t)
	var lowered string
	if err := db.QueryRowContext(context.Background(), "SELECT unicode_lower('ПРИВІТ Hello')").Scan(&lowered); err != nil {
		t.Fatalf("unicode_lower: %v", err)
	}
	if lowered != "привіт hello" {
		t.Fatalf("expected unicode lowering, got %q", lowered)
	}
	if storage.LowerFunc(db) != "unicode_lower" {
		t.Fatalf("expected sqlite lower func, got %s", storage.LowerFunc(db))
	}
}

func TestRollbackRevertsLastGroup(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)

	result, err := storage.Rollback(ctx, db)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected rollback to revert migrations")
	}
	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'posts'").Scan(&count)
	if err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 0 {
		t.Fatal("expected posts table to be dropped")
	}
}
