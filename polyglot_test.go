package polyglot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot"
	"github.com/goliatone/go-polyglot/domain"
	"github.com/goliatone/go-polyglot/pkg/testsupport"
)

func testConfig() polyglot.Config {
	cfg := polyglot.DefaultConfig()
	cfg.Logging.Provider = "noop"
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Provider = "oracle"

	if _, err := polyglot.New(cfg, polyglot.WithMemoryStorage()); !errors.Is(err, polyglot.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestNewOpensMigratesAndSeedsSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.DSN = "file:" + filepath.Join(t.TempDir(), "polyglot.db")

	module, err := polyglot.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	ctx := context.Background()
	list, err := module.Languages().List(ctx)
	if err != nil {
		t.Fatalf("list languages: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected seeded languages, got %d", len(list))
	}

	tag, err := module.Tags().Create(ctx, polyglot.CreateTagRequest{Language: "ua", Name: "first-tag", Title: "Title UA"})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	post, err := module.Posts().Create(ctx, polyglot.CreatePostRequest{
		Language:    "ua",
		Translation: polyglot.TranslationInput{Title: "Перший пост", Description: "Опис посту", Content: "Зміст посту"},
		TagIDs:      []uuid.UUID{tag.ID},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(post.Tags) != 1 {
		t.Fatalf("expected tag attached, got %+v", post.Tags)
	}

	if _, err := module.Posts().Get(ctx, "ru", post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found in ru, got %v", err)
	}
}

func TestNewRunsAgainstCallerDB(t *testing.T) {
	db := testsupport.NewBunDB(t)
	cfg := testConfig()
	cfg.Storage.AutoMigrate = false

	module, err := polyglot.New(cfg, polyglot.WithDB(db))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := module.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("expected caller db to stay open, got %v", err)
	}
}

func TestMemoryModuleServesHTTP(t *testing.T) {
	module, err := polyglot.New(testConfig(), polyglot.WithMemoryStorage())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if module.DB() != nil {
		t.Fatal("expected memory storage")
	}

	rec := httptest.NewRecorder()
	module.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/languages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if err := module.Commands().PurgeDeleted.Execute(context.Background(), polyglot.PurgeDeletedCommand{}); err != nil {
		t.Fatalf("purge: %v", err)
	}
}
