package tags_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/testsupport"
)

func TestTagInsertMapsUniqueNameToFieldError(t *testing.T) {
	ctx := context.Background()
	repo := tags.NewBunRepository(testsupport.NewBunDB(t))
	now := time.Now().UTC()

	store := repo.Stores().Tags()
	if _, err := store.Create(ctx, &tags.Tag{ID: uuid.New(), Name: "raced", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create(ctx, &tags.Tag{ID: uuid.New(), Name: "raced", CreatedAt: now, UpdatedAt: now})
	if got := validationFields(t, err)["name"]; len(got) == 0 || got[0] != "The name has already been taken." {
		t.Fatalf("expected name conflict, got %v", got)
	}
}

func TestTagConcurrentCreateSameName(t *testing.T) {
	const writers = 8
	db := testsupport.NewSQLiteFileDB(t, writers)
	registry := languages.NewRegistry(languages.NewBunRepository(db))
	seed(t, registry)
	svc := tags.NewService(tags.NewBunRepository(db), registry)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		failed    []error
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, tags.CreateTagRequest{Language: "ua", Name: "contested", Title: "Contested"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
				return
			}
			var verr *domain.ValidationError
			if errors.As(err, &verr) && len(verr.Fields["name"]) > 0 {
				conflicts++
				return
			}
			failed = append(failed, err)
		}()
	}
	wg.Wait()

	if len(failed) > 0 {
		t.Fatalf("expected only name conflicts, got %v", failed)
	}
	if created != 1 || conflicts != writers-1 {
		t.Fatalf("expected one winner and %d conflicts, got %d and %d", writers-1, created, conflicts)
	}
}
