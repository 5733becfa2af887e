package translations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/translations"
)

type note struct {
	ID         uuid.UUID
	NoteID     uuid.UUID
	LanguageID uuid.UUID
	Body       string
}

func (n *note) GetID() uuid.UUID         { return n.ID }
func (n *note) GetEntityID() uuid.UUID   { return n.NoteID }
func (n *note) GetLanguageID() uuid.UUID { return n.LanguageID }

func cloneNote(n *note) *note {
	copied := *n
	return &copied
}

func newStore() *translations.MemoryStore[*note] {
	return translations.NewMemoryStore[*note]("note_translation", cloneNote)
}

func upsertNote(t *testing.T, store translations.Store[*note], entity, lang uuid.UUID, body string) (*note, bool) {
	t.Helper()
	record, created, err := translations.Upsert(context.Background(), store, entity, lang,
		func() *note { return &note{ID: uuid.New(), NoteID: entity, LanguageID: lang, Body: body} },
		func(existing *note) { existing.Body = body },
	)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return record, created
}

func TestUpsertCreatesThenUpdatesInPlace(t *testing.T) {
	store := newStore()
	entity, lang := uuid.New(), uuid.New()

	first, created := upsertNote(t, store, entity, lang, "hello")
	if !created {
		t.Fatal("expected first upsert to create")
	}
	second, created := upsertNote(t, store, entity, lang, "hello again")
	if created {
		t.Fatal("expected second upsert to update")
	}
	if first.ID != second.ID {
		t.Fatalf("expected update in place, ids %s and %s", first.ID, second.ID)
	}

	rows, err := store.ListByEntity(context.Background(), entity)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Body != "hello again" {
		t.Fatalf("expected a single overwritten row, got %+v", rows)
	}
}

func TestRemoveCountsRemainingAndTransitionsState(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	entity := uuid.New()
	ua, ru, en := uuid.New(), uuid.New(), uuid.New()
	upsertNote(t, store, entity, ua, "ua")
	upsertNote(t, store, entity, ru, "ru")

	absent, err := translations.Remove(ctx, store, entity, en)
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if absent.Removed || absent.Remaining != 2 || absent.State() != domain.StateActive {
		t.Fatalf("expected no-op removal, got %+v", absent)
	}

	partial, err := translations.Remove(ctx, store, entity, ua)
	if err != nil {
		t.Fatalf("remove ua: %v", err)
	}
	if !partial.Removed || partial.Before != 2 || partial.Remaining != 1 || partial.State() != domain.StateActive {
		t.Fatalf("expected one remaining, got %+v", partial)
	}
	if _, err := store.FindByEntityAndLanguage(ctx, entity, ua); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ua translation gone, got %v", err)
	}

	last, err := translations.Remove(ctx, store, entity, ru)
	if err != nil {
		t.Fatalf("remove ru: %v", err)
	}
	if last.Remaining != 0 || last.State() != domain.StateSoftDeleted {
		t.Fatalf("expected soft delete transition, got %+v", last)
	}
}

func TestOutcomeMessages(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		removal translations.Removal
		want    string
	}{
		{translations.Removal{Before: 1, Removed: true, Remaining: 0}, "post fully removed"},
		{translations.Removal{Before: 3, Removed: true, Remaining: 2}, "ua translation removed, 2 remaining"},
		{translations.Removal{Before: 2, Removed: false, Remaining: 2}, "no ua translation, 2 remaining"},
	}
	for _, tc := range cases {
		outcome := translations.NewOutcome("post", id, "ua", tc.removal)
		if got := outcome.Message(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestMemoryStoreSnapshotRestore(t *testing.T) {
	store := newStore()
	entity, lang := uuid.New(), uuid.New()
	upsertNote(t, store, entity, lang, "before")

	snapshot := store.Snapshot()
	upsertNote(t, store, entity, lang, "after")
	upsertNote(t, store, entity, uuid.New(), "extra")
	store.Restore(snapshot)

	rows, _ := store.ListByEntity(context.Background(), entity)
	if len(rows) != 1 || rows[0].Body != "before" {
		t.Fatalf("expected snapshot state restored, got %+v", rows)
	}
}

func TestMemoryStoreRejectsDuplicateLanguage(t *testing.T) {
	store := newStore()
	entity, lang := uuid.New(), uuid.New()
	ctx := context.Background()
	if _, err := store.Create(ctx, &note{ID: uuid.New(), NoteID: entity, LanguageID: lang}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, &note{ID: uuid.New(), NoteID: entity, LanguageID: lang}); err == nil {
		t.Fatal("expected duplicate (entity, language) to be rejected")
	}
}
