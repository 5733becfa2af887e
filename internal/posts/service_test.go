package posts_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/testsupport"
)

type fixture struct {
	repo  posts.Repository
	posts posts.Service
	tags  tags.Service
}

type backend struct {
	name  string
	build func(t *testing.T) fixture
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			build: func(t *testing.T) fixture {
				registry := languages.NewRegistry(languages.NewMemoryRepository())
				seed(t, registry)
				tagRepo := tags.NewMemoryRepository()
				postRepo := posts.NewMemoryRepository(tagRepo)
				return newFixture(postRepo, tagRepo, registry)
			},
		},
		{
			name: "bun",
			build: func(t *testing.T) fixture {
				db := testsupport.NewBunDB(t)
				registry := languages.NewRegistry(languages.NewBunRepository(db))
				seed(t, registry)
				return newFixture(posts.NewBunRepository(db), tags.NewBunRepository(db), registry)
			},
		},
	}
}

func newFixture(postRepo posts.Repository, tagRepo tags.Repository, registry languages.Registry) fixture {
	return fixture{
		repo:  postRepo,
		posts: posts.NewService(postRepo, registry, posts.WithClock(steppingClock())),
		tags:  tags.NewService(tagRepo, registry, tags.WithClock(steppingClock())),
	}
}

func seed(t *testing.T, registry languages.Registry) {
	t.Helper()
	_, err := registry.Seed(context.Background(), []languages.Definition{
		{Prefix: "ua", Name: "Ukrainian"},
		{Prefix: "ru", Name: "Russian"},
		{Prefix: "en", Name: "English"},
	})
	if err != nil {
		t.Fatalf("seed languages: %v", err)
	}
}

func steppingClock() func() time.Time {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func eachBackend(t *testing.T, fn func(t *testing.T, f fixture)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) { fn(t, b.build(t)) })
	}
}

func input(title string) posts.TranslationInput {
	return posts.TranslationInput{
		Title:       title,
		Description: "Description of " + title,
		Content:     "Content body for " + title,
	}
}

func mustTag(t *testing.T, f fixture, lang, name string) *tags.Tag {
	t.Helper()
	tag, err := f.tags.Create(context.Background(), tags.CreateTagRequest{Language: lang, Name: name, Title: "Title " + name})
	if err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func mustPost(t *testing.T, f fixture, lang, title string, tagIDs ...uuid.UUID) *posts.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), posts.CreatePostRequest{Language: lang, Translation: input(title), TagIDs: tagIDs})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return verr.Fields
}

func linkedTags(t *testing.T, f fixture, postID uuid.UUID) []uuid.UUID {
	t.Helper()
	ids, err := f.repo.Stores().Associations().ListTagIDs(context.Background(), postID)
	if err != nil {
		t.Fatalf("list tag ids: %v", err)
	}
	return ids
}

func TestPostScenario(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		tag := mustTag(t, f, "ua", "news")

		created := mustPost(t, f, "ua", "Перший пост", tag.ID)
		if len(created.Tags) != 1 || created.Tags[0].ID != tag.ID {
			t.Fatalf("expected tag on created post, got %+v", created.Tags)
		}
		if created.Tags[0].Translations[0].Language != "ua" {
			t.Fatalf("expected ua tag translation, got %+v", created.Tags[0].Translations)
		}

		if _, err := f.posts.Get(ctx, "ru", created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ru to be missing, got %v", err)
		}

		updated, err := f.posts.Update(ctx, posts.UpdatePostRequest{
			Language:    "ru",
			ID:          created.ID,
			Translation: input("Первый пост"),
			TagIDs:      []uuid.UUID{},
		})
		if err != nil {
			t.Fatalf("update ru: %v", err)
		}
		if len(updated.Tags) != 0 || len(linkedTags(t, f, created.ID)) != 0 {
			t.Fatalf("expected associations cleared, got %+v", updated.Tags)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Fatal("expected updated_at to move forward")
		}
		for lang, title := range map[string]string{"ua": "Перший пост", "ru": "Первый пост"} {
			got, err := f.posts.Get(ctx, lang, created.ID)
			if err != nil {
				t.Fatalf("get %s: %v", lang, err)
			}
			if got.Translations[0].Title != title {
				t.Fatalf("expected %s title %q, got %q", lang, title, got.Translations[0].Title)
			}
		}

		outcome, err := f.posts.Delete(ctx, "en", created.ID)
		if err != nil {
			t.Fatalf("delete en: %v", err)
		}
		if outcome.Removed || outcome.Remaining != 2 || outcome.SoftDeleted() {
			t.Fatalf("expected no-op delete, got %+v", outcome)
		}
		if _, err := f.posts.Get(ctx, "ua", created.ID); err != nil {
			t.Fatalf("expected post to survive no-op delete, got %v", err)
		}
	})
}

func TestPostUpdateOverwritesInPlace(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		created := mustPost(t, f, "en", "Original")

		for i := range 3 {
			if _, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: "en", ID: created.ID, Translation: input(fmt.Sprintf("Rewrite %d", i))}); err != nil {
				t.Fatalf("update en %d: %v", i, err)
			}
		}
		for _, lang := range []string{"ua", "ru"} {
			if _, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: lang, ID: created.ID, Translation: input("Added " + lang)}); err != nil {
				t.Fatalf("update %s: %v", lang, err)
			}
		}

		got, err := f.posts.Get(ctx, "en", created.ID)
		if err != nil {
			t.Fatalf("get en: %v", err)
		}
		if got.Translations[0].Title != "Rewrite 2" {
			t.Fatalf("expected last write to win, got %q", got.Translations[0].Title)
		}
		if got.Translations[0].ID != created.Translations[0].ID {
			t.Fatal("expected the en translation row to be updated in place")
		}

		rows, err := f.repo.Stores().Translations().ListByEntity(ctx, created.ID)
		if err != nil {
			t.Fatalf("list translations: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected three translations, got %d", len(rows))
		}

		partial, err := f.posts.Delete(ctx, "en", created.ID)
		if err != nil {
			t.Fatalf("delete en: %v", err)
		}
		if !partial.Removed || partial.Remaining != 2 {
			t.Fatalf("expected two remaining, got %+v", partial)
		}
		if _, err := f.posts.Get(ctx, "en", created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected en gone, got %v", err)
		}
		for _, lang := range []string{"ua", "ru"} {
			if _, err := f.posts.Get(ctx, lang, created.ID); err != nil {
				t.Fatalf("expected %s to survive, got %v", lang, err)
			}
		}
	})
}

func TestPostDeleteLastTranslationSoftDeletes(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		tag := mustTag(t, f, "ua", "lonely")
		created := mustPost(t, f, "ua", "Only one", tag.ID)

		outcome, err := f.posts.Delete(ctx, "ua", created.ID)
		if err != nil {
			t.Fatalf("delete ua: %v", err)
		}
		if !outcome.SoftDeleted() || outcome.Remaining != 0 {
			t.Fatalf("expected soft delete, got %+v", outcome)
		}
		if got := outcome.Message(); got != "post fully removed" {
			t.Fatalf("unexpected message %q", got)
		}
		if ids := linkedTags(t, f, created.ID); len(ids) != 0 {
			t.Fatalf("expected associations cleared, got %v", ids)
		}
		for _, lang := range []string{"ua", "ru", "en"} {
			if _, err := f.posts.Get(ctx, lang, created.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected not found in %s, got %v", lang, err)
			}
		}
		if _, err := f.posts.Delete(ctx, "ua", created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected repeated delete to be not found, got %v", err)
		}
		if _, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: "ua", ID: created.ID, Translation: input("Revived")}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected update of soft deleted post to be not found, got %v", err)
		}
		page, err := f.posts.List(ctx, "ua", 1)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 0 {
			t.Fatalf("expected soft deleted post to be hidden, got %+v", page)
		}
	})
}

func TestPostDeleteMissingLanguageKeepsPost(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		tag := mustTag(t, f, "ua", "kept-link")
		created := mustPost(t, f, "ua", "Only in ua", tag.ID)

		outcome, err := f.posts.Delete(ctx, "en", created.ID)
		if err != nil {
			t.Fatalf("delete en: %v", err)
		}
		if outcome.Removed || outcome.Remaining != 1 || outcome.State != domain.StateActive {
			t.Fatalf("expected nothing removed and an active post, got %+v", outcome)
		}
		if got := outcome.Message(); got != "no en translation, 1 remaining" {
			t.Fatalf("unexpected message %q", got)
		}
		got, err := f.posts.Get(ctx, "ua", created.ID)
		if err != nil {
			t.Fatalf("expected ua to survive, got %v", err)
		}
		if len(got.Tags) != 1 || got.Tags[0].ID != tag.ID {
			t.Fatalf("expected associations untouched, got %+v", got.Tags)
		}
	})
}

func TestPostTagAssociationRule(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		first := mustTag(t, f, "en", "first")
		second := mustTag(t, f, "en", "second")

		created := mustPost(t, f, "en", "Tagged", first.ID, first.ID, second.ID)
		if len(created.Tags) != 2 {
			t.Fatalf("expected duplicate ids to collapse, got %d tags", len(created.Tags))
		}
		if created.Tags[0].ID != first.ID || created.Tags[1].ID != second.ID {
			t.Fatalf("expected tags in creation order, got %+v", created.Tags)
		}

		kept, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: "en", ID: created.ID, Translation: input("Tagged again")})
		if err != nil {
			t.Fatalf("update without tags: %v", err)
		}
		if len(kept.Tags) != 2 {
			t.Fatalf("expected nil tags to keep the set, got %d", len(kept.Tags))
		}

		replaced, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: "en", ID: created.ID, Translation: input("Tagged again"), TagIDs: []uuid.UUID{second.ID}})
		if err != nil {
			t.Fatalf("update with tags: %v", err)
		}
		if len(replaced.Tags) != 1 || replaced.Tags[0].ID != second.ID {
			t.Fatalf("expected the set to be replaced, got %+v", replaced.Tags)
		}
	})
}

func TestPostRejectsUnknownTags(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		tag := mustTag(t, f, "ua", "known")

		_, err := f.posts.Create(ctx, posts.CreatePostRequest{Language: "ua", Translation: input("Broken"), TagIDs: []uuid.UUID{tag.ID, uuid.New()}})
		fields := validationFields(t, err)
		if got := fields["tags.1.id"]; len(got) != 1 || got[0] != "The selected tags.1.id is invalid." {
			t.Fatalf("expected tags.1.id error, got %v", fields)
		}
		if _, ok := fields["tags.0.id"]; ok {
			t.Fatalf("expected known tag to pass, got %v", fields)
		}

		page, err := f.posts.List(ctx, "ua", 1)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 0 {
			t.Fatalf("expected failed create to leave nothing behind, got %d posts", page.Total)
		}

		if _, err := f.tags.Delete(ctx, "ua", tag.ID); err != nil {
			t.Fatalf("delete tag: %v", err)
		}
		_, err = f.posts.Create(ctx, posts.CreatePostRequest{Language: "ua", Translation: input("Broken"), TagIDs: []uuid.UUID{tag.ID}})
		if len(validationFields(t, err)["tags.0.id"]) == 0 {
			t.Fatal("expected soft deleted tag to be rejected")
		}
	})
}

func TestPostViewFiltersTags(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		uaOnly := mustTag(t, f, "ua", "ua-only")
		removed := mustTag(t, f, "ua", "removed")
		created := mustPost(t, f, "ua", "Filtered", uaOnly.ID, removed.ID)
		if _, err := f.posts.Update(ctx, posts.UpdatePostRequest{Language: "ru", ID: created.ID, Translation: input("Фильтр")}); err != nil {
			t.Fatalf("update ru: %v", err)
		}

		ru, err := f.posts.Get(ctx, "ru", created.ID)
		if err != nil {
			t.Fatalf("get ru: %v", err)
		}
		if len(ru.Tags) != 0 {
			t.Fatalf("expected tags without ru translation to be hidden, got %+v", ru.Tags)
		}

		if _, err := f.tags.Delete(ctx, "ua", removed.ID); err != nil {
			t.Fatalf("delete tag: %v", err)
		}
		ua, err := f.posts.Get(ctx, "ua", created.ID)
		if err != nil {
			t.Fatalf("get ua: %v", err)
		}
		if len(ua.Tags) != 1 || ua.Tags[0].ID != uaOnly.ID {
			t.Fatalf("expected soft deleted tag to be hidden, got %+v", ua.Tags)
		}
		if ids := linkedTags(t, f, created.ID); len(ids) != 2 {
			t.Fatalf("expected tag delete to keep associations, got %v", ids)
		}
	})
}

func TestPostValidation(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		_, err := f.posts.Create(ctx, posts.CreatePostRequest{Language: "ua", Translation: posts.TranslationInput{Title: "ab", Description: "  abcd ", Content: ""}})
		fields := validationFields(t, err)
		for _, key := range []string{"translations.title", "translations.description", "translations.content"} {
			if len(fields[key]) == 0 {
				t.Fatalf("expected %s error, got %v", key, fields)
			}
		}

		if _, err := f.posts.Create(ctx, posts.CreatePostRequest{Language: "pl", Translation: input("Valid")}); !errors.Is(err, domain.ErrInvalidLanguage) {
			t.Fatalf("expected ErrInvalidLanguage, got %v", err)
		}
		if _, err := f.posts.Get(ctx, "ua", uuid.New()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestPostListPaginatesByLanguage(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		tag := mustTag(t, f, "ua", "paged")
		for i := range 12 {
			mustPost(t, f, "ua", fmt.Sprintf("Post %02d", i), tag.ID)
		}
		mustPost(t, f, "en", "English only")

		first, err := f.posts.List(ctx, "ua", -3)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if first.CurrentPage != 1 || first.Total != 12 || first.LastPage != 2 || len(first.Data) != 10 {
			t.Fatalf("unexpected first page %+v", first)
		}
		if first.Data[0].Translations[0].Title != "Post 00" {
			t.Fatalf("expected creation order, got %q", first.Data[0].Translations[0].Title)
		}
		second, err := f.posts.List(ctx, "ua", 2)
		if err != nil {
			t.Fatalf("list page 2: %v", err)
		}
		if len(second.Data) != 2 || second.Data[1].Translations[0].Title != "Post 11" {
			t.Fatalf("unexpected second page %+v", second.Data)
		}
		for _, post := range second.Data {
			if len(post.Tags) != 1 || post.Tags[0].ID != tag.ID {
				t.Fatalf("expected tag on listed post, got %+v", post.Tags)
			}
		}

		empty, err := f.posts.List(ctx, "ru", 1)
		if err != nil {
			t.Fatalf("list ru: %v", err)
		}
		if empty.Total != 0 || len(empty.Data) != 0 || empty.LastPage != 1 {
			t.Fatalf("unexpected ru page %+v", empty)
		}
	})
}

func collect(t *testing.T, f fixture, lang, term string) []posts.SearchHit {
	t.Helper()
	seq, err := f.posts.Search(context.Background(), lang, term)
	if err != nil {
		t.Fatalf("search %q: %v", term, err)
	}
	var hits []posts.SearchHit
	for hit, err := range seq {
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		hits = append(hits, hit)
	}
	return hits
}

func TestPostSearch(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		byTitle, err := f.posts.Create(ctx, posts.CreatePostRequest{Language: "ua", Translation: posts.TranslationInput{
			Title: "Привіт Світ", Description: "Звичайний опис", Content: "Зміст без збігів",
		}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		byContent, err := f.posts.Create(ctx, posts.CreatePostRequest{Language: "ua", Translation: posts.TranslationInput{
			Title: "Other", Description: "Plain text", Content: "The word світ hides here, 100% sure",
		}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		gone := mustPost(t, f, "ua", "Світ removed")
		if _, err := f.posts.Delete(ctx, "ua", gone.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		mustPost(t, f, "en", "Світ in english")

		hits := collect(t, f, "ua", "СВІТ")
		if len(hits) != 2 {
			t.Fatalf("expected two hits, got %+v", hits)
		}
		if hits[0].PostID != byTitle.ID || hits[0].Title != "Привіт Світ" || hits[1].PostID != byContent.ID {
			t.Fatalf("unexpected hits %+v", hits)
		}

		if got := collect(t, f, "ua", "plain TEXT"); len(got) != 1 || got[0].PostID != byContent.ID {
			t.Fatalf("expected description hit, got %+v", got)
		}
		if got := collect(t, f, "ua", "100%"); len(got) != 1 {
			t.Fatalf("expected literal percent match, got %+v", got)
		}
		if got := collect(t, f, "ua", "1_0"); len(got) != 0 {
			t.Fatalf("expected underscore to be literal, got %+v", got)
		}
		if got := collect(t, f, "ua", "missing"); len(got) != 0 {
			t.Fatalf("expected no hits, got %+v", got)
		}
		if got := collect(t, f, "ua", ""); len(got) != 2 {
			t.Fatalf("expected empty term to match every live row, got %+v", got)
		}

		if _, err := f.posts.Search(ctx, "de", "x"); !errors.Is(err, domain.ErrInvalidLanguage) {
			t.Fatalf("expected ErrInvalidLanguage, got %v", err)
		}
	})
}

func TestPostSearchCannotRestart(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		mustPost(t, f, "en", "Searchable")
		seq, err := f.posts.Search(context.Background(), "en", "search")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		var first int
		for _, err := range seq {
			if err != nil {
				t.Fatalf("first range: %v", err)
			}
			first++
		}
		if first != 1 {
			t.Fatalf("expected one hit, got %d", first)
		}
		for _, err := range seq {
			if !errors.Is(err, domain.ErrCursorConsumed) {
				t.Fatalf("expected ErrCursorConsumed, got %v", err)
			}
		}
	})
}

func TestPostPurgeDeleted(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		gone := mustPost(t, f, "ua", "Gone soon")
		kept := mustPost(t, f, "ua", "Kept")
		if _, err := f.posts.Delete(ctx, "ua", gone.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}

		none, err := f.posts.PurgeDeleted(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("purge: %v", err)
		}
		if none != 0 {
			t.Fatalf("expected cutoff to protect recent deletes, got %d", none)
		}
		purged, err := f.posts.PurgeDeleted(ctx, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("purge: %v", err)
		}
		if purged != 1 {
			t.Fatalf("expected one purged post, got %d", purged)
		}
		if _, err := f.posts.Get(ctx, "ua", kept.ID); err != nil {
			t.Fatalf("expected kept post, got %v", err)
		}
	})
}

func TestPostAtomicRollsBack(t *testing.T) {
	eachBackend(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		boom := errors.New("boom")
		id := uuid.New()
		now := time.Now().UTC()

		err := f.repo.Atomic(ctx, func(ctx context.Context, stores posts.Stores) error {
			if _, err := stores.Posts().Create(ctx, &posts.Post{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := f.repo.Stores().Posts().GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected rollback to discard the post, got %v", err)
		}
	})
}
