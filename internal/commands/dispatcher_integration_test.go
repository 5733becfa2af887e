package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/posts"
)

// flakyPosts fails PurgeDeleted until failures reaches zero.
type flakyPosts struct {
	posts.Service
	failures int
	attempts int
}

func (f *flakyPosts) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("database unavailable")
	}
	return f.Service.PurgeDeleted(ctx, before)
}

func subscribe(t *testing.T, set *Set, retries int) {
	t.Helper()
	subs := set.Subscribe(retries)
	if len(subs) != 3 {
		t.Fatalf("expected a subscription per handler, got %d", len(subs))
	}
	t.Cleanup(func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	})
}

func TestDispatchReachesSubscribedSet(t *testing.T) {
	f := newSetFixture(t)
	set := NewSet(f.deps)
	subscribe(t, set, 0)
	ctx := context.Background()

	if err := dispatcher.Dispatch(ctx, SeedLanguagesCommand{}); err != nil {
		t.Fatalf("dispatch seed: %v", err)
	}
	if _, err := f.registry.Resolve(ctx, "en"); err != nil {
		t.Fatalf("expected dispatched seed to create en, got %v", err)
	}

	var purged *PurgeResult
	err := dispatcher.Dispatch(ctx, PurgeDeletedCommand{
		ResultCallback: func(r PurgeResult) { purged = &r },
	})
	if err != nil {
		t.Fatalf("dispatch purge: %v", err)
	}
	if purged == nil {
		t.Fatal("expected purge result callback")
	}
}

func TestDispatchedPurgeRetriesUntilSuccess(t *testing.T) {
	f := newSetFixture(t)
	flaky := &flakyPosts{Service: f.posts, failures: 1}
	f.deps.Posts = flaky
	subscribe(t, NewSet(f.deps), 1)

	if err := dispatcher.Dispatch(context.Background(), PurgeDeletedCommand{OlderThan: time.Hour}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if flaky.attempts != 2 {
		t.Fatalf("expected 2 attempts (initial + retry), got %d", flaky.attempts)
	}
}

func TestDispatchedPurgeRetryExhaustionPropagatesError(t *testing.T) {
	f := newSetFixture(t)
	flaky := &flakyPosts{Service: f.posts, failures: 10}
	f.deps.Posts = flaky
	subscribe(t, NewSet(f.deps), 2)

	err := dispatcher.Dispatch(context.Background(), PurgeDeletedCommand{})
	if err == nil {
		t.Fatal("expected dispatcher to return error after exhausting retries")
	}
	if flaky.attempts != 3 {
		t.Fatalf("expected 3 attempts (initial + 2 retries), got %d", flaky.attempts)
	}
}

func TestDispatchedSeedRejectsInvalidDefinitions(t *testing.T) {
	f := newSetFixture(t)
	var seeds int
	f.deps.OnSeed = func(languages.SeedResult) { seeds++ }
	subscribe(t, NewSet(f.deps), 2)

	err := dispatcher.Dispatch(context.Background(), SeedLanguagesCommand{
		Languages: []LanguageDefinition{{Prefix: "x", Name: ""}},
	})
	if err == nil {
		t.Fatal("expected invalid definitions to fail")
	}
	if seeds != 0 {
		t.Fatalf("expected no seed to run, got %d", seeds)
	}
}
