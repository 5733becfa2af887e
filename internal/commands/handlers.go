package commands

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/markdown"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

// ErrImporterUnavailable is returned when no markdown importer is wired.
var ErrImporterUnavailable = errors.New("commands: markdown importer unavailable")

// Dependencies groups the services the maintenance commands operate on.
type Dependencies struct {
	Registry languages.Registry
	Defaults []languages.Definition
	Posts    posts.Service
	Tags     tags.Service
	Importer *markdown.Importer
	Logger   interfaces.LoggerProvider
	Clock    func() time.Time
	Timeout  time.Duration
	OnImport func(*markdown.ImportResult)
	OnSeed   func(languages.SeedResult)
	OnPurge  func(PurgeResult)
}

// PurgeResult counts the records removed by a purge.
type PurgeResult struct {
	Posts int `json:"posts"`
	Tags  int `json:"tags"`
}

// Set holds the command handlers of the module.
type Set struct {
	SeedLanguages  *Handler[SeedLanguagesCommand]
	ImportMarkdown *Handler[ImportMarkdownCommand]
	PurgeDeleted   *Handler[PurgeDeletedCommand]
}

// NewSet builds the handlers over deps.
func NewSet(deps Dependencies) *Set {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	timeout := deps.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	seedLogger := logging.CommandLogger(deps.Logger, "languages")
	importLogger := logging.CommandLogger(deps.Logger, "markdown")
	purgeLogger := logging.CommandLogger(deps.Logger, "maintenance")

	return &Set{
		SeedLanguages: NewHandler(func(ctx context.Context, msg SeedLanguagesCommand) error {
			defs := deps.Defaults
			if len(msg.Languages) > 0 {
				defs = make([]languages.Definition, 0, len(msg.Languages))
				for _, lang := range msg.Languages {
					defs = append(defs, languages.Definition{Prefix: lang.Prefix, Name: lang.Name})
				}
			}
			result, err := deps.Registry.Seed(ctx, defs)
			if err != nil {
				return err
			}
			seedLogger.WithContext(ctx).Info("languages.seeded", "created", len(result.Created), "skipped", len(result.Skipped))
			if deps.OnSeed != nil {
				deps.OnSeed(result)
			}
			if msg.ResultCallback != nil {
				msg.ResultCallback(result)
			}
			return nil
		},
			WithLogger[SeedLanguagesCommand](seedLogger),
			WithOperation[SeedLanguagesCommand]("languages.seed"),
			WithTimeout[SeedLanguagesCommand](timeout),
		),

		ImportMarkdown: NewHandler(func(ctx context.Context, msg ImportMarkdownCommand) error {
			if deps.Importer == nil {
				return ErrImporterUnavailable
			}
			result, err := deps.Importer.ImportDirectory(ctx, msg.Directory, msg.Language)
			if err != nil {
				return err
			}
			importLogger.WithContext(ctx).Info("markdown.imported",
				"created", len(result.Created), "created_tags", len(result.CreatedTags),
				"skipped_tags", len(result.SkippedTags), "failed", len(result.Failed))
			if deps.OnImport != nil {
				deps.OnImport(result)
			}
			if msg.ResultCallback != nil {
				msg.ResultCallback(result)
			}
			return nil
		},
			WithLogger[ImportMarkdownCommand](importLogger),
			WithOperation[ImportMarkdownCommand]("markdown.import_directory"),
			WithTimeout[ImportMarkdownCommand](0),
			WithMessageFields(func(msg ImportMarkdownCommand) map[string]any {
				return map[string]any{"directory": msg.Directory, "language": msg.Language}
			}),
		),

		PurgeDeleted: NewHandler(func(ctx context.Context, msg PurgeDeletedCommand) error {
			before := deps.Clock().Add(-msg.OlderThan)
			var result PurgeResult
			var err error
			if result.Posts, err = deps.Posts.PurgeDeleted(ctx, before); err != nil {
				return err
			}
			if result.Tags, err = deps.Tags.PurgeDeleted(ctx, before); err != nil {
				return err
			}
			purgeLogger.WithContext(ctx).Info("maintenance.purged", "posts", result.Posts, "tags", result.Tags, "before", before)
			if deps.OnPurge != nil {
				deps.OnPurge(result)
			}
			if msg.ResultCallback != nil {
				msg.ResultCallback(result)
			}
			return nil
		},
			WithLogger[PurgeDeletedCommand](purgeLogger),
			WithOperation[PurgeDeletedCommand]("maintenance.purge_deleted"),
			WithTimeout[PurgeDeletedCommand](timeout),
			WithMessageFields(func(msg PurgeDeletedCommand) map[string]any {
				return map[string]any{"older_than": msg.OlderThan.String()}
			}),
		),
	}
}

// Subscription detaches handlers from the dispatcher.
type Subscription interface {
	Unsubscribe()
}

// Subscribe registers every handler with the global go-command dispatcher.
// Failed executions are retried up to retries times.
func (s *Set) Subscribe(retries int) []Subscription {
	if retries < 0 {
		retries = 0
	}
	return []Subscription{
		dispatcher.SubscribeCommand(s.SeedLanguages, runner.WithMaxRetries(retries)),
		dispatcher.SubscribeCommand(s.ImportMarkdown, runner.WithMaxRetries(retries)),
		dispatcher.SubscribeCommand(s.PurgeDeleted, runner.WithMaxRetries(retries)),
	}
}
