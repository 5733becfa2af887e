package polyglot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/commands"
	"github.com/goliatone/go-polyglot/internal/di"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/markdown"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/storage"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

// PostService exports the post orchestrator contract.
type PostService = posts.Service

// TagService exports the tag orchestrator contract.
type TagService = tags.Service

// LanguageRegistry exports the language registry contract.
type LanguageRegistry = languages.Registry

type (
	Post                        = posts.Post
	PostTranslation             = posts.PostTranslation
	SearchHit                   = posts.SearchHit
	TranslationInput            = posts.TranslationInput
	CreatePostRequest           = posts.CreatePostRequest
	UpdatePostRequest           = posts.UpdatePostRequest
	Tag                         = tags.Tag
	TagTranslation              = tags.TagTranslation
	CreateTagRequest            = tags.CreateTagRequest
	UpdateTagRequest            = tags.UpdateTagRequest
	UpdateTagCoreRequest        = tags.UpdateTagCoreRequest
	UpdateTagTranslationRequest = tags.UpdateTagTranslationRequest
	Language                    = languages.Language
	ImportResult                = markdown.ImportResult
)

// Commands exports the maintenance command handlers.
type Commands = commands.Set

type (
	SeedLanguagesCommand  = commands.SeedLanguagesCommand
	LanguageDefinition    = commands.LanguageDefinition
	ImportMarkdownCommand = commands.ImportMarkdownCommand
	PurgeDeletedCommand   = commands.PurgeDeletedCommand
	PurgeResult           = commands.PurgeResult
	Subscription          = commands.Subscription
)

// Option customises module construction.
type Option func(*options)

type options struct {
	db             *bun.DB
	memory         bool
	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time
	idGenerator    func() uuid.UUID
}

// WithDB uses a caller owned bun handle instead of opening Config.Storage.
// Close leaves the handle open.
func WithDB(db *bun.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithMemoryStorage keeps every repository in process memory.
func WithMemoryStorage() Option {
	return func(o *options) {
		o.memory = true
	}
}

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *options) {
		o.loggerProvider = provider
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(o *options) {
		o.idGenerator = generator
	}
}

// Module is the top level runtime façade.
type Module struct {
	container *di.Container
	ownsDB    bool
}

// New opens storage, applies migrations when Storage.AutoMigrate is set,
// wires the services and seeds the configured languages when
// Features.SeedLanguages is set.
func New(cfg Config, opts ...Option) (*Module, error) {
	return NewWithContext(context.Background(), cfg, opts...)
}

// NewWithContext is New bounded by ctx.
func NewWithContext(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	module := &Module{}
	db := o.db
	if db == nil && !o.memory {
		opened, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		db = opened
		module.ownsDB = true
	}

	fail := func(err error) (*Module, error) {
		if module.ownsDB {
			err = errors.Join(err, db.Close())
		}
		return nil, err
	}

	if db != nil && cfg.Storage.AutoMigrate {
		if _, err := storage.Migrate(ctx, db); err != nil {
			return fail(err)
		}
	}

	diOpts := []di.Option{}
	if db != nil {
		diOpts = append(diOpts, di.WithBunDB(db))
	}
	if o.loggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(o.loggerProvider))
	}
	if o.clock != nil {
		diOpts = append(diOpts, di.WithClock(o.clock))
	}
	if o.idGenerator != nil {
		diOpts = append(diOpts, di.WithIDGenerator(o.idGenerator))
	}
	container, err := di.NewContainer(cfg, diOpts...)
	if err != nil {
		return fail(err)
	}
	module.container = container

	if cfg.Features.SeedLanguages {
		if err := container.Commands().SeedLanguages.Execute(ctx, commands.SeedLanguagesCommand{}); err != nil {
			return fail(fmt.Errorf("polyglot: seed languages: %w", err))
		}
	}
	return module, nil
}

// Posts returns the post orchestrator.
func (m *Module) Posts() PostService { return m.container.PostService() }

// Tags returns the tag orchestrator.
func (m *Module) Tags() TagService { return m.container.TagService() }

// Languages returns the language registry.
func (m *Module) Languages() LanguageRegistry { return m.container.Languages() }

// Commands returns the seed, import and purge handlers.
func (m *Module) Commands() *Commands { return m.container.Commands() }

// Importer returns the Markdown importer.
func (m *Module) Importer() *markdown.Importer { return m.container.Importer() }

// Handler returns the HTTP API.
func (m *Module) Handler() http.Handler { return m.container.Handler() }

// DB exposes the bun handle, nil for memory storage.
func (m *Module) DB() *bun.DB { return m.container.DB() }

// Close releases the database handle opened by New.
func (m *Module) Close() error {
	if m == nil || !m.ownsDB || m.container.DB() == nil {
		return nil
	}
	return m.container.DB().Close()
}
