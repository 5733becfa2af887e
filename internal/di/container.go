package di

import (
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/commands"
	"github.com/goliatone/go-polyglot/internal/http"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/logging/gologger"
	"github.com/goliatone/go-polyglot/internal/markdown"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/runtimeconfig"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

// Container wires repositories, services, commands and the HTTP API.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time
	idGenerator    func() uuid.UUID

	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	languageRepo languages.Repository
	tagRepo      tags.Repository
	postRepo     posts.Repository

	registry languages.Registry
	postSvc  posts.Service
	tagSvc   tags.Service
	importer *markdown.Importer
	commands *commands.Set
	metrics  *http.Metrics
	api      *http.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB switches every repository to bun over db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCache overrides the language cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(c *Container) {
		c.idGenerator = generator
	}
}

// NewContainer validates cfg and wires the module. Without WithBunDB the
// repositories are in memory.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureCacheDefaults(); err != nil {
		return nil, err
	}
	c.configureRepositories()
	c.configureServices()
	c.configureHTTP()
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "noop":
		c.loggerProvider = noopProvider{}
	default:
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: logger provider: %w", err)
		}
		c.loggerProvider = provider
	}
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		cfg.TTL = c.Config.Cache.LanguageTTL
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: cache service: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories() {
	if c.bunDB != nil {
		c.languageRepo = languages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.tagRepo = tags.NewBunRepository(c.bunDB)
		c.postRepo = posts.NewBunRepository(c.bunDB)
		return
	}
	memoryTags := tags.NewMemoryRepository()
	c.languageRepo = languages.NewMemoryRepository()
	c.tagRepo = memoryTags
	c.postRepo = posts.NewMemoryRepository(memoryTags)
}

func (c *Container) configureServices() {
	c.registry = languages.NewRegistry(c.languageRepo,
		languages.WithLogger(logging.LanguagesLogger(c.loggerProvider)),
	)

	postOpts := []posts.ServiceOption{posts.WithLogger(logging.PostsLogger(c.loggerProvider))}
	tagOpts := []tags.ServiceOption{tags.WithLogger(logging.TagsLogger(c.loggerProvider))}
	if c.clock != nil {
		postOpts = append(postOpts, posts.WithClock(c.clock))
		tagOpts = append(tagOpts, tags.WithClock(c.clock))
	}
	if c.idGenerator != nil {
		postOpts = append(postOpts, posts.WithIDGenerator(c.idGenerator))
		tagOpts = append(tagOpts, tags.WithIDGenerator(c.idGenerator))
	}
	c.postSvc = posts.NewService(c.postRepo, c.registry, postOpts...)
	c.tagSvc = tags.NewService(c.tagRepo, c.registry, tagOpts...)

	c.importer = markdown.NewImporter(c.postSvc, c.tagSvc, c.registry,
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
	)
	c.commands = commands.NewSet(commands.Dependencies{
		Registry: c.registry,
		Defaults: c.LanguageDefinitions(),
		Posts:    c.postSvc,
		Tags:     c.tagSvc,
		Importer: c.importer,
		Logger:   c.loggerProvider,
		Clock:    c.clock,
	})
}

func (c *Container) configureHTTP() {
	opts := []http.Option{
		http.WithPosts(c.postSvc),
		http.WithTags(c.tagSvc),
		http.WithLanguages(c.registry),
		http.WithAllowedLanguages(c.Config.LanguagePrefixes()...),
		http.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		http.WithCORSOrigins(c.Config.HTTP.CORSOrigins...),
		http.WithRequestTimeout(c.Config.HTTP.RequestTimeout),
	}
	if c.Config.Features.Metrics {
		c.metrics = http.NewMetrics()
		opts = append(opts, http.WithMetrics(c.metrics))
	}
	c.api = http.NewAPI(opts...)
}

// LanguageDefinitions converts the configured languages into seed definitions.
func (c *Container) LanguageDefinitions() []languages.Definition {
	defs := make([]languages.Definition, 0, len(c.Config.Languages))
	for _, lang := range c.Config.Languages {
		defs = append(defs, languages.Definition{
			Prefix: runtimeconfig.NormalizePrefix(lang.Prefix),
			Name:   strings.TrimSpace(lang.Name),
		})
	}
	return defs
}

func (c *Container) DB() *bun.DB { return c.bunDB }

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Logger() interfaces.Logger { return logging.ModuleLogger(c.loggerProvider, "") }

func (c *Container) Languages() languages.Registry { return c.registry }

func (c *Container) PostService() posts.Service { return c.postSvc }

func (c *Container) TagService() tags.Service { return c.tagSvc }

func (c *Container) Importer() *markdown.Importer { return c.importer }

func (c *Container) Commands() *commands.Set { return c.commands }

func (c *Container) Metrics() *http.Metrics { return c.metrics }

func (c *Container) API() *http.API { return c.api }

// Handler returns the routed HTTP handler.
func (c *Container) Handler() nethttp.Handler { return c.api.Handler() }

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger { return logging.NoOp() }
