package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

// API serves the language prefixed post and tag routes.
type API struct {
	posts          posts.Service
	tags           tags.Service
	languages      languages.Registry
	allowed        map[string]struct{}
	logger         interfaces.Logger
	metrics        *Metrics
	corsOrigins    []string
	requestTimeout time.Duration
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		allowed: map[string]struct{}{},
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithPosts wires the post service.
func WithPosts(service posts.Service) Option {
	return func(api *API) {
		api.posts = service
	}
}

// WithTags wires the tag service.
func WithTags(service tags.Service) Option {
	return func(api *API) {
		api.tags = service
	}
}

// WithLanguages wires the registry behind GET /languages.
func WithLanguages(registry languages.Registry) Option {
	return func(api *API) {
		api.languages = registry
	}
}

// WithAllowedLanguages sets the {lang} allow-list.
func WithAllowedLanguages(prefixes ...string) Option {
	return func(api *API) {
		for _, prefix := range prefixes {
			if trimmed := strings.ToLower(strings.TrimSpace(prefix)); trimmed != "" {
				api.allowed[trimmed] = struct{}{}
			}
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithMetrics enables the RED middleware and GET /metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(api *API) {
		api.metrics = metrics
	}
}

func WithCORSOrigins(origins ...string) Option {
	return func(api *API) {
		api.corsOrigins = append(api.corsOrigins, origins...)
	}
}

// WithRequestTimeout bounds every request with a context deadline.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(api *API) {
		api.requestTimeout = timeout
	}
}

// Handler returns a router with the middleware stack and every route.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
	}
	if len(a.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	if a.requestTimeout > 0 {
		r.Use(middleware.Timeout(a.requestTimeout))
	}
	a.Register(r)
	return r
}

// Register mounts the routes on r without any middleware.
func (a *API) Register(r chi.Router) {
	r.Get("/healthz", a.health)
	if a.languages != nil {
		r.Get("/languages", a.listLanguages)
	}
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}
	r.Route("/{lang}", func(r chi.Router) {
		r.Use(a.languageGuard)
		if a.posts != nil {
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", a.listPosts)
				r.Post("/", a.createPost)
				r.Get("/search", a.searchPosts)
				r.Get("/{id}", a.getPost)
				r.Put("/{id}", a.updatePost)
				r.Delete("/{id}", a.deletePost)
			})
		}
		if a.tags != nil {
			r.Route("/tags", func(r chi.Router) {
				r.Get("/", a.listTags)
				r.Post("/", a.createTag)
				r.Get("/{id}", a.getTag)
				r.Put("/{id}", a.updateTag)
				r.Delete("/{id}", a.deleteTag)
			})
		}
	})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) listLanguages(w http.ResponseWriter, r *http.Request) {
	list, err := a.languages.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// fail writes err and logs it when it maps to a server error.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := mapError(err)
	if status >= http.StatusInternalServerError {
		a.logger.WithContext(r.Context()).Error("http.handler.failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, err)
}
