package languages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/identity"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

var ErrPrefixRequired = errors.New("languages: prefix is required")

// Registry resolves language prefixes to languages.
type Registry interface {
	Resolve(ctx context.Context, prefix string) (*Language, error)
	List(ctx context.Context) ([]*Language, error)
	Seed(ctx context.Context, defs []Definition) (SeedResult, error)
}

// RegistryOption configures the registry.
type RegistryOption func(*registry)

// WithLogger overrides the registry logger.
func WithLogger(logger interfaces.Logger) RegistryOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type registry struct {
	repo   Repository
	logger interfaces.Logger
}

// NewRegistry wraps a language repository.
func NewRegistry(repo Repository, opts ...RegistryOption) Registry {
	r := &registry{
		repo:   repo,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the language registered under prefix. Unknown prefixes
// yield a *domain.NotFoundError.
func (r *registry) Resolve(ctx context.Context, prefix string) (*Language, error) {
	normalized := normalizePrefix(prefix)
	if normalized == "" {
		return nil, &domain.NotFoundError{Resource: "language", Key: prefix}
	}
	return r.repo.GetByPrefix(ctx, normalized)
}

func (r *registry) List(ctx context.Context) ([]*Language, error) {
	return r.repo.List(ctx)
}

// Seed inserts missing languages and leaves existing ones untouched.
func (r *registry) Seed(ctx context.Context, defs []Definition) (SeedResult, error) {
	var result SeedResult
	for _, def := range defs {
		prefix := normalizePrefix(def.Prefix)
		if prefix == "" {
			return result, ErrPrefixRequired
		}
		_, err := r.repo.GetByPrefix(ctx, prefix)
		switch {
		case err == nil:
			result.Skipped = append(result.Skipped, prefix)
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return result, fmt.Errorf("languages: seed %s: %w", prefix, err)
		}

		if _, err := r.repo.Create(ctx, &Language{
			ID:     identity.LanguageUUID(prefix),
			Prefix: prefix,
			Name:   strings.TrimSpace(def.Name),
		}); err != nil {
			return result, fmt.Errorf("languages: seed %s: %w", prefix, err)
		}
		result.Created = append(result.Created, prefix)
	}
	r.logger.Info("languages.seeded", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func normalizePrefix(prefix string) string {
	return strings.ToLower(strings.TrimSpace(prefix))
}

// Require resolves prefix and reports unknown prefixes as
// domain.ErrInvalidLanguage. Services use it so a bad prefix never falls
// back to another language.
func Require(ctx context.Context, registry Registry, prefix string) (*Language, error) {
	lang, err := registry.Resolve(ctx, prefix)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLanguage, prefix)
		}
		return nil, err
	}
	return lang, nil
}
