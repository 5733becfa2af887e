package languages

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// Repository persists languages.
type Repository interface {
	GetByPrefix(ctx context.Context, prefix string) (*Language, error)
	List(ctx context.Context) ([]*Language, error)
	Create(ctx context.Context, record *Language) (*Language, error)
}

// NewLanguageRepository builds the generic go-repository-bun repository for languages.
func NewLanguageRepository(db *bun.DB) repository.Repository[*Language] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Language]{
		NewRecord: func() *Language { return &Language{} },
		GetID: func(l *Language) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Language, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "prefix"
		},
		GetIdentifierValue: func(l *Language) string {
			return l.Prefix
		},
	})
}

type BunRepository struct {
	repo repository.Repository[*Language]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a language repository whose reads go
// through go-repository-cache when a cache service is supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewLanguageRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunRepository{repo: wrapped}
}

func (r *BunRepository) GetByPrefix(ctx context.Context, prefix string) (*Language, error) {
	result, err := r.repo.GetByIdentifier(ctx, prefix)
	if err != nil {
		return nil, mapRepositoryError(err, "language", prefix)
	}
	return result, nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Language, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.prefix ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "language", "")
	}
	return records, nil
}

func (r *BunRepository) Create(ctx context.Context, record *Language) (*Language, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("language repository error: %w", err)
	}
	return created, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &domain.NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
