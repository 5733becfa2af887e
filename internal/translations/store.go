package translations

import (
	"context"

	"github.com/google/uuid"
)

// Record is a per-language row owned by a parent entity.
type Record interface {
	GetID() uuid.UUID
	GetEntityID() uuid.UUID
	GetLanguageID() uuid.UUID
}

// Store persists translation rows of one entity type. It performs no upsert
// logic; callers decide between Create and Update.
type Store[T Record] interface {
	// FindByEntityAndLanguage returns *domain.NotFoundError when absent.
	FindByEntityAndLanguage(ctx context.Context, entityID, languageID uuid.UUID) (T, error)
	// ListByEntity returns rows in insertion order.
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	// Update overwrites the content fields of an existing row.
	Update(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, record T) error
}
