package tags

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/translations"
)

// EntityStore persists tag rows.
type EntityStore interface {
	// GetByID returns *domain.NotFoundError for missing or soft deleted tags.
	GetByID(ctx context.Context, id uuid.UUID) (*Tag, error)
	// FindByName looks up a tag by exact name including soft deleted rows.
	FindByName(ctx context.Context, name string) (*Tag, error)
	Create(ctx context.Context, record *Tag) (*Tag, error)
	// Update writes name and updated_at.
	Update(ctx context.Context, record *Tag) (*Tag, error)
	SoftDelete(ctx context.Context, record *Tag, at time.Time) error
}

// Stores groups the stores a unit of work operates on.
type Stores interface {
	Tags() EntityStore
	Translations() translations.Store[*TagTranslation]
}

// Repository is the storage boundary of the tag service.
type Repository interface {
	// Stores returns stores bound to the underlying connection, outside any
	// transaction.
	Stores() Stores
	// Atomic runs fn in a single transaction; an error rolls back every write.
	Atomic(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	// ListVisible returns one page of non deleted tags that have a translation
	// in languageID, each carrying only that translation, plus the total.
	ListVisible(ctx context.Context, languageID uuid.UUID, limit, offset int) ([]*Tag, int, error)
	// GetByName resolves a non deleted tag by name.
	GetByName(ctx context.Context, name string) (*Tag, error)
	// PurgeDeleted hard deletes tags soft deleted before the cutoff.
	PurgeDeleted(ctx context.Context, before time.Time) (int, error)
}
