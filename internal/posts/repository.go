package posts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/internal/translations"
)

// EntityStore persists post rows.
type EntityStore interface {
	// GetByID returns *domain.NotFoundError for missing or soft deleted posts.
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, record *Post) (*Post, error)
	// Touch writes updated_at.
	Touch(ctx context.Context, record *Post, at time.Time) error
	SoftDelete(ctx context.Context, record *Post, at time.Time) error
}

// AssociationStore persists the post to tag links.
type AssociationStore interface {
	// Replace makes tagIDs the exact tag set of postID.
	Replace(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error
	Clear(ctx context.Context, postID uuid.UUID) error
	ListTagIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	// MissingTags returns the ids that do not name a live tag.
	MissingTags(ctx context.Context, tagIDs []uuid.UUID) ([]uuid.UUID, error)
	// VisibleTags returns, per post, the live tags that have a translation in
	// languageID, each carrying only that translation.
	VisibleTags(ctx context.Context, postIDs []uuid.UUID, languageID uuid.UUID) (map[uuid.UUID][]*tags.Tag, error)
}

// Stores groups the stores a unit of work operates on.
type Stores interface {
	Posts() EntityStore
	Translations() translations.Store[*PostTranslation]
	Associations() AssociationStore
}

// Cursor walks search results forward once.
type Cursor interface {
	Next(ctx context.Context) bool
	Hit() SearchHit
	Err() error
	Close() error
}

// Repository is the storage boundary of the post service.
type Repository interface {
	Stores() Stores
	// Atomic runs fn in a single transaction; an error rolls back every write.
	Atomic(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	// ListVisible returns one page of live posts that have a translation in
	// languageID, each carrying only that translation, plus the total.
	ListVisible(ctx context.Context, languageID uuid.UUID, limit, offset int) ([]*Post, int, error)
	// Search opens a cursor over the languageID translations of live posts
	// whose title, description or content contains term, ignoring case.
	Search(ctx context.Context, languageID uuid.UUID, term string) (Cursor, error)
	// PurgeDeleted hard deletes posts soft deleted before the cutoff.
	PurgeDeleted(ctx context.Context, before time.Time) (int, error)
}
