package posts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/tags"
)

// Post is the language independent parent of post translations.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID           uuid.UUID          `bun:",pk,type:uuid"                   json:"id"`
	CreatedAt    time.Time          `bun:"created_at,notnull"              json:"created_at"`
	UpdatedAt    time.Time          `bun:"updated_at,notnull"              json:"updated_at"`
	DeletedAt    time.Time          `bun:"deleted_at,soft_delete,nullzero" json:"-"`
	Translations []*PostTranslation `bun:"-"                               json:"translations"`
	Tags         []*tags.Tag        `bun:"-"                               json:"tags"`
}

// IsDeleted reports whether the post was soft deleted.
func (p *Post) IsDeleted() bool {
	return !p.DeletedAt.IsZero()
}

// PostTranslation holds the localized fields of a post in one language.
type PostTranslation struct {
	bun.BaseModel `bun:"table:post_translations,alias:pt"`

	ID          uuid.UUID `bun:",pk,type:uuid"                 json:"id"`
	PostID      uuid.UUID `bun:"post_id,notnull,type:uuid"     json:"post_id"`
	LanguageID  uuid.UUID `bun:"language_id,notnull,type:uuid" json:"-"`
	Language    string    `bun:"-"                             json:"language,omitempty"`
	Title       string    `bun:"title,notnull"                 json:"title"`
	Description string    `bun:"description,notnull"           json:"description"`
	Content     string    `bun:"content,notnull"               json:"content"`
	CreatedAt   time.Time `bun:"created_at,notnull"            json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"            json:"updated_at"`
}

func (t *PostTranslation) GetID() uuid.UUID         { return t.ID }
func (t *PostTranslation) GetEntityID() uuid.UUID   { return t.PostID }
func (t *PostTranslation) GetLanguageID() uuid.UUID { return t.LanguageID }

// PostTag links a post to a tag.
type PostTag struct {
	bun.BaseModel `bun:"table:post_tags,alias:ptg"`

	PostID uuid.UUID `bun:"post_id,pk,type:uuid"`
	TagID  uuid.UUID `bun:"tag_id,pk,type:uuid"`
}

// SearchHit is one matching translation row.
type SearchHit struct {
	PostID uuid.UUID `json:"post_id"`
	Title  string    `json:"title"`
}

// TranslationInput carries the localized fields of a write.
type TranslationInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// CreatePostRequest creates a post with its first translation. A nil TagIDs
// leaves the post without tags.
type CreatePostRequest struct {
	Language    string
	Translation TranslationInput
	TagIDs      []uuid.UUID
}

// UpdatePostRequest upserts the Language translation. TagIDs follows the
// association rule: nil keeps the current set, empty clears it, otherwise the
// set is replaced.
type UpdatePostRequest struct {
	Language    string
	ID          uuid.UUID
	Translation TranslationInput
	TagIDs      []uuid.UUID
}

func clonePost(p *Post) *Post {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Translations = nil
	copied.Tags = nil
	for _, tr := range p.Translations {
		copied.Translations = append(copied.Translations, cloneTranslation(tr))
	}
	for _, tag := range p.Tags {
		t := *tag
		copied.Tags = append(copied.Tags, &t)
	}
	return &copied
}

func cloneTranslation(t *PostTranslation) *PostTranslation {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
