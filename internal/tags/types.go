package tags

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tag is a label whose name is shared by every language.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID           uuid.UUID         `bun:",pk,type:uuid"                   json:"id"`
	Name         string            `bun:"name,notnull"                    json:"name"`
	CreatedAt    time.Time         `bun:"created_at,notnull"              json:"created_at"`
	UpdatedAt    time.Time         `bun:"updated_at,notnull"              json:"updated_at"`
	DeletedAt    time.Time         `bun:"deleted_at,soft_delete,nullzero" json:"-"`
	Translations []*TagTranslation `bun:"-"                               json:"translations"`
}

// TagTranslation carries the per-language title of a tag.
type TagTranslation struct {
	bun.BaseModel `bun:"table:tag_translations,alias:tt"`

	ID         uuid.UUID `bun:",pk,type:uuid"           json:"id"`
	TagID      uuid.UUID `bun:"tag_id,notnull,type:uuid" json:"tag_id"`
	LanguageID uuid.UUID `bun:"language_id,notnull,type:uuid" json:"-"`
	Language   string    `bun:"-"                       json:"language,omitempty"`
	Title      string    `bun:"title,notnull"           json:"title"`
	CreatedAt  time.Time `bun:"created_at,notnull"      json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"      json:"updated_at"`
}

func (t *TagTranslation) GetID() uuid.UUID         { return t.ID }
func (t *TagTranslation) GetEntityID() uuid.UUID   { return t.TagID }
func (t *TagTranslation) GetLanguageID() uuid.UUID { return t.LanguageID }

// IsDeleted reports whether the tag was soft deleted.
func (t *Tag) IsDeleted() bool {
	return !t.DeletedAt.IsZero()
}

// CreateTagRequest creates a tag with its first translation.
type CreateTagRequest struct {
	Language string
	Name     string
	Title    string
}

// UpdateTagRequest changes the global name and the title in Language.
type UpdateTagRequest struct {
	Language string
	ID       uuid.UUID
	Name     string
	Title    string
}

// UpdateTagCoreRequest changes the language independent fields.
type UpdateTagCoreRequest struct {
	ID   uuid.UUID
	Name string
}

// UpdateTagTranslationRequest upserts the title in Language.
type UpdateTagTranslationRequest struct {
	Language string
	ID       uuid.UUID
	Title    string
}

func cloneTag(t *Tag) *Tag {
	if t == nil {
		return nil
	}
	copied := *t
	copied.Translations = nil
	if len(t.Translations) > 0 {
		copied.Translations = make([]*TagTranslation, 0, len(t.Translations))
		for _, tr := range t.Translations {
			copied.Translations = append(copied.Translations, cloneTranslation(tr))
		}
	}
	return &copied
}

func cloneTranslation(t *TagTranslation) *TagTranslation {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
