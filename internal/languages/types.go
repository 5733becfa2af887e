package languages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Language is immutable reference data identified by a short prefix such as "ua".
type Language struct {
	bun.BaseModel `bun:"table:languages,alias:lang"`

	ID        uuid.UUID `bun:",pk,type:uuid"                                 json:"id"`
	Prefix    string    `bun:"prefix,notnull"                                json:"prefix"`
	Name      string    `bun:"name,notnull"                                  json:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"-"`
}

// Definition describes a language to seed.
type Definition struct {
	Prefix string
	Name   string
}

// SeedResult lists the prefixes inserted and skipped by Seed.
type SeedResult struct {
	Created []string
	Skipped []string
}
