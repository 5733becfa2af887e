package commands

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/markdown"
)

const (
	seedLanguagesMessageType  = "polyglot.languages.seed"
	importMarkdownMessageType = "polyglot.markdown.import_directory"
	purgeDeletedMessageType   = "polyglot.maintenance.purge_deleted"
)

// LanguageDefinition names a language to seed.
type LanguageDefinition struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// SeedLanguagesCommand inserts missing languages. An empty Languages list
// seeds the configured defaults.
type SeedLanguagesCommand struct {
	Languages []LanguageDefinition `json:"languages,omitempty"`

	// ResultCallback, when set, receives the seed result synchronously.
	ResultCallback func(languages.SeedResult) `json:"-"`
}

func (SeedLanguagesCommand) Type() string { return seedLanguagesMessageType }

func (cmd SeedLanguagesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Languages, validation.Each(validation.By(func(value any) error {
			def, _ := value.(LanguageDefinition)
			return validation.ValidateStruct(&def,
				validation.Field(&def.Prefix, validation.Required, validation.RuneLength(2, 8)),
				validation.Field(&def.Name, validation.Required),
			)
		}))),
	)
}

// ImportMarkdownCommand imports every Markdown file under Directory as posts
// in Language.
type ImportMarkdownCommand struct {
	Directory string `json:"directory"`
	Language  string `json:"language"`

	ResultCallback func(*markdown.ImportResult) `json:"-"`
}

func (ImportMarkdownCommand) Type() string { return importMarkdownMessageType }

func (cmd ImportMarkdownCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required),
		validation.Field(&cmd.Language, validation.Required),
	)
}

// PurgeDeletedCommand hard deletes posts and tags soft deleted more than
// OlderThan ago. Zero purges every soft deleted record.
type PurgeDeletedCommand struct {
	OlderThan time.Duration `json:"older_than"`

	ResultCallback func(PurgeResult) `json:"-"`
}

func (PurgeDeletedCommand) Type() string { return purgeDeletedMessageType }

func (cmd PurgeDeletedCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.OlderThan, validation.Min(time.Duration(0))),
	)
}
