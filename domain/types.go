package domain

import internaldomain "github.com/goliatone/go-polyglot/internal/domain"

// Error taxonomy shared by the posts, tags and languages services.
var (
	ErrNotFound        = internaldomain.ErrNotFound
	ErrValidation      = internaldomain.ErrValidation
	ErrInvalidLanguage = internaldomain.ErrInvalidLanguage
	ErrCursorConsumed  = internaldomain.ErrCursorConsumed
)

// NotFoundError describes a missing resource.
type NotFoundError = internaldomain.NotFoundError

// ValidationError maps field paths to messages.
type ValidationError = internaldomain.ValidationError

// State is the lifecycle of a translatable entity.
type State = internaldomain.State

const (
	// StateActive entities have at least one translation.
	StateActive = internaldomain.StateActive
	// StateSoftDeleted entities lost their last translation.
	StateSoftDeleted = internaldomain.StateSoftDeleted
)
