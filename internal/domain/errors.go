package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned when an entity is missing, soft deleted or has no
	// translation for the requested language.
	ErrNotFound = errors.New("polyglot: not found")
	// ErrValidation groups field level input failures.
	ErrValidation = errors.New("polyglot: validation failed")
	// ErrInvalidLanguage is returned when a language prefix is not registered.
	ErrInvalidLanguage = errors.New("polyglot: invalid language")
	// ErrCursorConsumed is returned when a search cursor is ranged a second time.
	ErrCursorConsumed = errors.New("polyglot: cursor already consumed")
)

// NotFoundError describes a missing resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError.
func NewNotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// ValidationError maps field paths (e.g. "translations.title", "tags.0.id")
// to human readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(e.Fields[key], "; "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add appends a message for field and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Merge copies every message of other into e.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	if other == nil {
		return e
	}
	for field, messages := range other.Fields {
		for _, msg := range messages {
			e.Add(field, msg)
		}
	}
	return e
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// NewFieldError is a shortcut for a single field failure.
func NewFieldError(field, message string) error {
	return (&ValidationError{}).Add(field, message)
}
