package translations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// Upsert writes the translation of entityID for languageID through exactly
// one path: apply mutates and updates the existing row, otherwise build
// creates a new one. created reports which path ran.
func Upsert[T Record](ctx context.Context, store Store[T], entityID, languageID uuid.UUID, build func() T, apply func(T)) (record T, created bool, err error) {
	existing, err := store.FindByEntityAndLanguage(ctx, entityID, languageID)
	switch {
	case err == nil:
		apply(existing)
		updated, err := store.Update(ctx, existing)
		if err != nil {
			return record, false, fmt.Errorf("translations: update: %w", err)
		}
		return updated, false, nil
	case errors.Is(err, domain.ErrNotFound):
		inserted, err := store.Create(ctx, build())
		if err != nil {
			return record, false, fmt.Errorf("translations: create: %w", err)
		}
		return inserted, true, nil
	default:
		return record, false, err
	}
}

// Removal reports what Remove did.
type Removal struct {
	Before    int
	Removed   bool
	Remaining int
}

// State returns the lifecycle state the parent moves to.
func (r Removal) State() domain.State {
	return domain.NextState(domain.StateActive, r.Remaining)
}

// Remove deletes the translation of entityID for languageID when present and
// counts the rows that survive.
func Remove[T Record](ctx context.Context, store Store[T], entityID, languageID uuid.UUID) (Removal, error) {
	rows, err := store.ListByEntity(ctx, entityID)
	if err != nil {
		return Removal{}, fmt.Errorf("translations: list: %w", err)
	}
	removal := Removal{Before: len(rows), Remaining: len(rows)}
	for _, row := range rows {
		if row.GetLanguageID() != languageID {
			continue
		}
		if err := store.Delete(ctx, row); err != nil {
			return Removal{}, fmt.Errorf("translations: delete: %w", err)
		}
		removal.Removed = true
		removal.Remaining--
		break
	}
	return removal, nil
}

// Outcome describes the result of a per-language delete.
type Outcome struct {
	Resource  string       `json:"resource"`
	EntityID  uuid.UUID    `json:"id"`
	Language  string       `json:"language"`
	Removed   bool         `json:"removed"`
	Remaining int          `json:"remaining"`
	State     domain.State `json:"state"`
}

// NewOutcome converts a removal into an outcome.
func NewOutcome(resource string, entityID uuid.UUID, language string, removal Removal) Outcome {
	return Outcome{
		Resource:  resource,
		EntityID:  entityID,
		Language:  language,
		Removed:   removal.Removed,
		Remaining: removal.Remaining,
		State:     removal.State(),
	}
}

// SoftDeleted reports whether the parent entity was soft deleted.
func (o Outcome) SoftDeleted() bool {
	return o.State == domain.StateSoftDeleted
}

// Message renders a human readable summary.
func (o Outcome) Message() string {
	switch {
	case o.SoftDeleted():
		return fmt.Sprintf("%s fully removed", o.Resource)
	case o.Removed:
		return fmt.Sprintf("%s translation removed, %d remaining", o.Language, o.Remaining)
	default:
		return fmt.Sprintf("no %s translation, %d remaining", o.Language, o.Remaining)
	}
}
