package translations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// BunStore implements Store over bun for a translation table whose parent
// key lives in entityColumn (e.g. "post_id").
type BunStore[T Record] struct {
	db           bun.IDB
	resource     string
	entityColumn string
	newRecord    func() T
}

// NewBunStore builds a store. db may be a *bun.DB or a bun.Tx.
func NewBunStore[T Record](db bun.IDB, resource, entityColumn string, newRecord func() T) *BunStore[T] {
	return &BunStore[T]{db: db, resource: resource, entityColumn: entityColumn, newRecord: newRecord}
}

func (s *BunStore[T]) FindByEntityAndLanguage(ctx context.Context, entityID, languageID uuid.UUID) (T, error) {
	record := s.newRecord()
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(s.entityColumn), entityID).
		Where("?TableAlias.language_id = ?", languageID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, &domain.NotFoundError{Resource: s.resource, Key: entityID.String()}
		}
		return zero, fmt.Errorf("%s store: find: %w", s.resource, err)
	}
	return record, nil
}

func (s *BunStore[T]) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]T, error) {
	var records []T
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.? = ?", bun.Ident(s.entityColumn), entityID).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s store: list: %w", s.resource, err)
	}
	return records, nil
}

func (s *BunStore[T]) Create(ctx context.Context, record T) (T, error) {
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("%s store: insert: %w", s.resource, err)
	}
	return record, nil
}

func (s *BunStore[T]) Update(ctx context.Context, record T) (T, error) {
	if _, err := s.db.NewUpdate().Model(record).ExcludeColumn("created_at").WherePK().Exec(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("%s store: update: %w", s.resource, err)
	}
	return record, nil
}

func (s *BunStore[T]) Delete(ctx context.Context, record T) error {
	if _, err := s.db.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("%s store: delete: %w", s.resource, err)
	}
	return nil
}
