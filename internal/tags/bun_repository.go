package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/storage"
	"github.com/goliatone/go-polyglot/internal/translations"
)

// NewTagRepository builds the generic go-repository-bun repository for tags,
// identified by name.
func NewTagRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(t *Tag) string {
			return t.Name
		},
	})
}

type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Tag]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db, repo: NewTagRepository(db)}
}

func (r *BunRepository) Stores() Stores {
	return bunStores{db: r.db}
}

func (r *BunRepository) Atomic(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, bunStores{db: tx})
	})
}

func (r *BunRepository) ListVisible(ctx context.Context, languageID uuid.UUID, limit, offset int) ([]*Tag, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("EXISTS (SELECT 1 FROM tag_translations AS ttx WHERE ttx.tag_id = ?TableAlias.id AND ttx.language_id = ?)", languageID).
				OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC")
		}),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, mapRepositoryError(err, "tag", "")
	}
	if err := AttachTranslations(ctx, r.db, records, languageID); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *BunRepository) GetByName(ctx context.Context, name string) (*Tag, error) {
	result, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "tag", name)
	}
	return result, nil
}

func (r *BunRepository) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.NewDelete().
		Model((*Tag)(nil)).
		WhereDeleted().
		Where("deleted_at < ?", before).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tag repository error: purge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tag repository error: purge: %w", err)
	}
	return int(affected), nil
}

// AttachTranslations loads the languageID translation of every tag in list.
func AttachTranslations(ctx context.Context, db bun.IDB, list []*Tag, languageID uuid.UUID) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, tag := range list {
		ids = append(ids, tag.ID)
	}
	var rows []*TagTranslation
	err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.tag_id IN (?)", bun.In(ids)).
		Where("?TableAlias.language_id = ?", languageID).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("tag repository error: translations: %w", err)
	}
	byTag := make(map[uuid.UUID]*TagTranslation, len(rows))
	for _, row := range rows {
		byTag[row.TagID] = row
	}
	for _, tag := range list {
		tag.Translations = nil
		if tr, ok := byTag[tag.ID]; ok {
			tag.Translations = []*TagTranslation{tr}
		}
	}
	return nil
}

type bunStores struct {
	db bun.IDB
}

func (s bunStores) Tags() EntityStore {
	return &bunEntityStore{db: s.db}
}

func (s bunStores) Translations() translations.Store[*TagTranslation] {
	return translations.NewBunStore(s.db, "tag_translation", "tag_id", func() *TagTranslation {
		return &TagTranslation{}
	})
}

type bunEntityStore struct {
	db bun.IDB
}

func (s *bunEntityStore) GetByID(ctx context.Context, id uuid.UUID) (*Tag, error) {
	record := &Tag{}
	q := s.db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1)
	if storage.ForUpdate(s.db) {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, mapScanError(err, "tag", id.String())
	}
	return record, nil
}

func (s *bunEntityStore) FindByName(ctx context.Context, name string) (*Tag, error) {
	record := &Tag{}
	err := s.db.NewSelect().
		Model(record).
		WhereAllWithDeleted().
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapScanError(err, "tag", name)
	}
	return record, nil
}

func (s *bunEntityStore) Create(ctx context.Context, record *Tag) (*Tag, error) {
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapWriteError(err, "insert")
	}
	return record, nil
}

func (s *bunEntityStore) Update(ctx context.Context, record *Tag) (*Tag, error) {
	if _, err := s.db.NewUpdate().Model(record).Column("name", "updated_at").WherePK().Exec(ctx); err != nil {
		return nil, mapWriteError(err, "update")
	}
	return record, nil
}

func (s *bunEntityStore) SoftDelete(ctx context.Context, record *Tag, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model(record).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", at).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tag repository error: soft delete: %w", err)
	}
	record.DeletedAt = at
	record.UpdatedAt = at
	return nil
}

// mapWriteError turns a lost race on the unique tag name into the same field
// error ensureNameAvailable reports.
func mapWriteError(err error, op string) error {
	if storage.IsUniqueViolation(err) {
		return domain.NewFieldError("name", nameTakenMessage)
	}
	return fmt.Errorf("tag repository error: %s: %w", op, err)
}

func mapScanError(err error, resource, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &domain.NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
