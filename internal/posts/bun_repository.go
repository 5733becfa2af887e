package posts

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
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/internal/translations"
)

var searchColumns = []string{"title", "description", "content"}

// NewPostRepository builds the generic go-repository-bun repository for posts.
func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.ID.String()
		},
	})
}

type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Post]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db, repo: NewPostRepository(db)}
}

func (r *BunRepository) Stores() Stores {
	return bunStores{db: r.db}
}

func (r *BunRepository) Atomic(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, bunStores{db: tx})
	})
}

func (r *BunRepository) ListVisible(ctx context.Context, languageID uuid.UUID, limit, offset int) ([]*Post, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("EXISTS (SELECT 1 FROM post_translations AS ptx WHERE ptx.post_id = ?TableAlias.id AND ptx.language_id = ?)", languageID).
				OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC")
		}),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, mapRepositoryError(err, "post", "")
	}
	if err := attachTranslations(ctx, r.db, records, languageID); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *BunRepository) Search(ctx context.Context, languageID uuid.UUID, term string) (Cursor, error) {
	lower := storage.LowerFunc(r.db)
	pattern := storage.LikePattern(term)
	rows, err := r.db.NewSelect().
		TableExpr("post_translations AS pt").
		ColumnExpr("pt.post_id, pt.title").
		Join("JOIN posts AS p ON p.id = pt.post_id").
		Where("p.deleted_at IS NULL").
		Where("pt.language_id = ?", languageID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for i, column := range searchColumns {
				expr := fmt.Sprintf("%s(pt.%s) LIKE ? ESCAPE '%s'", lower, column, storage.LikeEscape)
				if i == 0 {
					q = q.Where(expr, pattern)
					continue
				}
				q = q.WhereOr(expr, pattern)
			}
			return q
		}).
		OrderExpr("pt.created_at ASC, pt.id ASC").
		Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("post repository error: search: %w", err)
	}
	return &rowsCursor{rows: rows}, nil
}

func (r *BunRepository) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.NewDelete().
		Model((*Post)(nil)).
		WhereDeleted().
		Where("deleted_at < ?", before).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("post repository error: purge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("post repository error: purge: %w", err)
	}
	return int(affected), nil
}

func attachTranslations(ctx context.Context, db bun.IDB, list []*Post, languageID uuid.UUID) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, post := range list {
		ids = append(ids, post.ID)
	}
	var rows []*PostTranslation
	err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.post_id IN (?)", bun.In(ids)).
		Where("?TableAlias.language_id = ?", languageID).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("post repository error: translations: %w", err)
	}
	byPost := make(map[uuid.UUID]*PostTranslation, len(rows))
	for _, row := range rows {
		byPost[row.PostID] = row
	}
	for _, post := range list {
		post.Translations = nil
		if tr, ok := byPost[post.ID]; ok {
			post.Translations = []*PostTranslation{tr}
		}
	}
	return nil
}

type rowsCursor struct {
	rows *sql.Rows
	hit  SearchHit
	err  error
}

func (c *rowsCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	var hit SearchHit
	if err := c.rows.Scan(&hit.PostID, &hit.Title); err != nil {
		c.err = fmt.Errorf("post repository error: search scan: %w", err)
		return false
	}
	c.hit = hit
	return true
}

func (c *rowsCursor) Hit() SearchHit { return c.hit }

func (c *rowsCursor) Err() error { return c.err }

func (c *rowsCursor) Close() error { return c.rows.Close() }

type bunStores struct {
	db bun.IDB
}

func (s bunStores) Posts() EntityStore {
	return &bunEntityStore{db: s.db}
}

func (s bunStores) Translations() translations.Store[*PostTranslation] {
	return translations.NewBunStore(s.db, "post_translation", "post_id", func() *PostTranslation {
		return &PostTranslation{}
	})
}

func (s bunStores) Associations() AssociationStore {
	return &bunAssociationStore{db: s.db}
}

type bunEntityStore struct {
	db bun.IDB
}

func (s *bunEntityStore) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record := &Post{}
	q := s.db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1)
	if storage.ForUpdate(s.db) {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, mapScanError(err, "post", id.String())
	}
	return record, nil
}

func (s *bunEntityStore) Create(ctx context.Context, record *Post) (*Post, error) {
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, fmt.Errorf("post repository error: insert: %w", err)
	}
	return record, nil
}

func (s *bunEntityStore) Touch(ctx context.Context, record *Post, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model(record).
		Set("updated_at = ?", at).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("post repository error: touch: %w", err)
	}
	record.UpdatedAt = at
	return nil
}

func (s *bunEntityStore) SoftDelete(ctx context.Context, record *Post, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model(record).
		Set("deleted_at = ?", at).
		Set("updated_at = ?", at).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("post repository error: soft delete: %w", err)
	}
	record.DeletedAt = at
	record.UpdatedAt = at
	return nil
}

type bunAssociationStore struct {
	db bun.IDB
}

func (s *bunAssociationStore) Replace(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if err := s.Clear(ctx, postID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]*PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, &PostTag{PostID: postID, TagID: id})
	}
	if _, err := s.db.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("post repository error: link tags: %w", err)
	}
	return nil
}

func (s *bunAssociationStore) Clear(ctx context.Context, postID uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*PostTag)(nil)).
		Where("post_id = ?", postID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("post repository error: unlink tags: %w", err)
	}
	return nil
}

func (s *bunAssociationStore) ListTagIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.NewSelect().
		Model((*PostTag)(nil)).
		Column("tag_id").
		Where("?TableAlias.post_id = ?", postID).
		OrderExpr("?TableAlias.tag_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("post repository error: list tag ids: %w", err)
	}
	return ids, nil
}

func (s *bunAssociationStore) MissingTags(ctx context.Context, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	err := s.db.NewSelect().
		Model((*tags.Tag)(nil)).
		Column("id").
		Where("?TableAlias.id IN (?)", bun.In(tagIDs)).
		Scan(ctx, &found)
	if err != nil {
		return nil, fmt.Errorf("post repository error: check tags: %w", err)
	}
	return difference(tagIDs, found), nil
}

func (s *bunAssociationStore) VisibleTags(ctx context.Context, postIDs []uuid.UUID, languageID uuid.UUID) (map[uuid.UUID][]*tags.Tag, error) {
	out := make(map[uuid.UUID][]*tags.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var links []*PostTag
	err := s.db.NewSelect().
		Model(&links).
		Join("JOIN tags AS t ON t.id = ptg.tag_id").
		Where("ptg.post_id IN (?)", bun.In(postIDs)).
		Where("t.deleted_at IS NULL").
		Where("EXISTS (SELECT 1 FROM tag_translations AS ttx WHERE ttx.tag_id = t.id AND ttx.language_id = ?)", languageID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("post repository error: tag links: %w", err)
	}
	if len(links) == 0 {
		return out, nil
	}

	postsByTag := make(map[uuid.UUID][]uuid.UUID)
	tagIDs := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		if _, seen := postsByTag[link.TagID]; !seen {
			tagIDs = append(tagIDs, link.TagID)
		}
		postsByTag[link.TagID] = append(postsByTag[link.TagID], link.PostID)
	}

	var list []*tags.Tag
	err = s.db.NewSelect().
		Model(&list).
		Where("?TableAlias.id IN (?)", bun.In(tagIDs)).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("post repository error: tags: %w", err)
	}
	if err := tags.AttachTranslations(ctx, s.db, list, languageID); err != nil {
		return nil, err
	}
	for _, tag := range list {
		for _, postID := range postsByTag[tag.ID] {
			copied := *tag
			out[postID] = append(out[postID], &copied)
		}
	}
	return out, nil
}

// difference returns the ids in want that are absent from have.
func difference(want, have []uuid.UUID) []uuid.UUID {
	present := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
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
