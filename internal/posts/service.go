package posts

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/paging"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/internal/translations"
	"github.com/goliatone/go-polyglot/internal/validation"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

const resourcePost = "post"

// Service orchestrates post CRUD across the post, translation and
// association stores.
type Service interface {
	List(ctx context.Context, lang string, page int) (paging.Page[*Post], error)
	Get(ctx context.Context, lang string, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, req CreatePostRequest) (*Post, error)
	Update(ctx context.Context, req UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, lang string, id uuid.UUID) (translations.Outcome, error)
	// Search resolves lang eagerly and returns a sequence that can be ranged
	// once. Ranging it again yields domain.ErrCursorConsumed.
	Search(ctx context.Context, lang, term string) (iter.Seq2[SearchHit, error], error)
	PurgeDeleted(ctx context.Context, before time.Time) (int, error)
}

type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo      Repository
	languages languages.Registry
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService constructs a post service with the required dependencies.
func NewService(repo Repository, registry languages.Registry, opts ...ServiceOption) Service {
	s := &service{
		repo:      repo,
		languages: registry,
		now:       time.Now,
		id:        uuid.New,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context, lang string, page int) (paging.Page[*Post], error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return paging.Page[*Post]{}, err
	}
	page = paging.Normalize(page)
	records, total, err := s.repo.ListVisible(ctx, language.ID, paging.PerPage, paging.Offset(page))
	if err != nil {
		return paging.Page[*Post]{}, err
	}
	ids := make([]uuid.UUID, 0, len(records))
	for _, post := range records {
		ids = append(ids, post.ID)
	}
	tagsByPost, err := s.repo.Stores().Associations().VisibleTags(ctx, ids, language.ID)
	if err != nil {
		return paging.Page[*Post]{}, err
	}
	for _, post := range records {
		post.Tags = tagsByPost[post.ID]
		decorate(post, language)
	}
	return paging.New(records, page, total), nil
}

func (s *service) Get(ctx context.Context, lang string, id uuid.UUID) (*Post, error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return nil, err
	}
	return loadView(ctx, s.repo.Stores(), id, language)
}

func (s *service) Create(ctx context.Context, req CreatePostRequest) (*Post, error) {
	input := normalizeInput(req.Translation)
	if err := validateTranslation(input); err != nil {
		return nil, err
	}
	language, err := languages.Require(ctx, s.languages, req.Language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *Post
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		if err := ensureTagsExist(ctx, stores.Associations(), req.TagIDs); err != nil {
			return err
		}
		post, err := stores.Posts().Create(ctx, &Post{
			ID:        s.id(),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		_, err = stores.Translations().Create(ctx, &PostTranslation{
			ID:          s.id(),
			PostID:      post.ID,
			LanguageID:  language.ID,
			Title:       input.Title,
			Description: input.Description,
			Content:     input.Content,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		if req.TagIDs != nil {
			if err := stores.Associations().Replace(ctx, post.ID, dedupe(req.TagIDs)); err != nil {
				return err
			}
		}
		result, err = loadView(ctx, stores, post.ID, language)
		return err
	})
	if err != nil {
		s.logFailure(ctx, "post.create.failed", err, uuid.Nil, req.Language)
		return nil, err
	}
	s.logger.WithContext(ctx).Info("post.created", "post_id", result.ID, "language", language.Prefix, "tags", len(result.Tags))
	return result, nil
}

func (s *service) Update(ctx context.Context, req UpdatePostRequest) (*Post, error) {
	input := normalizeInput(req.Translation)
	if err := validateTranslation(input); err != nil {
		return nil, err
	}
	language, err := languages.Require(ctx, s.languages, req.Language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *Post
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		post, err := stores.Posts().GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if err := ensureTagsExist(ctx, stores.Associations(), req.TagIDs); err != nil {
			return err
		}
		_, created, err := translations.Upsert(ctx, stores.Translations(), post.ID, language.ID,
			func() *PostTranslation {
				return &PostTranslation{
					ID:          s.id(),
					PostID:      post.ID,
					LanguageID:  language.ID,
					Title:       input.Title,
					Description: input.Description,
					Content:     input.Content,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
			},
			func(existing *PostTranslation) {
				existing.Title = input.Title
				existing.Description = input.Description
				existing.Content = input.Content
				existing.UpdatedAt = now
			},
		)
		if err != nil {
			return err
		}
		if req.TagIDs != nil {
			if err := stores.Associations().Replace(ctx, post.ID, dedupe(req.TagIDs)); err != nil {
				return err
			}
		}
		if err := stores.Posts().Touch(ctx, post, now); err != nil {
			return err
		}
		s.logger.WithContext(ctx).Debug("post.translation.upserted", "post_id", post.ID, "language", language.Prefix, "created", created)
		result, err = loadView(ctx, stores, post.ID, language)
		return err
	})
	if err != nil {
		s.logFailure(ctx, "post.update.failed", err, req.ID, req.Language)
		return nil, err
	}
	s.logger.WithContext(ctx).Info("post.updated", "post_id", result.ID, "language", language.Prefix)
	return result, nil
}

// Delete removes the lang translation. Once no translation remains the tag
// associations are cleared and the post is soft deleted.
func (s *service) Delete(ctx context.Context, lang string, id uuid.UUID) (translations.Outcome, error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return translations.Outcome{}, err
	}
	var outcome translations.Outcome
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		post, err := stores.Posts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		removal, err := translations.Remove(ctx, stores.Translations(), post.ID, language.ID)
		if err != nil {
			return err
		}
		outcome = translations.NewOutcome(resourcePost, post.ID, language.Prefix, removal)
		if !outcome.SoftDeleted() {
			return nil
		}
		if err := stores.Associations().Clear(ctx, post.ID); err != nil {
			return err
		}
		return stores.Posts().SoftDelete(ctx, post, s.now())
	})
	if err != nil {
		s.logFailure(ctx, "post.delete.failed", err, id, lang)
		return translations.Outcome{}, err
	}
	s.logger.WithContext(ctx).Info("post.deleted", "post_id", id, "language", language.Prefix, "remaining", outcome.Remaining, "soft_deleted", outcome.SoftDeleted())
	return outcome, nil
}

func (s *service) Search(ctx context.Context, lang, term string) (iter.Seq2[SearchHit, error], error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return nil, err
	}
	var consumed atomic.Bool
	return func(yield func(SearchHit, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(SearchHit{}, domain.ErrCursorConsumed)
			return
		}
		cursor, err := s.repo.Search(ctx, language.ID, term)
		if err != nil {
			s.logger.WithContext(ctx).Error("post.search.failed", "language", language.Prefix, "error", err)
			yield(SearchHit{}, err)
			return
		}
		defer cursor.Close()
		for cursor.Next(ctx) {
			if !yield(cursor.Hit(), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(SearchHit{}, err)
		}
	}, nil
}

func (s *service) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	purged, err := s.repo.PurgeDeleted(ctx, before)
	if err != nil {
		s.logger.WithContext(ctx).Error("post.purge.failed", "error", err)
		return 0, err
	}
	s.logger.WithContext(ctx).Info("post.purged", "count", purged, "before", before)
	return purged, nil
}

func (s *service) logFailure(ctx context.Context, event string, err error, id uuid.UUID, lang string) {
	logger := s.logger.WithContext(ctx)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		logger.Debug(event, "post_id", id, "language", lang, "error", err)
		return
	}
	logger.Error(event, "post_id", id, "language", lang, "error", err)
}

func loadView(ctx context.Context, stores Stores, id uuid.UUID, language *languages.Language) (*Post, error) {
	post, err := stores.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := stores.Translations().FindByEntityAndLanguage(ctx, post.ID, language.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: resourcePost, Key: id.String()}
		}
		return nil, err
	}
	post.Translations = []*PostTranslation{tr}
	tagsByPost, err := stores.Associations().VisibleTags(ctx, []uuid.UUID{post.ID}, language.ID)
	if err != nil {
		return nil, err
	}
	post.Tags = tagsByPost[post.ID]
	return decorate(post, language), nil
}

// ensureTagsExist reports every id that does not name a live tag under its
// position in the request.
func ensureTagsExist(ctx context.Context, store AssociationStore, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := store.MissingTags(ctx, dedupe(ids))
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	absent := make(map[uuid.UUID]struct{}, len(missing))
	for _, id := range missing {
		absent[id] = struct{}{}
	}
	verr := &domain.ValidationError{}
	for i, id := range ids {
		if _, ok := absent[id]; ok {
			field := fmt.Sprintf("tags.%d.id", i)
			verr.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
		}
	}
	return verr
}

// dedupe keeps the first occurrence of every id. A non-nil input yields a
// non-nil result.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func decorate(post *Post, language *languages.Language) *Post {
	for _, tr := range post.Translations {
		if tr.LanguageID == language.ID {
			tr.Language = language.Prefix
		}
	}
	if post.Tags == nil {
		post.Tags = []*tags.Tag{}
	}
	for _, tag := range post.Tags {
		for _, tr := range tag.Translations {
			if tr.LanguageID == language.ID {
				tr.Language = language.Prefix
			}
		}
	}
	return post
}

func normalizeInput(in TranslationInput) TranslationInput {
	return TranslationInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Content:     strings.TrimSpace(in.Content),
	}
}

func validateTranslation(in TranslationInput) error {
	return validation.FromOzzo(ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Title,
			ozzo.Required.Error("The translations.title field is required."),
			ozzo.RuneLength(3, 0).Error("The translations.title must be at least 3 characters."),
		),
		ozzo.Field(&in.Description,
			ozzo.Required.Error("The translations.description field is required."),
			ozzo.RuneLength(5, 0).Error("The translations.description must be at least 5 characters."),
		),
		ozzo.Field(&in.Content,
			ozzo.Required.Error("The translations.content field is required."),
			ozzo.RuneLength(6, 0).Error("The translations.content must be at least 6 characters."),
		),
	), "translations")
}
