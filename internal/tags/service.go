package tags

import (
	"context"
	"errors"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/paging"
	"github.com/goliatone/go-polyglot/internal/translations"
	"github.com/goliatone/go-polyglot/internal/validation"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

const resourceTag = "tag"

// Service orchestrates tag CRUD across the tag and translation stores.
type Service interface {
	List(ctx context.Context, lang string, page int) (paging.Page[*Tag], error)
	Get(ctx context.Context, lang string, id uuid.UUID) (*Tag, error)
	GetByName(ctx context.Context, name string) (*Tag, error)
	Create(ctx context.Context, req CreateTagRequest) (*Tag, error)
	Update(ctx context.Context, req UpdateTagRequest) (*Tag, error)
	UpdateCore(ctx context.Context, req UpdateTagCoreRequest) (*Tag, error)
	UpdateTranslation(ctx context.Context, req UpdateTagTranslationRequest) (*Tag, error)
	Delete(ctx context.Context, lang string, id uuid.UUID) (translations.Outcome, error)
	PurgeDeleted(ctx context.Context, before time.Time) (int, error)
}

// ServiceOption configures the service at construction time.
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

// WithLogger overrides the service logger.
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

// NewService constructs a tag service with the required dependencies.
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

func (s *service) List(ctx context.Context, lang string, page int) (paging.Page[*Tag], error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return paging.Page[*Tag]{}, err
	}
	page = paging.Normalize(page)
	records, total, err := s.repo.ListVisible(ctx, language.ID, paging.PerPage, paging.Offset(page))
	if err != nil {
		return paging.Page[*Tag]{}, err
	}
	for _, tag := range records {
		decorate(tag, language)
	}
	return paging.New(records, page, total), nil
}

func (s *service) Get(ctx context.Context, lang string, id uuid.UUID) (*Tag, error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return nil, err
	}
	return loadView(ctx, s.repo.Stores(), id, language)
}

func (s *service) GetByName(ctx context.Context, name string) (*Tag, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

func (s *service) Create(ctx context.Context, req CreateTagRequest) (*Tag, error) {
	name := strings.TrimSpace(req.Name)
	title := strings.TrimSpace(req.Title)
	if err := validateTag(name, title); err != nil {
		return nil, err
	}
	language, err := languages.Require(ctx, s.languages, req.Language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *Tag
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		if err := ensureNameAvailable(ctx, stores.Tags(), name, uuid.Nil); err != nil {
			return err
		}
		created, err := stores.Tags().Create(ctx, &Tag{
			ID:        s.id(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		tr, err := stores.Translations().Create(ctx, &TagTranslation{
			ID:         s.id(),
			TagID:      created.ID,
			LanguageID: language.ID,
			Title:      title,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}
		created.Translations = []*TagTranslation{tr}
		result = decorate(created, language)
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "tag.create.failed", err, uuid.Nil, req.Language)
		return nil, err
	}
	s.logger.WithContext(ctx).Info("tag.created", "tag_id", result.ID, "language", language.Prefix)
	return result, nil
}

// Update applies UpdateCore and UpdateTranslation in one transaction.
func (s *service) Update(ctx context.Context, req UpdateTagRequest) (*Tag, error) {
	name := strings.TrimSpace(req.Name)
	title := strings.TrimSpace(req.Title)
	if err := validateTag(name, title); err != nil {
		return nil, err
	}
	language, err := languages.Require(ctx, s.languages, req.Language)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *Tag
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		tag, err := s.updateCore(ctx, stores, req.ID, name, now)
		if err != nil {
			return err
		}
		tr, err := s.upsertTitle(ctx, stores, tag.ID, language, title, now)
		if err != nil {
			return err
		}
		tag.Translations = []*TagTranslation{tr}
		result = decorate(tag, language)
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "tag.update.failed", err, req.ID, req.Language)
		return nil, err
	}
	s.logger.WithContext(ctx).Info("tag.updated", "tag_id", result.ID, "language", language.Prefix)
	return result, nil
}

// UpdateCore changes the global name. The result carries no translations.
func (s *service) UpdateCore(ctx context.Context, req UpdateTagCoreRequest) (*Tag, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.FromOzzo(ozzo.Validate(name, nameRules()...), "name"); err != nil {
		return nil, err
	}
	var result *Tag
	err := s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		tag, err := s.updateCore(ctx, stores, req.ID, name, s.now())
		if err != nil {
			return err
		}
		result = tag
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "tag.update_core.failed", err, req.ID, "")
		return nil, err
	}
	s.logger.WithContext(ctx).Info("tag.core_updated", "tag_id", result.ID)
	return result, nil
}

// UpdateTranslation upserts the title in one language and touches updated_at.
func (s *service) UpdateTranslation(ctx context.Context, req UpdateTagTranslationRequest) (*Tag, error) {
	title := strings.TrimSpace(req.Title)
	if err := validation.FromOzzo(ozzo.Validate(title, titleRules()...), "title"); err != nil {
		return nil, err
	}
	language, err := languages.Require(ctx, s.languages, req.Language)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var result *Tag
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		tag, err := stores.Tags().GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		tag.UpdatedAt = now
		if _, err := stores.Tags().Update(ctx, tag); err != nil {
			return err
		}
		tr, err := s.upsertTitle(ctx, stores, tag.ID, language, title, now)
		if err != nil {
			return err
		}
		tag.Translations = []*TagTranslation{tr}
		result = decorate(tag, language)
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "tag.update_translation.failed", err, req.ID, req.Language)
		return nil, err
	}
	s.logger.WithContext(ctx).Info("tag.translation_updated", "tag_id", result.ID, "language", language.Prefix)
	return result, nil
}

// Delete removes the lang translation and soft deletes the tag once no
// translation remains. Post associations are left in place.
func (s *service) Delete(ctx context.Context, lang string, id uuid.UUID) (translations.Outcome, error) {
	language, err := languages.Require(ctx, s.languages, lang)
	if err != nil {
		return translations.Outcome{}, err
	}
	var outcome translations.Outcome
	err = s.repo.Atomic(ctx, func(ctx context.Context, stores Stores) error {
		tag, err := stores.Tags().GetByID(ctx, id)
		if err != nil {
			return err
		}
		removal, err := translations.Remove(ctx, stores.Translations(), tag.ID, language.ID)
		if err != nil {
			return err
		}
		outcome = translations.NewOutcome(resourceTag, tag.ID, language.Prefix, removal)
		if outcome.SoftDeleted() {
			return stores.Tags().SoftDelete(ctx, tag, s.now())
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "tag.delete.failed", err, id, lang)
		return translations.Outcome{}, err
	}
	s.logger.WithContext(ctx).Info("tag.deleted", "tag_id", id, "language", language.Prefix, "remaining", outcome.Remaining, "soft_deleted", outcome.SoftDeleted())
	return outcome, nil
}

func (s *service) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	purged, err := s.repo.PurgeDeleted(ctx, before)
	if err != nil {
		s.logger.WithContext(ctx).Error("tag.purge.failed", "error", err)
		return 0, err
	}
	s.logger.WithContext(ctx).Info("tag.purged", "count", purged, "before", before)
	return purged, nil
}

func (s *service) updateCore(ctx context.Context, stores Stores, id uuid.UUID, name string, now time.Time) (*Tag, error) {
	tag, err := stores.Tags().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureNameAvailable(ctx, stores.Tags(), name, tag.ID); err != nil {
		return nil, err
	}
	tag.Name = name
	tag.UpdatedAt = now
	return stores.Tags().Update(ctx, tag)
}

func (s *service) upsertTitle(ctx context.Context, stores Stores, tagID uuid.UUID, language *languages.Language, title string, now time.Time) (*TagTranslation, error) {
	tr, _, err := translations.Upsert(ctx, stores.Translations(), tagID, language.ID,
		func() *TagTranslation {
			return &TagTranslation{
				ID:         s.id(),
				TagID:      tagID,
				LanguageID: language.ID,
				Title:      title,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
		},
		func(existing *TagTranslation) {
			existing.Title = title
			existing.UpdatedAt = now
		},
	)
	return tr, err
}

func (s *service) logFailure(ctx context.Context, event string, err error, id uuid.UUID, lang string) {
	logger := s.logger.WithContext(ctx)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		logger.Debug(event, "tag_id", id, "language", lang, "error", err)
		return
	}
	logger.Error(event, "tag_id", id, "language", lang, "error", err)
}

func loadView(ctx context.Context, stores Stores, id uuid.UUID, language *languages.Language) (*Tag, error) {
	tag, err := stores.Tags().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := stores.Translations().FindByEntityAndLanguage(ctx, tag.ID, language.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: resourceTag, Key: id.String()}
		}
		return nil, err
	}
	tag.Translations = []*TagTranslation{tr}
	return decorate(tag, language), nil
}

const nameTakenMessage = "The name has already been taken."

// ensureNameAvailable rejects names held by another tag, soft deleted included.
func ensureNameAvailable(ctx context.Context, store EntityStore, name string, self uuid.UUID) error {
	existing, err := store.FindByName(ctx, name)
	switch {
	case err == nil:
		if existing.ID == self {
			return nil
		}
		return domain.NewFieldError("name", nameTakenMessage)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func decorate(tag *Tag, language *languages.Language) *Tag {
	for _, tr := range tag.Translations {
		if tr.LanguageID == language.ID {
			tr.Language = language.Prefix
		}
	}
	return tag
}

func nameRules() []ozzo.Rule {
	return []ozzo.Rule{
		ozzo.Required.Error("The name field is required."),
		ozzo.RuneLength(3, 32).Error("The name must be between 3 and 32 characters."),
	}
}

func titleRules() []ozzo.Rule {
	return []ozzo.Rule{
		ozzo.Required.Error("The title field is required."),
		ozzo.RuneLength(3, 64).Error("The title must be between 3 and 64 characters."),
	}
}

type tagInput struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func validateTag(name, title string) error {
	in := tagInput{Name: name, Title: title}
	return validation.FromOzzo(ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Name, nameRules()...),
		ozzo.Field(&in.Title, titleRules()...),
	), "")
}
