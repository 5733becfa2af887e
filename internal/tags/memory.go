package tags

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/paging"
	"github.com/goliatone/go-polyglot/internal/translations"
)

// MemoryRepository is an in-memory implementation for scaffolding and tests.
// Atomic serialises units of work and restores a snapshot when fn fails.
type MemoryRepository struct {
	txMu         sync.Mutex
	entities     *memoryEntityStore
	translations *translations.MemoryStore[*TagTranslation]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entities:     &memoryEntityStore{tags: make(map[uuid.UUID]*Tag)},
		translations: translations.NewMemoryStore("tag_translation", cloneTranslation),
	}
}

func (m *MemoryRepository) Stores() Stores {
	return memoryStores{repo: m}
}

func (m *MemoryRepository) Atomic(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	entities := m.entities.snapshot()
	rows := m.translations.Snapshot()
	if err := fn(ctx, memoryStores{repo: m}); err != nil {
		m.entities.restore(entities)
		m.translations.Restore(rows)
		return err
	}
	return nil
}

func (m *MemoryRepository) ListVisible(_ context.Context, languageID uuid.UUID, limit, offset int) ([]*Tag, int, error) {
	visible := m.visible(m.entities.ordered(), languageID)
	total := len(visible)
	if limit <= 0 {
		limit = paging.PerPage
	}
	start := min(offset, total)
	end := min(start+limit, total)
	return visible[start:end], total, nil
}

func (m *MemoryRepository) GetByName(_ context.Context, name string) (*Tag, error) {
	m.entities.mu.RLock()
	defer m.entities.mu.RUnlock()
	for _, tag := range m.entities.tags {
		if tag.Name == name && !tag.IsDeleted() {
			return cloneTag(tag), nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "tag", Key: name}
}

func (m *MemoryRepository) PurgeDeleted(_ context.Context, before time.Time) (int, error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.entities.mu.Lock()
	var purged []uuid.UUID
	for id, tag := range m.entities.tags {
		if tag.IsDeleted() && tag.DeletedAt.Before(before) {
			delete(m.entities.tags, id)
			purged = append(purged, id)
		}
	}
	m.entities.mu.Unlock()

	for _, id := range purged {
		m.translations.DeleteByEntity(id)
	}
	return len(purged), nil
}

// Visible returns the tags among ids that are not deleted and have a
// translation in languageID, in ids order, each carrying that translation.
func (m *MemoryRepository) Visible(ids []uuid.UUID, languageID uuid.UUID) []*Tag {
	m.entities.mu.RLock()
	list := make([]*Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := m.entities.tags[id]; ok {
			list = append(list, cloneTag(tag))
		}
	}
	m.entities.mu.RUnlock()
	return m.visible(list, languageID)
}

// Exists reports whether id names a tag that is not soft deleted.
func (m *MemoryRepository) Exists(id uuid.UUID) bool {
	m.entities.mu.RLock()
	defer m.entities.mu.RUnlock()
	tag, ok := m.entities.tags[id]
	return ok && !tag.IsDeleted()
}

func (m *MemoryRepository) visible(list []*Tag, languageID uuid.UUID) []*Tag {
	byTag := map[uuid.UUID]*TagTranslation{}
	for _, tr := range m.translations.ListByLanguage(languageID) {
		byTag[tr.TagID] = tr
	}
	out := make([]*Tag, 0, len(list))
	for _, tag := range list {
		if tag.IsDeleted() {
			continue
		}
		tr, ok := byTag[tag.ID]
		if !ok {
			continue
		}
		tag.Translations = []*TagTranslation{tr}
		out = append(out, tag)
	}
	return out
}

type memoryStores struct {
	repo *MemoryRepository
}

func (s memoryStores) Tags() EntityStore {
	return s.repo.entities
}

func (s memoryStores) Translations() translations.Store[*TagTranslation] {
	return s.repo.translations
}

type memoryEntityStore struct {
	mu   sync.RWMutex
	tags map[uuid.UUID]*Tag
}

func (s *memoryEntityStore) GetByID(_ context.Context, id uuid.UUID) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[id]
	if !ok || tag.IsDeleted() {
		return nil, &domain.NotFoundError{Resource: "tag", Key: id.String()}
	}
	return cloneTag(tag), nil
}

func (s *memoryEntityStore) FindByName(_ context.Context, name string) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tag := range s.tags {
		if tag.Name == name {
			return cloneTag(tag), nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "tag", Key: name}
}

func (s *memoryEntityStore) Create(_ context.Context, record *Tag) (*Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tags[record.ID]; exists {
		return nil, fmt.Errorf("tag repository error: duplicate id %s", record.ID)
	}
	for _, tag := range s.tags {
		if tag.Name == record.Name {
			return nil, fmt.Errorf("tag repository error: duplicate name %q", record.Name)
		}
	}
	stored := cloneTag(record)
	stored.Translations = nil
	s.tags[record.ID] = stored
	return cloneTag(record), nil
}

func (s *memoryEntityStore) Update(_ context.Context, record *Tag) (*Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tags[record.ID]
	if !ok || existing.IsDeleted() {
		return nil, &domain.NotFoundError{Resource: "tag", Key: record.ID.String()}
	}
	existing.Name = record.Name
	existing.UpdatedAt = record.UpdatedAt
	return cloneTag(record), nil
}

func (s *memoryEntityStore) SoftDelete(_ context.Context, record *Tag, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tags[record.ID]
	if !ok || existing.IsDeleted() {
		return &domain.NotFoundError{Resource: "tag", Key: record.ID.String()}
	}
	existing.DeletedAt = at
	existing.UpdatedAt = at
	record.DeletedAt = at
	record.UpdatedAt = at
	return nil
}

func (s *memoryEntityStore) ordered() []*Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		out = append(out, cloneTag(tag))
	}
	slices.SortFunc(out, func(a, b *Tag) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func (s *memoryEntityStore) snapshot() map[uuid.UUID]*Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]*Tag, len(s.tags))
	for id, tag := range s.tags {
		out[id] = cloneTag(tag)
	}
	return out
}

func (s *memoryEntityStore) restore(tags map[uuid.UUID]*Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = tags
}
