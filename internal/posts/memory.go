package posts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/paging"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/internal/translations"
)

// TagSource answers tag lookups for the in-memory association store.
// *tags.MemoryRepository satisfies it.
type TagSource interface {
	Visible(ids []uuid.UUID, languageID uuid.UUID) []*tags.Tag
	Exists(id uuid.UUID) bool
}

// MemoryRepository is an in-memory implementation for scaffolding and tests.
type MemoryRepository struct {
	txMu         sync.Mutex
	entities     *memoryEntityStore
	translations *translations.MemoryStore[*PostTranslation]
	links        *memoryAssociationStore
}

// NewMemoryRepository creates an empty repository resolving tags through source.
func NewMemoryRepository(source TagSource) *MemoryRepository {
	return &MemoryRepository{
		entities:     &memoryEntityStore{posts: make(map[uuid.UUID]*Post)},
		translations: translations.NewMemoryStore("post_translation", cloneTranslation),
		links:        &memoryAssociationStore{links: make(map[uuid.UUID][]uuid.UUID), source: source},
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
	links := m.links.snapshot()
	if err := fn(ctx, memoryStores{repo: m}); err != nil {
		m.entities.restore(entities)
		m.translations.Restore(rows)
		m.links.restore(links)
		return err
	}
	return nil
}

func (m *MemoryRepository) ListVisible(_ context.Context, languageID uuid.UUID, limit, offset int) ([]*Post, int, error) {
	byPost := map[uuid.UUID]*PostTranslation{}
	for _, tr := range m.translations.ListByLanguage(languageID) {
		byPost[tr.PostID] = tr
	}
	var visible []*Post
	for _, post := range m.entities.ordered() {
		if post.IsDeleted() {
			continue
		}
		tr, ok := byPost[post.ID]
		if !ok {
			continue
		}
		post.Translations = []*PostTranslation{tr}
		visible = append(visible, post)
	}
	total := len(visible)
	if limit <= 0 {
		limit = paging.PerPage
	}
	start := min(offset, total)
	end := min(start+limit, total)
	return visible[start:end], total, nil
}

func (m *MemoryRepository) Search(_ context.Context, languageID uuid.UUID, term string) (Cursor, error) {
	needle := strings.ToLower(term)
	var hits []SearchHit
	for _, tr := range m.translations.ListByLanguage(languageID) {
		if !m.entities.live(tr.PostID) {
			continue
		}
		for _, field := range []string{tr.Title, tr.Description, tr.Content} {
			if strings.Contains(strings.ToLower(field), needle) {
				hits = append(hits, SearchHit{PostID: tr.PostID, Title: tr.Title})
				break
			}
		}
	}
	return &sliceCursor{hits: hits, pos: -1}, nil
}

func (m *MemoryRepository) PurgeDeleted(_ context.Context, before time.Time) (int, error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.entities.mu.Lock()
	var purged []uuid.UUID
	for id, post := range m.entities.posts {
		if post.IsDeleted() && post.DeletedAt.Before(before) {
			delete(m.entities.posts, id)
			purged = append(purged, id)
		}
	}
	m.entities.mu.Unlock()

	for _, id := range purged {
		m.translations.DeleteByEntity(id)
		_ = m.links.Clear(context.Background(), id)
	}
	return len(purged), nil
}

type sliceCursor struct {
	hits []SearchHit
	pos  int
	err  error
}

func (c *sliceCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if c.pos+1 >= len(c.hits) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Hit() SearchHit { return c.hits[c.pos] }

func (c *sliceCursor) Err() error { return c.err }

func (c *sliceCursor) Close() error { return nil }

type memoryStores struct {
	repo *MemoryRepository
}

func (s memoryStores) Posts() EntityStore {
	return s.repo.entities
}

func (s memoryStores) Translations() translations.Store[*PostTranslation] {
	return s.repo.translations
}

func (s memoryStores) Associations() AssociationStore {
	return s.repo.links
}

type memoryEntityStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*Post
}

func (s *memoryEntityStore) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	if !ok || post.IsDeleted() {
		return nil, &domain.NotFoundError{Resource: "post", Key: id.String()}
	}
	return clonePost(post), nil
}

func (s *memoryEntityStore) Create(_ context.Context, record *Post) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[record.ID]; exists {
		return nil, fmt.Errorf("post repository error: duplicate id %s", record.ID)
	}
	stored := clonePost(record)
	stored.Translations = nil
	stored.Tags = nil
	s.posts[record.ID] = stored
	return clonePost(record), nil
}

func (s *memoryEntityStore) Touch(_ context.Context, record *Post, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[record.ID]
	if !ok || existing.IsDeleted() {
		return &domain.NotFoundError{Resource: "post", Key: record.ID.String()}
	}
	existing.UpdatedAt = at
	record.UpdatedAt = at
	return nil
}

func (s *memoryEntityStore) SoftDelete(_ context.Context, record *Post, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[record.ID]
	if !ok || existing.IsDeleted() {
		return &domain.NotFoundError{Resource: "post", Key: record.ID.String()}
	}
	existing.DeletedAt = at
	existing.UpdatedAt = at
	record.DeletedAt = at
	record.UpdatedAt = at
	return nil
}

func (s *memoryEntityStore) live(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	return ok && !post.IsDeleted()
}

func (s *memoryEntityStore) ordered() []*Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Post, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, clonePost(post))
	}
	slices.SortFunc(out, func(a, b *Post) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func (s *memoryEntityStore) snapshot() map[uuid.UUID]*Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]*Post, len(s.posts))
	for id, post := range s.posts {
		out[id] = clonePost(post)
	}
	return out
}

func (s *memoryEntityStore) restore(posts map[uuid.UUID]*Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}

type memoryAssociationStore struct {
	mu     sync.RWMutex
	links  map[uuid.UUID][]uuid.UUID
	source TagSource
}

func (s *memoryAssociationStore) Replace(_ context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tagIDs) == 0 {
		delete(s.links, postID)
		return nil
	}
	s.links[postID] = slices.Clone(tagIDs)
	return nil
}

func (s *memoryAssociationStore) Clear(_ context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, postID)
	return nil
}

func (s *memoryAssociationStore) ListTagIDs(_ context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Clone(s.links[postID])
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}

func (s *memoryAssociationStore) MissingTags(_ context.Context, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for _, id := range tagIDs {
		if s.source == nil || !s.source.Exists(id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *memoryAssociationStore) VisibleTags(_ context.Context, postIDs []uuid.UUID, languageID uuid.UUID) (map[uuid.UUID][]*tags.Tag, error) {
	out := make(map[uuid.UUID][]*tags.Tag, len(postIDs))
	if s.source == nil {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, postID := range postIDs {
		ids, ok := s.links[postID]
		if !ok {
			continue
		}
		visible := s.source.Visible(ids, languageID)
		slices.SortFunc(visible, func(a, b *tags.Tag) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return slices.Compare(a.ID[:], b.ID[:])
		})
		if len(visible) > 0 {
			out[postID] = visible
		}
	}
	return out, nil
}

func (s *memoryAssociationStore) snapshot() map[uuid.UUID][]uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID][]uuid.UUID, len(s.links))
	for id, ids := range s.links {
		out[id] = slices.Clone(ids)
	}
	return out
}

func (s *memoryAssociationStore) restore(links map[uuid.UUID][]uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = links
}
