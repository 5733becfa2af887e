package languages

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// MemoryRepository stores languages by prefix.
type MemoryRepository struct {
	mu        sync.RWMutex
	languages map[string]*Language
}

// NewMemoryRepository constructs the repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		languages: make(map[string]*Language),
	}
}

// GetByPrefix resolves a language by prefix (case-insensitive).
func (m *MemoryRepository) GetByPrefix(_ context.Context, prefix string) (*Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lang, ok := m.languages[strings.ToLower(prefix)]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "language", Key: prefix}
	}
	copied := *lang
	return &copied, nil
}

// List returns every language ordered by prefix.
func (m *MemoryRepository) List(_ context.Context) ([]*Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Language, 0, len(m.languages))
	for _, lang := range m.languages {
		copied := *lang
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *Language) int { return strings.Compare(a.Prefix, b.Prefix) })
	return out, nil
}

// Create inserts a language; duplicate prefixes are rejected.
func (m *MemoryRepository) Create(_ context.Context, record *Language) (*Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(record.Prefix)
	if _, exists := m.languages[key]; exists {
		return nil, fmt.Errorf("language repository error: prefix %q already exists", record.Prefix)
	}
	copied := *record
	m.languages[key] = &copied
	out := copied
	return &out, nil
}
