package translations

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// MemoryStore keeps translation rows in insertion order. Records are cloned
// on the way in and out.
type MemoryStore[T Record] struct {
	mu       sync.RWMutex
	resource string
	rows     []T
	clone    func(T) T
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore[T Record](resource string, clone func(T) T) *MemoryStore[T] {
	return &MemoryStore[T]{resource: resource, clone: clone}
}

func (m *MemoryStore[T]) FindByEntityAndLanguage(_ context.Context, entityID, languageID uuid.UUID) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows {
		if row.GetEntityID() == entityID && row.GetLanguageID() == languageID {
			return m.clone(row), nil
		}
	}
	var zero T
	return zero, &domain.NotFoundError{Resource: m.resource, Key: entityID.String()}
}

func (m *MemoryStore[T]) ListByEntity(_ context.Context, entityID uuid.UUID) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, row := range m.rows {
		if row.GetEntityID() == entityID {
			out = append(out, m.clone(row))
		}
	}
	return out, nil
}

// ListByLanguage returns every row for languageID in insertion order.
func (m *MemoryStore[T]) ListByLanguage(languageID uuid.UUID) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, row := range m.rows {
		if row.GetLanguageID() == languageID {
			out = append(out, m.clone(row))
		}
	}
	return out
}

func (m *MemoryStore[T]) Create(_ context.Context, record T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.GetID() == record.GetID() {
			var zero T
			return zero, fmt.Errorf("%s store: duplicate id %s", m.resource, record.GetID())
		}
		if row.GetEntityID() == record.GetEntityID() && row.GetLanguageID() == record.GetLanguageID() {
			var zero T
			return zero, fmt.Errorf("%s store: duplicate translation for %s", m.resource, record.GetEntityID())
		}
	}
	m.rows = append(m.rows, m.clone(record))
	return m.clone(record), nil
}

func (m *MemoryStore[T]) Update(_ context.Context, record T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.GetID() == record.GetID() {
			m.rows[i] = m.clone(record)
			return m.clone(record), nil
		}
	}
	var zero T
	return zero, &domain.NotFoundError{Resource: m.resource, Key: record.GetID().String()}
}

func (m *MemoryStore[T]) Delete(_ context.Context, record T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.GetID() == record.GetID() {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Resource: m.resource, Key: record.GetID().String()}
}

// DeleteByEntity drops every row of entityID. Used to mimic cascades.
func (m *MemoryStore[T]) DeleteByEntity(entityID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.GetEntityID() != entityID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
}

// Snapshot copies the current rows.
func (m *MemoryStore[T]) Snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.rows))
	for i, row := range m.rows {
		out[i] = m.clone(row)
	}
	return out
}

// Restore replaces the rows with a snapshot.
func (m *MemoryStore[T]) Restore(rows []T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}
