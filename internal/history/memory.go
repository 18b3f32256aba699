package history

import (
	"context"
	"sync"

	"despesas/internal/cache"
)

// MemoryStore keeps each user's names in a size bounded LRU cache keyed by
// the normalized name.
type MemoryStore struct {
	mu    sync.Mutex
	limit int
	users map[string]cache.Cache[string]
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &MemoryStore{limit: limit, users: make(map[string]cache.Cache[string])}
}

func (m *MemoryStore) names(userID string) cache.Cache[string] {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.users[userID]
	if !ok {
		c = cache.NewLRUCache[string](m.limit, 0)
		m.users[userID] = c
	}
	return c
}

func (m *MemoryStore) Push(_ context.Context, userID, name string) error {
	m.names(userID).Set(normalize(name), name)
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]string, error) {
	return m.names(userID).Values(), nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.names(userID).Clear()
	return nil
}
