package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process. maxItems > 0 caps the map on a
// best-effort basis: entries already expired at save time go first, then
// arbitrary ones.
type MemoryStore struct {
	maxItems int

	mu    sync.RWMutex
	items map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store; maxItems <= 0 means unbounded.
func NewMemoryStore(maxItems int) *MemoryStore {
	return &MemoryStore{maxItems: maxItems, items: make(map[string]Entry)}
}

// Load returns the entry for symbol, expired or not.
func (m *MemoryStore) Load(_ context.Context, symbol string) (Entry, bool, error) {
	m.mu.RLock()
	e, ok := m.items[symbol]
	m.mu.RUnlock()
	return e, ok, nil
}

// Save stores e, then trims the map down to maxItems.
func (m *MemoryStore) Save(_ context.Context, symbol string, e Entry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[symbol] = e
	if m.maxItems <= 0 || len(m.items) <= m.maxItems {
		return nil
	}
	savedAt := e.ExpiresAt.Add(-ttl)
	for k, v := range m.items {
		if len(m.items) <= m.maxItems {
			return nil
		}
		if !v.ExpiresAt.After(savedAt) {
			delete(m.items, k)
		}
	}
	for k := range m.items {
		if len(m.items) <= m.maxItems {
			break
		}
		if k != symbol {
			delete(m.items, k)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
