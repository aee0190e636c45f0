package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the context in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	value Context
	set   bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Context{}, ErrNotFound
	}
	return m.value, nil
}

func (m *MemoryStore) Save(ctx context.Context, c Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = c
	m.set = true
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = Context{}
	m.set = false
	return nil
}
