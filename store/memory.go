package store

import (
	"context"
	"slices"
	"sync"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]float32
}

// NewMemoryStore returns a process-local VectorStore.
func NewMemoryStore() VectorStore {
	return &inMemory{}
}

func (m *inMemory) Get(_ context.Context, keys []string) ([][]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([][]float32, len(keys))
	if m.storage == nil {
		return res, nil
	}
	for i, key := range keys {
		if vec, ok := m.storage[key]; ok {
			res[i] = slices.Clone(vec)
		}
	}
	return res, nil
}

func (m *inMemory) Put(_ context.Context, entries map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]float32)
	}
	for key, vec := range entries {
		m.storage[key] = slices.Clone(vec)
	}
	return nil
}
