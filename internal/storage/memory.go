package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryMedium keeps records in process memory. It backs tests and the
// "memory" data backend.
type MemoryMedium struct {
	mu     sync.RWMutex
	tables map[Kind]map[string][]byte
}

func NewMemoryMedium() *MemoryMedium {
	m := &MemoryMedium{tables: make(map[Kind]map[string][]byte, len(AllKinds))}
	for _, k := range AllKinds {
		m.tables[k] = make(map[string][]byte)
	}
	return m
}

func (m *MemoryMedium) Get(_ context.Context, kind Kind, key string) ([]byte, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.tables[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *MemoryMedium) Set(_ context.Context, kind Kind, key string, data []byte) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[kind][key] = slices.Clone(data)
	return nil
}

func (m *MemoryMedium) Delete(_ context.Context, kind Kind, key string) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables[kind], key)
	return nil
}

func (m *MemoryMedium) ListKeys(_ context.Context, kind Kind) ([]string, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.tables[kind]))
	for k := range m.tables[kind] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *MemoryMedium) Close() error { return nil }
