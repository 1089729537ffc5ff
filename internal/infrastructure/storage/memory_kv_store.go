package storage

import (
	"bytes"
	"context"
	"sync"

	"defect-bot/internal/domain/port"
)

// MemoryKVStore in-memory хранилище блобов, используется в тестах и с driver=memory
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKVStore создаёт пустое хранилище
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{
		values: make(map[string][]byte),
	}
}

// Get возвращает копию значения
func (s *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set сохраняет копию значения
func (s *MemoryKVStore) Set(ctx context.Context, key string, value []byte) error {
	v := bytes.Clone(value)

	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()

	return nil
}

var _ port.KeyValueStore = (*MemoryKVStore)(nil)
