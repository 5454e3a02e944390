// Package memory provides an in-process key-value store.
package memory

import (
	"context"
	"slices"
	"sync"

	"storefront/internal/domain/repository"
)

// kvStore keeps values in a map. Contents are lost when the process exits.
type kvStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewKeyValueStore creates an empty in-memory store.
func NewKeyValueStore() repository.KeyValueStore {
	return &kvStore{values: map[string][]byte{}}
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, repository.ErrKeyNotFound
	}

	return slices.Clone(value), nil
}

func (s *kvStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)

	return nil
}

func (s *kvStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}
