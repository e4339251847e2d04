package kv

import (
	"context"
	"slices"
	"strings"
	"sync"
)

var _ Store = &MemoryStore{}

type MemoryStore struct {
	guard  sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.guard.Lock()
	s.values[key] = value
	s.guard.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.guard.Lock()
	delete(s.values, key)
	s.guard.Unlock()
	return nil
}

func (s *MemoryStore) Scan(_ context.Context, prefix string, fn func(key, value string) error) error {
	s.guard.RLock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	values := make([]string, len(keys))
	slices.Sort(keys)
	for i, key := range keys {
		values[i] = s.values[key]
	}
	s.guard.RUnlock()

	for i, key := range keys {
		if err := fn(key, values[i]); err != nil {
			return err
		}
	}
	return nil
}
