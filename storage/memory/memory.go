// Package memory provides an in-memory implementation of the
// inapp.KeyValueStore interface. This implementation is primarily
// intended for testing and development; nothing survives a restart.
package memory

import (
	"context"
	"sync"
)

// Storage implements inapp.KeyValueStore using an in-memory map.
type Storage struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a new in-memory storage adapter.
func New() *Storage {
	return &Storage{values: make(map[string]string)}
}

// Get implements inapp.KeyValueStore.
func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set implements inapp.KeyValueStore.
func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete implements inapp.KeyValueStore.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
