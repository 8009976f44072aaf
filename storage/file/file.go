// Package file provides a single-file implementation of the
// inapp.KeyValueStore interface, the closest analogue to the preference
// stores mobile platforms keep per application. The whole map is written
// atomically on every change via a rename.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage implements inapp.KeyValueStore backed by one JSON file.
type Storage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// New creates a file storage adapter at path, loading any existing
// content. The parent directory must exist.
func New(path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &Storage{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("parse storage file: %w", err)
	}
	return s, nil
}

// Get implements inapp.KeyValueStore.
func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set implements inapp.KeyValueStore.
func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete implements inapp.KeyValueStore.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

func (s *Storage) flushLocked() error {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("marshal storage file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}

// Path returns the absolute path of the backing file.
func (s *Storage) Path() string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return s.path
	}
	return abs
}
