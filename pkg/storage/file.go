package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the key-value map as a single JSON document on disk.
// It is the local stand-in for browser localStorage: all keys live in one
// origin-scoped blob that survives process restarts.
type FileStore struct {
	path  string
	mu    sync.Mutex
	items map[string]string
}

// NewFileStore opens (or creates) the JSON document at path. An unreadable or
// malformed document is treated as empty rather than an error, matching the
// restore path's tolerance for corrupted storage.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	store := &FileStore{path: path, items: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, err
	}

	if jsonErr := json.Unmarshal(data, &store.items); jsonErr != nil {
		store.items = make(map[string]string)
	}
	return store, nil
}

// Get retrieves the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set stores value under key and flushes the document to disk.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return s.flush()
}

// Delete removes the given keys and flushes the document to disk.
func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := s.items[key]; ok {
			delete(s.items, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flush()
}

// Close flushes any pending state.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush writes the document atomically via a temp file rename. Caller must
// hold s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
