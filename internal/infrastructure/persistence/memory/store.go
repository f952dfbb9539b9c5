// Package memory implements an in-process document store. It backs tests and
// the "memory" storage driver.
package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a closed store.
var ErrClosed = errors.New("memory: store is closed")

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Get returns a copy of the document under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// PutAll replaces every given key under one lock.
func (s *Store) PutAll(_ context.Context, docs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for k, v := range docs {
		s.docs[k] = append([]byte(nil), v...)
	}
	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
