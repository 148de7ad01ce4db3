// Package memory provides in-memory implementations of storage ports.
// Data lives as long as the process, which matches a browser session.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/artpar/warsztat/ports"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory: store closed")

// DocumentStore is an in-memory implementation of ports.DocumentStore.
type DocumentStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool

	// FailPut, when set, is returned by Put (for testing flush failures).
	FailPut error
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string][]byte)}
}

// Get returns a copy of the stored document.
func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	data, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Put stores a copy of data under key.
func (s *DocumentStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.FailPut != nil {
		return s.FailPut
	}
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes the document stored under key.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.docs, key)
	return nil
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close marks the store closed and drops its contents.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.docs = nil
	return nil
}

var _ ports.DocumentStore = (*DocumentStore)(nil)
