package cache

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-memory cache store.
type MemoryStore struct {
	doc   *Document
	mu    sync.RWMutex
	saves int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: NewDocument()}
}

// Load returns a copy of the stored document.
func (s *MemoryStore) Load(ctx context.Context) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

// Save stores a copy of doc.
func (s *MemoryStore) Save(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Len()
}

// Saves returns how many times the store was written.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Clear removes all records.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = NewDocument()
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
