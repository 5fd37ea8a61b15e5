package registry

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/sumitsaurabh927/lingo.dev-sub001/internal/fsutil"
)

// Store persists the serialized registry.
type Store interface {
	// Read returns the persisted bytes, or an error wrapping fs.ErrNotExist.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the persisted bytes.
	Write(ctx context.Context, data []byte) error
	// ModTime returns the time of the last modification.
	ModTime(ctx context.Context) (time.Time, error)
	// Ensure writes placeholder if nothing is persisted yet.
	Ensure(ctx context.Context, placeholder []byte) error
}

// FileStore keeps the registry in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// Read reads the registry file.
func (s *FileStore) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, nil
}

// Write atomically replaces the registry file.
func (s *FileStore) Write(ctx context.Context, data []byte) error {
	return fsutil.WriteFileAtomic(s.path, data)
}

// ModTime returns the file modification time.
func (s *FileStore) ModTime(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return info.ModTime(), nil
}

// Ensure creates the registry file with placeholder if it does not exist.
func (s *FileStore) Ensure(ctx context.Context, placeholder []byte) error {
	_, err := fsutil.CreateExclusive(s.path, placeholder)
	return err
}

// MemoryStore keeps the registry in memory. It is mostly useful for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	data    []byte
	exists  bool
	modTime time.Time
	writes  int
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Read returns the stored bytes.
func (s *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, fmt.Errorf("memory registry: %w", fs.ErrNotExist)
	}
	return bytes.Clone(s.data), nil
}

// Write replaces the stored bytes.
func (s *MemoryStore) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = bytes.Clone(data)
	s.exists = true
	s.modTime = s.now()
	s.writes++
	return nil
}

// ModTime returns the time of the last write.
func (s *MemoryStore) ModTime(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return time.Time{}, fmt.Errorf("memory registry: %w", fs.ErrNotExist)
	}
	return s.modTime, nil
}

// Ensure stores placeholder if nothing was written yet.
func (s *MemoryStore) Ensure(ctx context.Context, placeholder []byte) error {
	s.mu.RLock()
	exists := s.exists
	s.mu.RUnlock()
	if exists {
		return nil
	}
	return s.Write(ctx, placeholder)
}

// SetModTime overrides the recorded modification time.
func (s *MemoryStore) SetModTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modTime = t
}

// Writes returns how many writes the store has received.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
