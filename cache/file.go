package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sumitsaurabh927/lingo.dev-sub001/internal/fsutil"
)

// FileStore keeps the cache in a single JSON file.
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

// Load reads the cache file. A missing file yields an empty document.
func (s *FileStore) Load(ctx context.Context) (*Document, error) {
	data, err := os.ReadFile(s.path) // #nosec G304 - path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return UnmarshalDocument(data)
}

// Save atomically replaces the cache file.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, data)
}

// Verify FileStore implements Store
var _ Store = (*FileStore)(nil)
