package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// ExportFormat represents the JSON structure for cache export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents one translation, keyed by "hash:locale".
type ExportEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Exporter provides cache export functionality.
type Exporter struct {
	cache *DictionaryCache
	now   func() time.Time
}

// NewExporter creates a new cache exporter.
func NewExporter(cache *DictionaryCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes every known translation to w in JSON format. Records
// sharing a hash are exported once.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) error {
	entries, err := e.entries(ctx)
	if err != nil {
		return fmt.Errorf("getting cache entries: %w", err)
	}

	export := ExportFormat{
		Version:    "1.0",
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ExportToFile exports the cache to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(ctx, f, metadata)
}

func (e *Exporter) entries(ctx context.Context) ([]ExportEntry, error) {
	doc, err := e.cache.Document(ctx)
	if err != nil {
		return nil, err
	}

	var entries []ExportEntry
	for hash, content := range doc.ByHash() {
		for locale, value := range content {
			entries = append(entries, ExportEntry{
				Key:   lingo.CacheKey(hash, locale),
				Value: value,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries, nil
}

// Importer provides cache import functionality.
type Importer struct {
	cache *DictionaryCache
}

// NewImporter creates a new cache importer.
func NewImporter(cache *DictionaryCache) *Importer {
	return &Importer{cache: cache}
}

// Import reads exported entries from r and merges them into every cache
// record with a matching hash. Entries whose hash has no record, or whose
// key is malformed, count as failed.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	values := make(map[string]map[string]string)
	for _, entry := range export.Entries {
		hash, locale, ok := splitCacheKey(entry.Key)
		if !ok {
			result.Failed++
			continue
		}
		if values[hash] == nil {
			values[hash] = make(map[string]string)
		}
		values[hash][locale] = entry.Value
	}

	applied, missing, err := i.cache.MergeHashes(ctx, values)
	if err != nil {
		return nil, err
	}
	result.Imported = applied
	result.Failed += missing

	return result, nil
}

// ImportFromFile imports cache entries from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

func splitCacheKey(key string) (hash, locale string, ok bool) {
	hash, locale, ok = strings.Cut(key, ":")
	if !ok || hash == "" || locale == "" {
		return "", "", false
	}
	return hash, locale, true
}
