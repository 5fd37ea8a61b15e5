// Package cache provides the content-addressed dictionary cache.
//
// Translations are recorded per scope location together with the content
// hash of the source text. Lookups go through the hash, so a scope that is
// renamed, moved or duplicated keeps its translations as long as its
// source text is unchanged.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
)

// Version is the persisted cache format version.
const Version = 1

// Store persists the cache document.
type Store interface {
	// Load returns the stored document, or an empty one if nothing is stored.
	Load(ctx context.Context) (*Document, error)
	// Save replaces the stored document.
	Save(ctx context.Context, doc *Document) error
}

// Updater is implemented by stores shared between processes that can
// apply a read-modify-write as one transaction. fn receives the stored
// document and reports whether it changed it; it may run more than once.
type Updater interface {
	Update(ctx context.Context, fn func(doc *Document) (bool, error)) error
}

// Entry is the cache record of one scope location.
type Entry struct {
	Content map[string]string `json:"content"`
	Hash    string            `json:"hash"`
}

// File holds the records of one document.
type File struct {
	Entries map[string]Entry `json:"entries"`
}

// Document is the persisted cache.
type Document struct {
	Version int             `json:"version"`
	Files   map[string]File `json:"files"`
}

// NewDocument creates an empty cache document.
func NewDocument() *Document {
	return &Document{Version: Version, Files: make(map[string]File)}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := NewDocument()
	for doc, f := range d.Files {
		entries := make(map[string]Entry, len(f.Entries))
		for key, e := range f.Entries {
			content := make(map[string]string, len(e.Content))
			for locale, v := range e.Content {
				content[locale] = v
			}
			entries[key] = Entry{Content: content, Hash: e.Hash}
		}
		out.Files[doc] = File{Entries: entries}
	}
	return out
}

// Len returns the number of records.
func (d *Document) Len() int {
	n := 0
	for _, f := range d.Files {
		n += len(f.Entries)
	}
	return n
}

// Lookup returns the record at (doc, key).
func (d *Document) Lookup(doc, key string) (Entry, bool) {
	f, ok := d.Files[doc]
	if !ok {
		return Entry{}, false
	}
	e, ok := f.Entries[key]
	return e, ok
}

// Each calls fn for every record, ordered by document and then key.
func (d *Document) Each(fn func(doc, key string, e Entry)) {
	docs := make([]string, 0, len(d.Files))
	for doc := range d.Files {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	for _, doc := range docs {
		entries := d.Files[doc].Entries
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fn(doc, key, entries[key])
		}
	}
}

// ByHash collects the known content per hash and locale. When records
// sharing a hash disagree, the first record in document and key order wins.
func (d *Document) ByHash() map[string]map[string]string {
	index := make(map[string]map[string]string)
	d.Each(func(_, _ string, e Entry) {
		if e.Hash == "" {
			return
		}
		content, ok := index[e.Hash]
		if !ok {
			content = make(map[string]string)
			index[e.Hash] = content
		}
		for locale, v := range e.Content {
			if _, seen := content[locale]; !seen {
				content[locale] = v
			}
		}
	})
	return index
}

func (d *Document) set(doc, key string, e Entry) {
	f, ok := d.Files[doc]
	if !ok || f.Entries == nil {
		f = File{Entries: make(map[string]Entry)}
		d.Files[doc] = f
	}
	f.Entries[key] = e
}

// Marshal serializes the document. Documents, records and locales come out
// sorted, so the persisted form only changes when the contents do.
func (d *Document) Marshal() ([]byte, error) {
	out := *d
	if out.Files == nil {
		out.Files = map[string]File{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// UnmarshalDocument parses a persisted cache document.
func UnmarshalDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}
	if v := gjson.GetBytes(data, "version"); v.Exists() && v.Int() > Version {
		return nil, fmt.Errorf("unsupported cache version %d (max %d)", v.Int(), Version)
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding cache: %w", err)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]File)
	}
	for name, f := range doc.Files {
		if f.Entries == nil {
			doc.Files[name] = File{Entries: make(map[string]Entry)}
			continue
		}
		for key, e := range f.Entries {
			if e.Content == nil {
				e.Content = make(map[string]string)
				f.Entries[key] = e
			}
		}
	}
	doc.Version = Version
	return doc, nil
}
