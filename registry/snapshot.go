package registry

import (
	"encoding/json"
	"sort"
)

// Version is the persisted registry format version.
const Version = 1

// ScopeType is the kind of markup a scope was extracted from.
type ScopeType string

const (
	TypeElement   ScopeType = "element"
	TypeAttribute ScopeType = "attribute"
)

// Scope holds the extracted state of one translatable unit.
type Scope struct {
	Type      ScopeType         `json:"type"`
	Content   string            `json:"content"`
	Hash      string            `json:"hash"`
	Context   string            `json:"context,omitempty"`
	Skip      bool              `json:"skip,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

func (s Scope) clone() Scope {
	if s.Overrides != nil {
		o := make(map[string]string, len(s.Overrides))
		for k, v := range s.Overrides {
			o[k] = v
		}
		s.Overrides = o
	}
	return s
}

// File holds the scopes of one document.
type File struct {
	Scopes map[string]Scope `json:"scopes"`
}

// Snapshot is an immutable copy of the registry contents.
type Snapshot struct {
	Version int             `json:"version"`
	Files   map[string]File `json:"files"`
}

// EmptySnapshot returns a snapshot with no documents.
func EmptySnapshot() Snapshot {
	return Snapshot{Version: Version, Files: map[string]File{}}
}

// Marshal serializes the snapshot with documents and scopes sorted by key,
// so the persisted form only changes when the contents do.
func (s Snapshot) Marshal() ([]byte, error) {
	if s.Files == nil {
		s.Files = map[string]File{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Lookup returns the scope at (doc, key).
func (s Snapshot) Lookup(doc, key string) (Scope, bool) {
	f, ok := s.Files[doc]
	if !ok {
		return Scope{}, false
	}
	sc, ok := f.Scopes[key]
	return sc, ok
}

// Documents returns the document keys in sorted order.
func (s Snapshot) Documents() []string {
	docs := make([]string, 0, len(s.Files))
	for doc := range s.Files {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// Each calls fn for every scope, ordered by document and then scope key.
func (s Snapshot) Each(fn func(doc, key string, scope Scope)) {
	for _, doc := range s.Documents() {
		scopes := s.Files[doc].Scopes
		keys := make([]string, 0, len(scopes))
		for key := range scopes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fn(doc, key, scopes[key])
		}
	}
}

// Len returns the number of scopes in the snapshot.
func (s Snapshot) Len() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Scopes)
	}
	return n
}
