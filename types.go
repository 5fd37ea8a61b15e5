// Package lingo provides the translation content pipeline primitives.
package lingo

import "sort"

// DictionaryFile holds the entries of a single document.
type DictionaryFile struct {
	Entries map[string]string `json:"entries"`
}

// Dictionary maps document and scope keys to content for one locale.
//
// A Dictionary is treated as a value: pipeline steps build new dictionaries
// instead of modifying the ones they receive. Set is meant for constructing
// a dictionary before it is handed on.
type Dictionary struct {
	Locale string                    `json:"locale"`
	Files  map[string]DictionaryFile `json:"files"`
}

// EntryKey addresses one entry of a dictionary.
type EntryKey struct {
	Document string
	Scope    string
}

// NewDictionary creates an empty dictionary for locale.
func NewDictionary(locale string) Dictionary {
	return Dictionary{
		Locale: locale,
		Files:  make(map[string]DictionaryFile),
	}
}

// Set stores value at (doc, key).
func (d *Dictionary) Set(doc, key, value string) {
	if d.Files == nil {
		d.Files = make(map[string]DictionaryFile)
	}
	f, ok := d.Files[doc]
	if !ok || f.Entries == nil {
		f = DictionaryFile{Entries: make(map[string]string)}
		d.Files[doc] = f
	}
	f.Entries[key] = value
}

// Get returns the value stored at (doc, key).
func (d Dictionary) Get(doc, key string) (string, bool) {
	f, ok := d.Files[doc]
	if !ok {
		return "", false
	}
	v, ok := f.Entries[key]
	return v, ok
}

// Has reports whether (doc, key) is present, even with an empty value.
func (d Dictionary) Has(doc, key string) bool {
	_, ok := d.Get(doc, key)
	return ok
}

// Len returns the total number of entries across all documents.
func (d Dictionary) Len() int {
	n := 0
	for _, f := range d.Files {
		n += len(f.Entries)
	}
	return n
}

// Documents returns the document keys in sorted order.
func (d Dictionary) Documents() []string {
	docs := make([]string, 0, len(d.Files))
	for doc := range d.Files {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// Keys returns every entry key, sorted by document and then by scope.
func (d Dictionary) Keys() []EntryKey {
	keys := make([]EntryKey, 0, d.Len())
	for _, doc := range d.Documents() {
		scopes := make([]string, 0, len(d.Files[doc].Entries))
		for key := range d.Files[doc].Entries {
			scopes = append(scopes, key)
		}
		sort.Strings(scopes)
		for _, key := range scopes {
			keys = append(keys, EntryKey{Document: doc, Scope: key})
		}
	}
	return keys
}

// Clone returns a deep copy of the dictionary.
func (d Dictionary) Clone() Dictionary {
	out := NewDictionary(d.Locale)
	for doc, f := range d.Files {
		entries := make(map[string]string, len(f.Entries))
		for k, v := range f.Entries {
			entries[k] = v
		}
		out.Files[doc] = DictionaryFile{Entries: entries}
	}
	return out
}

// WithLocale returns a copy of the dictionary labelled with locale.
func (d Dictionary) WithLocale(locale string) Dictionary {
	out := d.Clone()
	out.Locale = locale
	return out
}
