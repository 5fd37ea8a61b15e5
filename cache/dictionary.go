package cache

import (
	"bytes"
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// DictionaryCache reads and writes per-locale dictionaries through a Store,
// resolving scopes to cache records by content hash.
type DictionaryCache struct {
	store  Store
	mu     sync.Mutex
	logger zerolog.Logger
}

// Option configures a DictionaryCache.
type Option func(*DictionaryCache)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *DictionaryCache) {
		c.logger = l
	}
}

// NewDictionaryCache creates a dictionary cache over store.
func NewDictionaryCache(store Store, opts ...Option) *DictionaryCache {
	c := &DictionaryCache{
		store:  store,
		logger: log.Logger.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store.
func (c *DictionaryCache) Store() Store {
	return c.store
}

// Document returns a copy of the persisted cache document.
func (c *DictionaryCache) Document(ctx context.Context) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *DictionaryCache) load(ctx context.Context) (*Document, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, &lingo.StoreError{Store: "cache", Op: "load", Cause: err}
	}
	return doc, nil
}

// ReadLocale returns the cached content for locale of every scope in snap,
// placed at the scope's current location. Scopes without cached content
// are absent from the result.
func (c *DictionaryCache) ReadLocale(ctx context.Context, locale string, snap registry.Snapshot) (lingo.Dictionary, error) {
	doc, err := c.Document(ctx)
	if err != nil {
		return lingo.Dictionary{}, err
	}

	out := lingo.NewDictionary(locale)
	index := doc.ByHash()

	snap.Each(func(docKey, key string, sc registry.Scope) {
		// A record at the scope's own location wins over other records
		// sharing the hash.
		if e, ok := doc.Lookup(docKey, key); ok && e.Hash == sc.Hash {
			if v, ok := e.Content[locale]; ok {
				out.Set(docKey, key, v)
				return
			}
		}
		if v, ok := index[sc.Hash][locale]; ok {
			out.Set(docKey, key, v)
		}
	})
	return out, nil
}

// update applies fn to the stored document and saves it when fn reports a
// change. Stores implementing Updater run fn inside their own transaction
// so that writers in other processes are not lost; other stores are only
// serialized within this process.
func (c *DictionaryCache) update(ctx context.Context, fn func(doc *Document) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.store.(Updater); ok {
		if err := u.Update(ctx, fn); err != nil {
			return &lingo.StoreError{Store: "cache", Op: "update", Cause: err}
		}
		return nil
	}

	doc, err := c.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return &lingo.StoreError{Store: "cache", Op: "encode", Cause: err}
	}
	if !changed {
		return nil
	}
	if err := c.store.Save(ctx, doc); err != nil {
		return &lingo.StoreError{Store: "cache", Op: "save", Cause: err}
	}
	return nil
}

// WriteLocale merges dict into the cache under dict.Locale.
//
// Each entry is recorded at its location with the hash the scope has in
// snap, and every other record with that hash receives the same value.
// Entries without a scope in snap are skipped. Other locales of a record
// are left untouched. Writing the same dictionary twice is a no-op.
func (c *DictionaryCache) WriteLocale(ctx context.Context, dict lingo.Dictionary, snap registry.Snapshot) error {
	var skipped int
	var changed bool
	err := c.update(ctx, func(doc *Document) (bool, error) {
		before, err := doc.Marshal()
		if err != nil {
			return false, err
		}
		skipped = mergeLocale(doc, dict, snap)
		after, err := doc.Marshal()
		if err != nil {
			return false, err
		}
		changed = !bytes.Equal(before, after)
		return changed, nil
	})
	if err != nil {
		return err
	}

	if skipped > 0 {
		c.logger.Debug().Int("skipped", skipped).Str("locale", dict.Locale).
			Msg("Skipped entries without a registry scope")
	}
	if changed {
		c.logger.Debug().Str("locale", dict.Locale).Int("entries", dict.Len()).Msg("Cache updated")
	}
	return nil
}

// mergeLocale records dict in doc and returns how many entries had no
// scope in snap.
func mergeLocale(doc *Document, dict lingo.Dictionary, snap registry.Snapshot) int {
	index := doc.ByHash()
	locations := make(map[string][]lingo.EntryKey)
	doc.Each(func(docKey, key string, e Entry) {
		locations[e.Hash] = append(locations[e.Hash], lingo.EntryKey{Document: docKey, Scope: key})
	})

	skipped := 0
	for _, k := range dict.Keys() {
		sc, ok := snap.Lookup(k.Document, k.Scope)
		if !ok || sc.Hash == "" {
			skipped++
			continue
		}
		value, _ := dict.Get(k.Document, k.Scope)

		e, ok := doc.Lookup(k.Document, k.Scope)
		if !ok || e.Hash != sc.Hash {
			// New text at this location: start from what is known for the hash.
			e = Entry{Hash: sc.Hash, Content: make(map[string]string, len(index[sc.Hash])+1)}
			for locale, v := range index[sc.Hash] {
				e.Content[locale] = v
			}
			locations[sc.Hash] = append(locations[sc.Hash], k)
		}
		if e.Content == nil {
			e.Content = make(map[string]string)
		}
		e.Content[dict.Locale] = value
		doc.set(k.Document, k.Scope, e)

		for _, loc := range locations[sc.Hash] {
			other, ok := doc.Lookup(loc.Document, loc.Scope)
			if !ok || other.Hash != sc.Hash || other.Content == nil {
				continue
			}
			other.Content[dict.Locale] = value
		}

		if index[sc.Hash] == nil {
			index[sc.Hash] = make(map[string]string)
		}
		index[sc.Hash][dict.Locale] = value
	}
	return skipped
}

// MergeHashes sets values (hash -> locale -> content) on every record with
// a matching hash. It returns how many values were applied and how many
// hashes had no record.
func (c *DictionaryCache) MergeHashes(ctx context.Context, values map[string]map[string]string) (applied, missing int, err error) {
	err = c.update(ctx, func(doc *Document) (bool, error) {
		applied, missing = 0, 0

		locations := make(map[string][]lingo.EntryKey)
		doc.Each(func(docKey, key string, e Entry) {
			locations[e.Hash] = append(locations[e.Hash], lingo.EntryKey{Document: docKey, Scope: key})
		})

		for hash, content := range values {
			locs := locations[hash]
			if len(locs) == 0 {
				missing += len(content)
				continue
			}
			for _, loc := range locs {
				e, _ := doc.Lookup(loc.Document, loc.Scope)
				if e.Content == nil {
					e.Content = make(map[string]string)
					doc.set(loc.Document, loc.Scope, e)
				}
				for locale, v := range content {
					e.Content[locale] = v
				}
			}
			applied += len(content)
		}
		return applied > 0, nil
	})
	if err != nil {
		return 0, missing, err
	}
	return applied, missing, nil
}
