// Package registry implements the scope manifest: the authoritative,
// persisted map of every translatable scope and its current content.
//
// The extractor mutates the registry one scope at a time. Each scope is
// reset before its fields are set so nothing from a previous extraction
// pass survives:
//
//	reg.ResetScope("index.html", "body/p[0]").
//	    SetType("index.html", "body/p[0]", registry.TypeElement).
//	    SetContent("index.html", "body/p[0]", "Hello {name}")
//
// Downstream readers take a Snapshot once the registry is quiescent.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// Registry is the in-memory manifest backed by a Store.
type Registry struct {
	mu        sync.RWMutex
	files     map[string]map[string]Scope
	store     Store
	readiness Readiness
	logger    zerolog.Logger

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int
}

// Option configures a Registry.
type Option func(*Registry)

// WithReadiness sets the readiness check used by AwaitQuiescence.
func WithReadiness(r Readiness) Option {
	return func(reg *Registry) {
		reg.readiness = r
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(reg *Registry) {
		reg.logger = l
	}
}

// New creates an empty registry persisted to store.
// Readiness defaults to mtime polling of the store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		files:  make(map[string]map[string]Scope),
		store:  store,
		logger: log.Logger.With().Str("component", "registry").Logger(),
		subs:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.readiness == nil {
		r.readiness = NewPollingReadiness(store, PollingConfig{})
	}
	return r
}

// Load replaces the in-memory contents with the persisted registry.
// A missing store leaves the registry empty. Subscribers are notified when
// the loaded contents differ from what was in memory.
func (r *Registry) Load(ctx context.Context) error {
	data, err := r.store.Read(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return &lingo.StoreError{Store: "registry", Op: "read", Cause: err}
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return &lingo.StoreError{Store: "registry", Op: "decode", Cause: err}
	}
	before, err := r.Snapshot().Marshal()
	if err != nil {
		return &lingo.StoreError{Store: "registry", Op: "encode", Cause: err}
	}

	files := make(map[string]map[string]Scope, len(snap.Files))
	for doc, f := range snap.Files {
		scopes := make(map[string]Scope, len(f.Scopes))
		for key, sc := range f.Scopes {
			scopes[key] = sc.clone()
		}
		files[doc] = scopes
	}

	r.mu.Lock()
	r.files = files
	r.mu.Unlock()

	r.logger.Debug().Int("scopes", snap.Len()).Msg("Registry loaded")
	if after, err := r.Snapshot().Marshal(); err == nil && !bytes.Equal(before, after) {
		r.notify()
	}
	return nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return EmptySnapshot(), nil
	}
	if v := gjson.GetBytes(data, "version"); v.Exists() && v.Int() > Version {
		return Snapshot{}, fmt.Errorf("unsupported registry version %d (max %d)", v.Int(), Version)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Files == nil {
		snap.Files = map[string]File{}
	}
	return snap, nil
}

// ResetScope clears the scope at (doc, key) to an empty state, creating it
// if needed.
func (r *Registry) ResetScope(doc, key string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	scopes, ok := r.files[doc]
	if !ok {
		scopes = make(map[string]Scope)
		r.files[doc] = scopes
	}
	scopes[key] = Scope{}
	return r
}

// ResetDocument drops every scope of doc. Extractors call it before a pass
// over a document so scopes that disappeared from the source go away.
func (r *Registry) ResetDocument(doc string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, doc)
	return r
}

func (r *Registry) update(doc, key string, fn func(*Scope)) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	scopes, ok := r.files[doc]
	if !ok {
		scopes = make(map[string]Scope)
		r.files[doc] = scopes
	}
	sc := scopes[key]
	fn(&sc)
	scopes[key] = sc
	return r
}

// SetType sets the scope type.
func (r *Registry) SetType(doc, key string, t ScopeType) *Registry {
	return r.update(doc, key, func(s *Scope) { s.Type = t })
}

// SetContent sets the encoded content and recomputes the hash.
func (r *Registry) SetContent(doc, key, content string) *Registry {
	return r.update(doc, key, func(s *Scope) {
		s.Content = content
		s.Hash = lingo.HashContent(content)
	})
}

// SetHash overrides the content hash.
func (r *Registry) SetHash(doc, key, hash string) *Registry {
	return r.update(doc, key, func(s *Scope) { s.Hash = hash })
}

// SetContext sets the translation hint.
func (r *Registry) SetContext(doc, key, hint string) *Registry {
	return r.update(doc, key, func(s *Scope) { s.Context = hint })
}

// SetSkip excludes or includes the scope in extraction.
func (r *Registry) SetSkip(doc, key string, skip bool) *Registry {
	return r.update(doc, key, func(s *Scope) { s.Skip = skip })
}

// SetOverrides sets the per-locale literal replacements.
func (r *Registry) SetOverrides(doc, key string, overrides map[string]string) *Registry {
	return r.update(doc, key, func(s *Scope) {
		if len(overrides) == 0 {
			s.Overrides = nil
			return
		}
		s.Overrides = make(map[string]string, len(overrides))
		for locale, v := range overrides {
			s.Overrides[locale] = v
		}
	})
}

// Snapshot returns a deep copy of the current contents.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Version: Version, Files: make(map[string]File, len(r.files))}
	for doc, scopes := range r.files {
		f := File{Scopes: make(map[string]Scope, len(scopes))}
		for key, sc := range scopes {
			f.Scopes[key] = sc.clone()
		}
		snap.Files[doc] = f
	}
	return snap
}

// Persist writes the registry if its serialized form differs from what is
// stored. Subscribers are notified only when a write happened.
func (r *Registry) Persist(ctx context.Context) (bool, error) {
	data, err := r.Snapshot().Marshal()
	if err != nil {
		return false, &lingo.StoreError{Store: "registry", Op: "encode", Cause: err}
	}

	existing, err := r.store.Read(ctx)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, &lingo.StoreError{Store: "registry", Op: "read", Cause: err}
	}

	if err := r.store.Write(ctx, data); err != nil {
		return false, &lingo.StoreError{Store: "registry", Op: "write", Cause: err}
	}

	r.logger.Debug().Int("bytes", len(data)).Msg("Registry persisted")
	r.notify()
	return true, nil
}

// Subscribe registers fn to run after every persisting write and after a
// Load that changed the contents. The returned function removes the
// subscription.
func (r *Registry) Subscribe(fn func()) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Registry) notify() {
	r.subMu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AwaitQuiescence blocks until the persisted registry has not been modified
// for maxAge and then loads it, so the following Snapshot reflects every
// completed extraction pass, including those of other processes. A missing
// store is first created with an empty placeholder. Changes made in memory
// and not yet persisted are discarded.
func (r *Registry) AwaitQuiescence(ctx context.Context, maxAge time.Duration) error {
	placeholder, err := EmptySnapshot().Marshal()
	if err != nil {
		return err
	}
	if err := r.store.Ensure(ctx, placeholder); err != nil {
		return &lingo.StoreError{Store: "registry", Op: "ensure", Cause: err}
	}
	if err := r.readiness.Wait(ctx, maxAge); err != nil {
		return err
	}
	return r.Load(ctx)
}
