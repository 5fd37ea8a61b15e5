// Package pipeline turns registry scopes into per-locale dictionaries,
// translating only what the cache cannot answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// ScopeSource provides the scopes to translate.
type ScopeSource interface {
	Snapshot() registry.Snapshot
}

// Quiescer is implemented by scope sources that can wait for extraction
// to settle.
type Quiescer interface {
	AwaitQuiescence(ctx context.Context, maxAge time.Duration) error
}

// Notifier is implemented by scope sources that announce changes.
type Notifier interface {
	Subscribe(fn func()) func()
}

// DictionaryStore is the cache the orchestrator reads and writes.
type DictionaryStore interface {
	ReadLocale(ctx context.Context, locale string, snap registry.Snapshot) (lingo.Dictionary, error)
	WriteLocale(ctx context.Context, dict lingo.Dictionary, snap registry.Snapshot) error
}

// BackendResolver picks the backend for a locale pair.
type BackendResolver interface {
	Resolve(sourceLocale, targetLocale string) (lingo.Backend, error)
}

// Result is the outcome of translating one target locale.
type Result struct {
	Dictionary   lingo.Dictionary
	Translated   int // Entries produced by the backend in this run
	Cached       int // Entries answered by the cache
	Fallback     int // Entries filled with source text
	Overridden   int // Entries replaced by an override
	FailedChunks int // Chunks whose backend call failed
	Retries      int // Backend calls repeated after a retryable failure
}

// Batch is the outcome of translating several target locales.
// A Batch may be shared between callers and must not be modified.
type Batch struct {
	Source  string
	Results map[string]*Result
	Errors  map[string]error
}

// Err joins the per-locale errors in locale order, or returns nil.
func (b *Batch) Err() error {
	if len(b.Errors) == 0 {
		return nil
	}
	locales := make([]string, 0, len(b.Errors))
	for locale := range b.Errors {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	errs := make([]error, 0, len(locales))
	for _, locale := range locales {
		errs = append(errs, b.Errors[locale])
	}
	return errors.Join(errs...)
}

// Orchestrator runs the translation pipeline.
type Orchestrator struct {
	scopes     ScopeSource
	cache      DictionaryStore
	router     BackendResolver
	translator *lingo.ChunkedTranslator
	quiescence time.Duration
	logger     zerolog.Logger

	flight      singleflight.Group
	mu          sync.Mutex
	batches     map[string]*Batch
	generation  uint64
	unsubscribe func()
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithChunkedTranslator sets the translator used for backend calls.
func WithChunkedTranslator(t *lingo.ChunkedTranslator) Option {
	return func(o *Orchestrator) {
		o.translator = t
	}
}

// WithQuiescence makes every run wait until the scope source has been
// quiet for maxAge before reading it. The scope source must implement
// Quiescer.
func WithQuiescence(maxAge time.Duration) Option {
	return func(o *Orchestrator) {
		o.quiescence = maxAge
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an orchestrator. When scopes implements Notifier, memoized
// batches are dropped whenever it announces a change.
func New(scopes ScopeSource, cache DictionaryStore, router BackendResolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scopes:  scopes,
		cache:   cache,
		router:  router,
		logger:  log.Logger.With().Str("component", "pipeline").Logger(),
		batches: make(map[string]*Batch),
	}

	for _, opt := range opts {
		opt(o)
	}
	if o.translator == nil {
		o.translator = lingo.NewChunkedTranslator(lingo.WithChunkLogger(o.logger))
	}

	if n, ok := scopes.(Notifier); ok {
		o.unsubscribe = n.Subscribe(o.Invalidate)
	}
	return o
}

// Close stops listening for scope changes.
func (o *Orchestrator) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

// Invalidate drops every memoized batch.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = make(map[string]*Batch)
	o.generation++
}

// settle waits for the scope source to go quiet when quiescence is
// configured. A source that reloads while settling may invalidate
// memoized batches.
func (o *Orchestrator) settle(ctx context.Context) error {
	if o.quiescence <= 0 {
		return nil
	}
	q, ok := o.scopes.(Quiescer)
	if !ok {
		return &lingo.ConfigError{Message: "scope source cannot await quiescence"}
	}
	if err := q.AwaitQuiescence(ctx, o.quiescence); err != nil {
		return fmt.Errorf("awaiting registry: %w", err)
	}
	return nil
}

func (o *Orchestrator) snapshot(ctx context.Context) (registry.Snapshot, error) {
	if err := o.settle(ctx); err != nil {
		return registry.Snapshot{}, err
	}
	return o.scopes.Snapshot(), nil
}

// Translate produces the dictionary for targetLocale.
func (o *Orchestrator) Translate(ctx context.Context, sourceLocale, targetLocale string) (*Result, error) {
	snap, err := o.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return o.translate(ctx, snap, sourceLocale, targetLocale)
}

func (o *Orchestrator) translate(ctx context.Context, snap registry.Snapshot, sourceLocale, targetLocale string) (*Result, error) {
	logger := o.logger.With().Str("source", sourceLocale).Str("target", targetLocale).Logger()

	source, overrides := extract(snap, sourceLocale, targetLocale)

	if source.Len() == 0 {
		return finish(source.WithLocale(targetLocale), overrides, &Result{}), nil
	}

	cached, err := o.cache.ReadLocale(ctx, targetLocale, snap)
	if err != nil {
		return nil, err
	}
	cached = lingo.Intersect(cached, source)
	uncached := lingo.Subtract(source, cached)
	res := &Result{Cached: cached.Len()}

	if uncached.Len() == 0 {
		logger.Debug().Int("cached", res.Cached).Msg("All entries cached")
		return finish(cached.WithLocale(targetLocale), overrides, res), nil
	}

	if lingo.SameLocale(sourceLocale, targetLocale) {
		out := source.WithLocale(targetLocale)
		if err := o.cache.WriteLocale(ctx, out, snap); err != nil {
			return nil, err
		}
		res.Cached = 0
		return finish(out, overrides, res), nil
	}

	backend, err := o.router.Resolve(sourceLocale, targetLocale)
	if err != nil {
		return nil, err
	}

	ctx = lingo.ContextWithHints(ctx, hintsFor(snap, uncached))
	translated, stats := o.translator.Translate(ctx, backend, uncached, sourceLocale, targetLocale)
	res.Translated = translated.Len()
	res.FailedChunks = stats.Failed
	res.Retries = stats.Retries

	merged := lingo.Overlay(cached.WithLocale(targetLocale), translated.WithLocale(targetLocale))
	if translated.Len() > 0 {
		if err := o.cache.WriteLocale(ctx, merged, snap); err != nil {
			return nil, err
		}
	}

	out := lingo.FillMissing(merged, source)
	res.Fallback = out.Len() - merged.Len()

	logger.Info().
		Int("translated", res.Translated).
		Int("cached", res.Cached).
		Int("fallback", res.Fallback).
		Int("failed_chunks", res.FailedChunks).
		Int("retries", res.Retries).
		Msg("Locale translated")
	return finish(out, overrides, res), nil
}

// extract builds the source dictionary from snap and collects the
// overrides for targetLocale. Skipped scopes are left out, and so are
// scopes overridden for the target.
func extract(snap registry.Snapshot, sourceLocale, targetLocale string) (lingo.Dictionary, lingo.Dictionary) {
	source := lingo.NewDictionary(sourceLocale)
	overrides := lingo.NewDictionary(targetLocale)

	snap.Each(func(doc, key string, sc registry.Scope) {
		if sc.Skip {
			return
		}
		if v, ok := overrideFor(sc, targetLocale); ok {
			overrides.Set(doc, key, v)
			return
		}
		source.Set(doc, key, sc.Content)
	})
	return source, overrides
}

func overrideFor(sc registry.Scope, locale string) (string, bool) {
	if v, ok := sc.Overrides[locale]; ok {
		return v, true
	}
	for l, v := range sc.Overrides {
		if lingo.SameLocale(l, locale) {
			return v, true
		}
	}
	return "", false
}

func hintsFor(snap registry.Snapshot, dict lingo.Dictionary) lingo.Hints {
	hints := make(lingo.Hints)
	for _, k := range dict.Keys() {
		if sc, ok := snap.Lookup(k.Document, k.Scope); ok && sc.Context != "" {
			hints[k] = sc.Context
		}
	}
	return hints
}

func finish(dict, overrides lingo.Dictionary, res *Result) *Result {
	res.Dictionary = lingo.Overlay(dict, overrides.WithLocale(dict.Locale))
	res.Overridden = overrides.Len()
	return res
}

// TranslateAll translates every target locale concurrently. Concurrent
// calls for the same locales share one run, and the finished batch is
// reused until Invalidate. A call made after Invalidate never joins a run
// that started before it. A failing locale does not stop the others; its
// error is recorded in the batch and joined into the returned error.
func (o *Orchestrator) TranslateAll(ctx context.Context, sourceLocale string, targetLocales []string) (*Batch, error) {
	key := batchKey(sourceLocale, targetLocales)

	if err := o.settle(ctx); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if b, ok := o.batches[key]; ok {
		o.mu.Unlock()
		return b, b.Err()
	}
	generation := o.generation
	o.mu.Unlock()

	flightKey := fmt.Sprintf("%s@%d", key, generation)
	ch := o.flight.DoChan(flightKey, func() (interface{}, error) {
		// The run is shared, so one caller giving up must not cancel it.
		return o.runBatch(context.WithoutCancel(ctx), key, generation, sourceLocale, targetLocales)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		b := r.Val.(*Batch)
		return b, b.Err()
	}
}

// runBatch translates from the current scopes and memoizes the batch under
// key unless the scopes changed after generation was read.
func (o *Orchestrator) runBatch(ctx context.Context, key string, generation uint64, sourceLocale string, targetLocales []string) (*Batch, error) {
	snap := o.scopes.Snapshot()

	batch := &Batch{
		Source:  sourceLocale,
		Results: make(map[string]*Result, len(targetLocales)),
		Errors:  make(map[string]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	for _, target := range unique(targetLocales) {
		g.Go(func() error {
			res, err := o.translate(ctx, snap, sourceLocale, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Error().Err(err).Str("target", target).Msg("Locale translation failed")
				batch.Errors[target] = &lingo.TranslationError{Message: "translating locale", Locale: target, Cause: err}
				return nil
			}
			batch.Results[target] = res
			return nil
		})
	}
	_ = g.Wait()

	o.mu.Lock()
	if len(batch.Errors) == 0 && o.generation == generation {
		o.batches[key] = batch
	}
	o.mu.Unlock()

	return batch, nil
}

func unique(locales []string) []string {
	seen := make(map[string]bool, len(locales))
	out := make([]string, 0, len(locales))
	for _, l := range locales {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func batchKey(sourceLocale string, targetLocales []string) string {
	targets := unique(targetLocales)
	sort.Strings(targets)
	return sourceLocale + "->" + strings.Join(targets, ",")
}

// Status reports what a Translate call would do for targetLocale without
// calling a backend or writing the cache.
func (o *Orchestrator) Status(ctx context.Context, sourceLocale, targetLocale string) (*lingo.DiffResult, error) {
	snap, err := o.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	source, _ := extract(snap, sourceLocale, targetLocale)
	cached, err := o.cache.ReadLocale(ctx, targetLocale, snap)
	if err != nil {
		return nil, err
	}
	return lingo.DiffDictionaries(source, cached), nil
}
