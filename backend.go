package lingo

import "context"

// Backend is the interface for translation backends.
//
// Translate receives a chunk of codec-encoded source content and returns the
// translated chunk. Implementations may return fewer keys than they were
// given but never keys that were not in the chunk.
type Backend interface {
	Translate(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error)

// Translate calls f.
func (f BackendFunc) Translate(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error) {
	return f(ctx, chunk, sourceLocale, targetLocale)
}

type hintsKey struct{}

// Hints carries per-entry translation hints, keyed like the chunk entries.
type Hints map[EntryKey]string

// ContextWithHints returns a context carrying hints for the backend.
func ContextWithHints(ctx context.Context, hints Hints) context.Context {
	return context.WithValue(ctx, hintsKey{}, hints)
}

// HintsFromContext returns the hints attached to ctx, if any.
func HintsFromContext(ctx context.Context) Hints {
	h, _ := ctx.Value(hintsKey{}).(Hints)
	return h
}
