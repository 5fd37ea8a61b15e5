package lingo

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sumitsaurabh927/lingo.dev-sub001/codec"
)

// DefaultMaxEntriesPerChunk is the chunk size used when none is configured.
const DefaultMaxEntriesPerChunk = 25

// Chunk splits dict into dictionaries of at most maxEntries entries.
//
// Documents and entries are visited in sorted order and chunks are filled
// greedily, so a chunk may span documents and a document may span chunks.
// The same input always yields the same boundaries. A maxEntries of zero or
// less puts everything into a single chunk.
func Chunk(dict Dictionary, maxEntries int) []Dictionary {
	if dict.Len() == 0 {
		return nil
	}

	var chunks []Dictionary
	current := NewDictionary(dict.Locale)
	n := 0

	for _, k := range dict.Keys() {
		v, _ := dict.Get(k.Document, k.Scope)
		current.Set(k.Document, k.Scope, v)
		n++

		if maxEntries > 0 && n >= maxEntries {
			chunks = append(chunks, current)
			current = NewDictionary(dict.Locale)
			n = 0
		}
	}
	if n > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// ChunkStats summarizes one chunked translation run.
type ChunkStats struct {
	Chunks     int // Number of chunks sent to the backend
	Succeeded  int // Chunks translated without error
	Failed     int // Chunks whose backend call failed
	Translated int // Entries returned by the backend
	Dropped    int // Entries the backend invented and were discarded
	Retries    int // Backend calls repeated after a retryable failure
}

// ProgressFunc is called after each chunk with the target locale, the
// number of finished chunks and the total. It may be called from several
// goroutines when locales are translated concurrently.
type ProgressFunc func(targetLocale string, done, total int)

// ChunkedTranslator sends a dictionary to a backend in bounded chunks.
type ChunkedTranslator struct {
	maxEntries int
	retry      RetryConfig
	logger     zerolog.Logger
	progress   ProgressFunc
}

// ChunkOption is a functional option for configuring a ChunkedTranslator.
type ChunkOption func(*ChunkedTranslator)

// WithMaxEntries sets the maximum number of entries per chunk.
func WithMaxEntries(n int) ChunkOption {
	return func(t *ChunkedTranslator) {
		t.maxEntries = n
	}
}

// WithChunkLogger sets the logger.
func WithChunkLogger(l zerolog.Logger) ChunkOption {
	return func(t *ChunkedTranslator) {
		t.logger = l
	}
}

// WithProgress sets a callback invoked after every chunk.
func WithProgress(fn ProgressFunc) ChunkOption {
	return func(t *ChunkedTranslator) {
		t.progress = fn
	}
}

// NewChunkedTranslator creates a chunked translator.
func NewChunkedTranslator(opts ...ChunkOption) *ChunkedTranslator {
	t := &ChunkedTranslator{
		maxEntries: DefaultMaxEntriesPerChunk,
		logger:     log.Logger.With().Str("component", "chunker").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MaxEntries returns the configured chunk size.
func (t *ChunkedTranslator) MaxEntries() int {
	return t.maxEntries
}

// Retry returns the retry policy for failed chunks.
func (t *ChunkedTranslator) Retry() RetryConfig {
	return t.retry
}

// TranslateChunk translates a single chunk.
//
// A backend error that survives the retry policy is logged and yields an
// empty dictionary so that the remaining chunks can still be translated.
// Keys that were not part of the chunk are discarded.
func (t *ChunkedTranslator) TranslateChunk(ctx context.Context, backend Backend, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error) {
	res := t.translateChunk(ctx, backend, chunk, sourceLocale, targetLocale)
	return res.dict, res.err
}

// chunkResult is the outcome of one chunk, including what it cost.
type chunkResult struct {
	dict    Dictionary
	dropped int
	retries int
	err     error
}

func (t *ChunkedTranslator) translateChunk(ctx context.Context, backend Backend, chunk Dictionary, sourceLocale, targetLocale string) chunkResult {
	res := chunkResult{dict: NewDictionary(targetLocale)}

	translated, retries, err := t.sendChunk(ctx, backend, chunk, sourceLocale, targetLocale)
	res.retries = retries
	if err != nil {
		t.logger.Error().Err(err).
			Str("source", sourceLocale).
			Str("target", targetLocale).
			Int("entries", chunk.Len()).
			Int("retries", retries).
			Msg("Chunk translation failed")
		res.err = &TranslationError{Message: "chunk translation failed", Locale: targetLocale, Cause: err}
		return res
	}

	for _, k := range translated.Keys() {
		v, _ := translated.Get(k.Document, k.Scope)
		src, ok := chunk.Get(k.Document, k.Scope)
		if !ok {
			res.dropped++
			t.logger.Warn().
				Str("document", k.Document).
				Str("scope", k.Scope).
				Str("target", targetLocale).
				Msg("Backend returned unknown key, dropping it")
			continue
		}
		t.checkPlaceholders(k, src, v, targetLocale)
		res.dict.Set(k.Document, k.Scope, v)
	}
	return res
}

func (t *ChunkedTranslator) checkPlaceholders(k EntryKey, source, translated, targetLocale string) {
	want, err := codec.Placeholders(source)
	if err != nil {
		return
	}
	got, err := codec.Placeholders(translated)
	if err != nil {
		t.logger.Warn().Err(err).
			Str("document", k.Document).
			Str("scope", k.Scope).
			Str("target", targetLocale).
			Msg("Translation is not valid content")
		return
	}
	if !want.Equal(got) {
		t.logger.Warn().
			Str("document", k.Document).
			Str("scope", k.Scope).
			Str("target", targetLocale).
			Str("expected", want.String()).
			Str("got", got.String()).
			Msg("Translation placeholders differ from source")
	}
}

// Translate chunks dict and translates the chunks one after another.
// Failed chunks contribute nothing to the result.
func (t *ChunkedTranslator) Translate(ctx context.Context, backend Backend, dict Dictionary, sourceLocale, targetLocale string) (Dictionary, ChunkStats) {
	chunks := Chunk(dict, t.maxEntries)
	stats := ChunkStats{Chunks: len(chunks)}

	results := make([]Dictionary, 0, len(chunks))
	for i, chunk := range chunks {
		res := t.translateChunk(ctx, backend, chunk, sourceLocale, targetLocale)
		if res.err != nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		stats.Translated += res.dict.Len()
		stats.Dropped += res.dropped
		stats.Retries += res.retries
		results = append(results, res.dict)

		if t.progress != nil {
			t.progress(targetLocale, i+1, len(chunks))
		}
	}

	merged := t.merge(results)
	merged.Locale = targetLocale
	return merged, stats
}

// MergeChunks combines chunk results into one dictionary. An entry present
// in several chunks takes the value of the last one.
func MergeChunks(chunks []Dictionary) Dictionary {
	return NewChunkedTranslator().merge(chunks)
}

func (t *ChunkedTranslator) merge(chunks []Dictionary) Dictionary {
	locale := ""
	if len(chunks) > 0 {
		locale = chunks[0].Locale
	}
	out := NewDictionary(locale)

	for _, chunk := range chunks {
		for _, k := range chunk.Keys() {
			v, _ := chunk.Get(k.Document, k.Scope)
			if out.Has(k.Document, k.Scope) {
				t.logger.Warn().
					Str("document", k.Document).
					Str("scope", k.Scope).
					Msg("Entry appears in more than one chunk")
			}
			out.Set(k.Document, k.Scope, v)
		}
	}
	return out
}
