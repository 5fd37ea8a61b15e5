package lingo

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls how a failed chunk is sent again.
// A zero MaxRetries disables retrying.
type RetryConfig struct {
	MaxRetries int           `yaml:"maxRetries"` // Extra attempts per chunk
	BaseDelay  time.Duration `yaml:"baseDelay"`  // Wait before the first retry
	MaxDelay   time.Duration `yaml:"maxDelay"`   // Upper bound for the doubled wait
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (starting at 0).
// The wait doubles with every attempt and is capped at MaxDelay.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	delay := c.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// IsRetryable reports whether a backend error is worth another attempt.
// Only a ProviderError flagged Retryable qualifies; cancellation never does.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Retryable
}

// WithRetry makes the translator resend a chunk whose backend call failed
// with a retryable error. Retries are counted in ChunkStats.
func WithRetry(cfg RetryConfig) ChunkOption {
	return func(t *ChunkedTranslator) {
		t.retry = cfg
	}
}

// sendChunk calls the backend for chunk, retrying per the configured
// policy. It returns the number of retries made. The context, and the
// hints it carries, is passed unchanged to every attempt.
func (t *ChunkedTranslator) sendChunk(ctx context.Context, backend Backend, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, int, error) {
	retries := 0
	for {
		out, err := backend.Translate(ctx, chunk, sourceLocale, targetLocale)
		if err == nil || retries >= t.retry.MaxRetries || !IsRetryable(err) {
			return out, retries, err
		}

		delay := t.retry.Backoff(retries)
		t.logger.Warn().Err(err).
			Str("target", targetLocale).
			Int("documents", len(chunk.Documents())).
			Int("entries", chunk.Len()).
			Int("attempt", retries+1).
			Dur("delay", delay).
			Msg("Chunk translation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Dictionary{}, retries, ctx.Err()
		case <-timer.C:
		}
		retries++
	}
}
