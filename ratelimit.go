package lingo

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"` // Sustained backend calls per minute (default 60)
	BurstSize         int `yaml:"burstSize"`         // Calls allowed back to back (default: RequestsPerMinute)
}

// RateLimiter is a token bucket shared by every backend that draws from
// the same provider quota.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// TryAcquire takes a token if one is available without waiting.
func (r *RateLimiter) TryAcquire() bool {
	return r.limiter.Allow()
}

// Available returns the tokens currently in the bucket.
func (r *RateLimiter) Available() float64 {
	return r.limiter.Tokens()
}

// RateLimitedBackend takes one token from its limiter per chunk sent.
// Several backends may share a limiter.
type RateLimitedBackend struct {
	backend Backend
	limiter *RateLimiter
}

// NewRateLimitedBackend wraps backend so every call first waits on limiter.
func NewRateLimitedBackend(backend Backend, limiter *RateLimiter) *RateLimitedBackend {
	return &RateLimitedBackend{backend: backend, limiter: limiter}
}

// Translate waits for a token and then forwards chunk. A wait cut short by
// ctx is reported as a non-retryable ProviderError.
func (b *RateLimitedBackend) Translate(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return Dictionary{}, &ProviderError{Message: "rate limit wait cancelled", Cause: err}
	}
	return b.backend.Translate(ctx, chunk, sourceLocale, targetLocale)
}

// Limiter returns the limiter the backend draws from.
func (b *RateLimitedBackend) Limiter() *RateLimiter {
	return b.limiter
}
