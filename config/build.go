package config

import (
	"fmt"
	"os"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/cache"
	"github.com/sumitsaurabh927/lingo.dev-sub001/provider"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// NewRegistry creates the registry described by the registry section.
// In signal mode the returned SignalReadiness must be driven by the
// extraction passes; it is nil otherwise.
func (cfg *Config) NewRegistry() (*registry.Registry, *registry.SignalReadiness) {
	store := registry.NewFileStore(cfg.Registry.Path)

	var (
		readiness registry.Readiness
		signal    *registry.SignalReadiness
	)
	switch cfg.Registry.Readiness {
	case ReadinessWatch:
		readiness = registry.NewWatchReadiness(cfg.Registry.Path)
	case ReadinessSignal:
		signal = registry.NewSignalReadiness()
		readiness = signal
	default:
		readiness = registry.NewPollingReadiness(store, registry.PollingConfig{Interval: cfg.Registry.PollInterval})
	}

	return registry.New(store, registry.WithReadiness(readiness)), signal
}

// NewCacheStore creates the cache store described by the cache section.
func (cfg *Config) NewCacheStore() (cache.Store, error) {
	switch cfg.Cache.Backend {
	case CacheMemory:
		return cache.NewMemoryStore(), nil
	case CacheRedis:
		store, err := cache.NewRedisStore(cache.RedisConfig{
			URL:       cfg.Cache.RedisURL,
			TTL:       int(cfg.Cache.RedisTTL.Seconds()),
			KeyPrefix: cfg.Cache.RedisKeyPrefix,
			Compress:  cfg.Cache.Compress,
		})
		if err != nil {
			return nil, &lingo.StoreError{Store: "cache", Op: "connect", Cause: err}
		}
		return store, nil
	default:
		return cache.NewFileStore(cfg.Cache.Path), nil
	}
}

// NewBackend creates a backend for p, rate limited when the rateLimit
// section asks for it.
func (cfg *Config) NewBackend(p ProviderConfig) (lingo.Backend, error) {
	return cfg.newBackend(p, make(map[string]*lingo.RateLimiter))
}

// newBackend creates a backend for p. Backends that bill the same provider
// account share one limiter from limiters, so the configured rate applies
// to the account and not to each route.
func (cfg *Config) newBackend(p ProviderConfig, limiters map[string]*lingo.RateLimiter) (lingo.Backend, error) {
	var backend lingo.Backend

	switch p.Type {
	case ProviderMock:
		backend = provider.NewMockBackend()
	case ProviderOpenAI:
		apiKey := os.Getenv(p.APIKeyEnv)
		if apiKey == "" {
			return nil, &lingo.ConfigError{
				Message: fmt.Sprintf("API key not set: export %s", p.APIKeyEnv),
			}
		}
		backend = provider.NewOpenAIBackend(provider.OpenAIConfig{
			APIKey:        apiKey,
			Model:         p.Model,
			Temperature:   p.Temperature,
			BaseURL:       p.BaseURL,
			Context:       cfg.Translation.Context,
			Glossary:      cfg.Translation.Glossary,
			ExcludedTerms: cfg.Translation.ExcludedTerms,
		})
	default:
		return nil, &lingo.ConfigError{Message: fmt.Sprintf("unknown provider type %q", p.Type)}
	}

	if cfg.RateLimit.RequestsPerMinute <= 0 {
		return backend, nil
	}
	account := p.account()
	limiter, ok := limiters[account]
	if !ok {
		limiter = lingo.NewRateLimiter(lingo.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.RateLimit.BurstSize,
		})
		limiters[account] = limiter
	}
	return lingo.NewRateLimitedBackend(backend, limiter), nil
}

// account identifies the provider quota p draws from.
func (p ProviderConfig) account() string {
	return p.Type + "|" + p.BaseURL + "|" + p.APIKeyEnv
}

// NewRouter creates a router with the default provider on the wildcard
// route and one route per entry of the routes section.
func (cfg *Config) NewRouter() (*lingo.Router, error) {
	router := lingo.NewRouter()
	limiters := make(map[string]*lingo.RateLimiter)

	backend, err := cfg.newBackend(cfg.Provider, limiters)
	if err != nil {
		return nil, err
	}
	router.Route(lingo.Wildcard, backend)

	for pattern, route := range cfg.Routes {
		backend, err := cfg.newBackend(cfg.Provider.Merge(route), limiters)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", pattern, err)
		}
		router.Route(pattern, backend)
	}
	return router, nil
}

// NewChunkedTranslator creates a chunked translator with the configured
// chunk size and retry policy.
func (cfg *Config) NewChunkedTranslator(opts ...lingo.ChunkOption) *lingo.ChunkedTranslator {
	return lingo.NewChunkedTranslator(append([]lingo.ChunkOption{
		lingo.WithMaxEntries(cfg.Translation.MaxEntriesPerChunk),
		lingo.WithRetry(lingo.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
		}),
	}, opts...)...)
}
