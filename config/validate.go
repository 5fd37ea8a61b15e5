package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// validation errors.
var (
	errNoSourceLocale       = errors.New("locales.source is required")
	errInvalidReadiness     = errors.New("invalid registry.readiness value")
	errNegativeQuiescence   = errors.New("registry.quiescence cannot be negative")
	errInvalidCacheBackend  = errors.New("invalid cache.backend value")
	errRedisURLRequired     = errors.New("cache.redisUrl is required for the redis backend")
	errCachePathRequired    = errors.New("cache.path is required for the file backend")
	errRegistryPathRequired = errors.New("registry.path is required")
	errNegativeChunkSize    = errors.New("translation.maxEntriesPerChunk cannot be negative")
	errInvalidProvider      = errors.New("invalid provider type")
	errInvalidRetry         = errors.New("invalid retry settings")
	errNegativeRateLimit    = errors.New("rateLimit values cannot be negative")
	errInvalidLogFormat     = errors.New("invalid log.format value")
)

// Validate checks the configuration. Every failure is a *lingo.ConfigError.
func (cfg *Config) Validate() error {
	if err := cfg.validate(); err != nil {
		return &lingo.ConfigError{Message: "invalid configuration", Cause: err}
	}
	return nil
}

func (cfg *Config) validate() error {
	if cfg.Locales.Source == "" {
		return errNoSourceLocale
	}
	for _, locale := range append([]string{cfg.Locales.Source}, cfg.Locales.Targets...) {
		if _, err := lingo.ParseLocale(locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", locale, err)
		}
	}

	if cfg.Registry.Path == "" {
		return errRegistryPathRequired
	}
	switch cfg.Registry.Readiness {
	case ReadinessPoll, ReadinessWatch, ReadinessSignal:
	default:
		return fmt.Errorf("%w: %q", errInvalidReadiness, cfg.Registry.Readiness)
	}
	if cfg.Registry.Quiescence < 0 {
		return errNegativeQuiescence
	}

	switch cfg.Cache.Backend {
	case CacheFile:
		if cfg.Cache.Path == "" {
			return errCachePathRequired
		}
	case CacheRedis:
		if cfg.Cache.RedisURL == "" {
			return errRedisURLRequired
		}
	case CacheMemory:
	default:
		return fmt.Errorf("%w: %q", errInvalidCacheBackend, cfg.Cache.Backend)
	}

	if cfg.Translation.MaxEntriesPerChunk < 0 {
		return errNegativeChunkSize
	}

	if err := validateProvider(cfg.Provider.Type); err != nil {
		return err
	}
	for locale, route := range cfg.Routes {
		if _, err := lingo.ParseLocale(locale); err != nil && locale != lingo.Wildcard {
			return fmt.Errorf("invalid route locale %q: %w", locale, err)
		}
		if route.Type != "" {
			if err := validateProvider(route.Type); err != nil {
				return fmt.Errorf("route %s: %w", locale, err)
			}
		}
	}

	if cfg.Retry.MaxRetries < 0 || cfg.Retry.BaseDelay < 0 || cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return errInvalidRetry
	}
	if cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.BurstSize < 0 {
		return errNegativeRateLimit
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}

func validateProvider(t string) error {
	switch t {
	case ProviderOpenAI, ProviderMock:
		return nil
	default:
		return fmt.Errorf("%w: %q", errInvalidProvider, t)
	}
}
