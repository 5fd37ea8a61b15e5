// Package config loads the pipeline configuration and builds the
// components it describes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "lingo.yaml"

// Readiness modes for the registry.
const (
	ReadinessPoll   = "poll"
	ReadinessWatch  = "watch"
	ReadinessSignal = "signal"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Provider types.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds the pipeline configuration.
type Config struct {
	Locales struct {
		Source  string   `env:"LINGO_SOURCE_LOCALE,overwrite" yaml:"source"`
		Targets []string `env:"LINGO_TARGET_LOCALES,overwrite" yaml:"targets"`
	} `yaml:"locales"`

	Registry struct {
		Path         string        `env:"LINGO_REGISTRY_PATH,overwrite" yaml:"path"`
		Readiness    string        `env:"LINGO_READINESS,overwrite" yaml:"readiness"`
		Quiescence   time.Duration `env:"LINGO_QUIESCENCE,overwrite" yaml:"quiescence"`
		PollInterval time.Duration `env:"LINGO_POLL_INTERVAL,overwrite" yaml:"pollInterval"`
	} `yaml:"registry"`

	Cache struct {
		Backend        string        `env:"LINGO_CACHE,overwrite" yaml:"backend"`
		Path           string        `env:"LINGO_CACHE_PATH,overwrite" yaml:"path"`
		RedisURL       string        `env:"LINGO_REDIS_URL,overwrite" yaml:"redisUrl"`
		RedisTTL       time.Duration `env:"LINGO_REDIS_TTL,overwrite" yaml:"redisTtl"`
		RedisKeyPrefix string        `env:"LINGO_REDIS_KEY_PREFIX,overwrite" yaml:"redisKeyPrefix"`
		Compress       bool          `env:"LINGO_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	Translation struct {
		MaxEntriesPerChunk int               `env:"LINGO_CHUNK_SIZE,overwrite" yaml:"maxEntriesPerChunk"`
		Context            string            `env:"LINGO_CONTEXT" yaml:"context"`
		ExcludedTerms      []string          `env:"LINGO_EXCLUDED_TERMS" yaml:"excludedTerms"`
		Glossary           map[string]string `yaml:"glossary"`
	} `yaml:"translation"`

	Provider ProviderConfig `yaml:"provider"`

	// Routes give individual locales their own provider settings. Empty
	// fields fall back to Provider.
	Routes map[string]ProviderConfig `yaml:"routes"`

	Retry struct {
		MaxRetries int           `env:"LINGO_MAX_RETRIES,overwrite" yaml:"maxRetries"`
		BaseDelay  time.Duration `env:"LINGO_RETRY_BASE_DELAY,overwrite" yaml:"baseDelay"`
		MaxDelay   time.Duration `env:"LINGO_RETRY_MAX_DELAY,overwrite" yaml:"maxDelay"`
	} `yaml:"retry"`

	RateLimit struct {
		RequestsPerMinute int `env:"LINGO_RPM,overwrite" yaml:"requestsPerMinute"`
		BurstSize         int `env:"LINGO_BURST,overwrite" yaml:"burstSize"`
	} `yaml:"rateLimit"`

	Log struct {
		Level   string   `env:"LINGO_LOG_LEVEL,overwrite" yaml:"level"`
		Outputs []string `env:"LINGO_LOG_OUTPUTS,overwrite" yaml:"outputs"`
		Format  string   `env:"LINGO_LOG_FORMAT,overwrite" yaml:"format"`
	} `yaml:"log"`
}

// ProviderConfig selects and configures a translation backend.
type ProviderConfig struct {
	Type        string  `env:"LINGO_PROVIDER,overwrite" yaml:"type"`
	Model       string  `env:"LINGO_MODEL,overwrite" yaml:"model"`
	BaseURL     string  `env:"LINGO_BASE_URL,overwrite" yaml:"baseUrl"`
	APIKeyEnv   string  `env:"LINGO_API_KEY_ENV,overwrite" yaml:"apiKeyEnv"`
	Temperature float32 `yaml:"temperature"`
}

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.Locales.Source = "en"

	cfg.Registry.Path = ".lingo/registry.json"
	cfg.Registry.Readiness = ReadinessPoll
	cfg.Registry.Quiescence = 0
	cfg.Registry.PollInterval = 100 * time.Millisecond

	cfg.Cache.Backend = CacheFile
	cfg.Cache.Path = ".lingo/dictionary.json"
	cfg.Cache.RedisKeyPrefix = "lingo:"

	cfg.Translation.MaxEntriesPerChunk = lingo.DefaultMaxEntriesPerChunk

	cfg.Provider.Type = ProviderOpenAI
	cfg.Provider.Model = "gpt-4o-mini"
	cfg.Provider.APIKeyEnv = "OPENAI_API_KEY"

	retry := lingo.DefaultRetryConfig()
	cfg.Retry.MaxRetries = retry.MaxRetries
	cfg.Retry.BaseDelay = retry.BaseDelay
	cfg.Retry.MaxDelay = retry.MaxDelay

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}

// Load reads the configuration from defaults, the YAML file at path and
// the environment, in that order, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if err := cfg.readYAML(path); err != nil {
		return nil, &lingo.ConfigError{Message: "reading configuration file", Cause: err}
	}
	if err := readEnv(cfg); err != nil {
		return nil, &lingo.ConfigError{Message: "reading environment", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) readYAML(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debug().
			Str("path", path).
			Msg("No YAML configuration file found, skipping")
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- Only loading a config file
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Msg("Loaded configuration")
	return nil
}

// Merge returns p with the non-empty fields of over applied.
func (p ProviderConfig) Merge(over ProviderConfig) ProviderConfig {
	if over.Type != "" {
		p.Type = over.Type
	}
	if over.Model != "" {
		p.Model = over.Model
	}
	if over.BaseURL != "" {
		p.BaseURL = over.BaseURL
	}
	if over.APIKeyEnv != "" {
		p.APIKeyEnv = over.APIKeyEnv
	}
	if over.Temperature != 0 {
		p.Temperature = over.Temperature
	}
	return p
}

// Marshal returns the configuration as YAML.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}
