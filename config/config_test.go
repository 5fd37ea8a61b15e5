package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog/log"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/cache"
	"github.com/sumitsaurabh927/lingo.dev-sub001/provider"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lingo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Locales.Source != "en" {
		t.Errorf("Expected source 'en', got %q", cfg.Locales.Source)
	}
	if cfg.Translation.MaxEntriesPerChunk != lingo.DefaultMaxEntriesPerChunk {
		t.Errorf("Expected default chunk size, got %d", cfg.Translation.MaxEntriesPerChunk)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Registry.Readiness != ReadinessPoll {
		t.Errorf("Unexpected defaults %+v %+v", cfg.Cache, cfg.Registry)
	}
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("Expected missing file to be skipped, got %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
locales:
  source: en
  targets: [es, fr-CA]
registry:
  path: out/registry.json
  readiness: signal
  quiescence: 250ms
cache:
  backend: memory
translation:
  maxEntriesPerChunk: 10
  context: developer docs
  glossary:
    pull request: demande de fusion
provider:
  type: mock
routes:
  fr:
    model: gpt-4o
retry:
  maxRetries: 1
  baseDelay: 10ms
  maxDelay: 1s
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Locales.Targets) != 2 || cfg.Locales.Targets[1] != "fr-CA" {
		t.Errorf("Unexpected targets %v", cfg.Locales.Targets)
	}
	if cfg.Registry.Quiescence != 250*time.Millisecond {
		t.Errorf("Expected 250ms quiescence, got %v", cfg.Registry.Quiescence)
	}
	if cfg.Registry.Readiness != ReadinessSignal {
		t.Errorf("Expected signal readiness, got %q", cfg.Registry.Readiness)
	}
	if cfg.Translation.Glossary["pull request"] != "demande de fusion" {
		t.Errorf("Unexpected glossary %v", cfg.Translation.Glossary)
	}
	if cfg.Routes["fr"].Model != "gpt-4o" {
		t.Errorf("Unexpected routes %v", cfg.Routes)
	}
	// Unset fields keep their defaults.
	if cfg.Provider.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Expected default API key env, got %q", cfg.Provider.APIKeyEnv)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
translation:
  maxEntriesPerChunk: 10
  context: from yaml
`)
	t.Setenv("LINGO_CHUNK_SIZE", "5")
	t.Setenv("LINGO_TARGET_LOCALES", "es, fr,")
	t.Setenv("LINGO_QUIESCENCE", "2s")
	t.Setenv("LINGO_CACHE_COMPRESS", "true")
	t.Setenv("LINGO_CONTEXT", "from env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Translation.MaxEntriesPerChunk != 5 {
		t.Errorf("Expected chunk size 5, got %d", cfg.Translation.MaxEntriesPerChunk)
	}
	if strings.Join(cfg.Locales.Targets, ",") != "es,fr" {
		t.Errorf("Expected trimmed targets, got %v", cfg.Locales.Targets)
	}
	if cfg.Registry.Quiescence != 2*time.Second {
		t.Errorf("Expected 2s quiescence, got %v", cfg.Registry.Quiescence)
	}
	if !cfg.Cache.Compress {
		t.Error("Expected compression from env")
	}
	// Fields without overwrite keep the YAML value.
	if cfg.Translation.Context != "from yaml" {
		t.Errorf("Expected YAML context to win, got %q", cfg.Translation.Context)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad readiness", yaml: "registry:\n  readiness: sometimes\n"},
		{name: "redis without url", yaml: "cache:\n  backend: redis\n"},
		{name: "unknown cache", yaml: "cache:\n  backend: s3\n"},
		{name: "negative chunk size", yaml: "translation:\n  maxEntriesPerChunk: -1\n"},
		{name: "unknown provider", yaml: "provider:\n  type: babelfish\n"},
		{name: "unknown route provider", yaml: "routes:\n  es:\n    type: babelfish\n"},
		{name: "bad locale", yaml: "locales:\n  targets: [\"not a locale!\"]\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
		{name: "bad log format", yaml: "log:\n  format: xml\n"},
		{name: "bad yaml", yaml: "locales: [\n"},
		{name: "bad env int", env: map[string]string{"LINGO_CHUNK_SIZE": "many"}},
		{name: "bad env duration", env: map[string]string{"LINGO_QUIESCENCE": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}

			_, err := Load(path)
			var cfgErr *lingo.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigError, got %v", err)
			}
		})
	}
}

func TestProviderConfig_Merge(t *testing.T) {
	base := ProviderConfig{Type: ProviderOpenAI, Model: "gpt-4o-mini", APIKeyEnv: "KEY"}
	got := base.Merge(ProviderConfig{Model: "gpt-4o", BaseURL: "http://local"})

	if got.Type != ProviderOpenAI || got.Model != "gpt-4o" || got.BaseURL != "http://local" || got.APIKeyEnv != "KEY" {
		t.Errorf("Unexpected merge result %+v", got)
	}
}

func TestNewBackend(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Provider.APIKeyEnv = "LINGO_TEST_API_KEY"

	t.Setenv("LINGO_TEST_API_KEY", "")
	_, err := cfg.NewBackend(cfg.Provider)
	var cfgErr *lingo.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError for missing key, got %v", err)
	}

	t.Setenv("LINGO_TEST_API_KEY", "sk-test")
	cfg.RateLimit.RequestsPerMinute = 60
	backend, err := cfg.NewBackend(cfg.Provider)
	if err != nil {
		t.Fatalf("NewBackend failed: %v", err)
	}
	if _, ok := backend.(*lingo.RateLimitedBackend); !ok {
		t.Errorf("Expected rate limit wrapper, got %T", backend)
	}

	cfg.RateLimit.RequestsPerMinute = 0
	backend, _ = cfg.NewBackend(cfg.Provider)
	if _, ok := backend.(*provider.OpenAIBackend); !ok {
		t.Errorf("Expected bare OpenAI backend, got %T", backend)
	}
}

func TestNewRouter(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Provider.Type = ProviderMock
	cfg.Routes = map[string]ProviderConfig{
		"fr": {Type: ProviderOpenAI, APIKeyEnv: "LINGO_TEST_API_KEY"},
	}
	t.Setenv("LINGO_TEST_API_KEY", "sk-test")

	router, err := cfg.NewRouter()
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	fr, _ := router.Resolve("en", "fr-CA")
	if _, ok := fr.(*provider.OpenAIBackend); !ok {
		t.Errorf("Expected OpenAI backend for fr-CA, got %T", fr)
	}
	es, _ := router.Resolve("en", "es")
	if _, ok := es.(*provider.MockBackend); !ok {
		t.Errorf("Expected mock backend for es, got %T", es)
	}
}

func TestNewRouter_RateLimitPerAccount(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.RateLimit.RequestsPerMinute = 30
	cfg.Provider = ProviderConfig{Type: ProviderOpenAI, Model: "gpt-4o-mini", APIKeyEnv: "LINGO_TEST_API_KEY"}
	cfg.Routes = map[string]ProviderConfig{
		"ja": {Model: "gpt-4o"},
		"de": {APIKeyEnv: "LINGO_TEST_OTHER_KEY"},
	}
	t.Setenv("LINGO_TEST_API_KEY", "sk-test")
	t.Setenv("LINGO_TEST_OTHER_KEY", "sk-other")

	router, err := cfg.NewRouter()
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	limiter := func(locale string) *lingo.RateLimiter {
		t.Helper()
		b, err := router.Resolve("en", locale)
		if err != nil {
			t.Fatal(err)
		}
		rl, ok := b.(*lingo.RateLimitedBackend)
		if !ok {
			t.Fatalf("Expected rate limited backend for %s, got %T", locale, b)
		}
		return rl.Limiter()
	}

	if limiter("ja") != limiter("es") {
		t.Error("Expected routes on the same account to share a limiter")
	}
	if limiter("de") == limiter("es") {
		t.Error("Expected a route with its own API key to get its own limiter")
	}
}

func TestNewCacheStore(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "dict.json")

	store, err := cfg.NewCacheStore()
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := store.(*cache.FileStore); !ok || fs.Path() != cfg.Cache.Path {
		t.Errorf("Expected file store at %s, got %T", cfg.Cache.Path, store)
	}

	cfg.Cache.Backend = CacheMemory
	store, _ = cfg.NewCacheStore()
	if _, ok := store.(*cache.MemoryStore); !ok {
		t.Errorf("Expected memory store, got %T", store)
	}
}

func TestNewRegistry(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Registry.Path = filepath.Join(t.TempDir(), "registry.json")

	if _, signal := cfg.NewRegistry(); signal != nil {
		t.Error("Expected no signal in poll mode")
	}

	cfg.Registry.Readiness = ReadinessSignal
	reg, signal := cfg.NewRegistry()
	if reg == nil || signal == nil {
		t.Error("Expected registry and signal in signal mode")
	}
}

func TestNewChunkedTranslator(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Translation.MaxEntriesPerChunk = 7

	cfg.Retry.MaxRetries = 2

	tr := cfg.NewChunkedTranslator()
	if got := tr.MaxEntries(); got != 7 {
		t.Errorf("Expected 7 entries per chunk, got %d", got)
	}
	if got := tr.Retry(); got.MaxRetries != 2 || got.BaseDelay != cfg.Retry.BaseDelay {
		t.Errorf("Expected the configured retry policy, got %+v", got)
	}
}

func TestSetupLogging_JSONFile(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	path := filepath.Join(t.TempDir(), "lingo.log")
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Log.Format = "json"
	cfg.Log.Outputs = []string{path}

	closeLogs, err := cfg.SetupLogging()
	if err != nil {
		t.Fatalf("SetupLogging failed: %v", err)
	}
	log.Info().Str("locale", "es").Msg("Hello log")
	closeLogs()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"locale":"es"`) || !strings.Contains(string(data), `"message":"Hello log"`) {
		t.Errorf("Expected JSON log line, got %s", data)
	}
}
