package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

// documentKey is the Redis key, after the prefix, holding the cache document.
const documentKey = "dictionary"

// maxUpdateAttempts bounds how often Update restarts after another client
// changed the document under it.
const maxUpdateAttempts = 10

// ErrUpdateConflict is returned when Update kept losing to concurrent writers.
var ErrUpdateConflict = errors.New("cache document changed concurrently")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// RedisStore keeps the cache document under a single Redis key.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	compress  bool
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string `yaml:"url"`       // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    `yaml:"ttl"`       // TTL in seconds (0 = no expiration)
	KeyPrefix string `yaml:"keyPrefix"` // Prefix for all keys (default: "lingo:")
	Compress  bool   `yaml:"compress"`  // Store the document zstd-compressed
}

// NewRedisStore connects to Redis and creates a store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg)
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
// The URL field of cfg is ignored.
func NewRedisStoreFromClient(client *redis.Client, cfg RedisConfig) (*RedisStore, error) {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "lingo:"
	}

	ttl := time.Duration(cfg.TTL) * time.Second
	if cfg.TTL <= 0 {
		ttl = 0
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &RedisStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: prefix,
		compress:  cfg.Compress,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// Key returns the Redis key holding the document.
func (s *RedisStore) Key() string {
	return s.keyPrefix + documentKey
}

// Load fetches and decodes the document. A missing key yields an empty document.
func (s *RedisStore) Load(ctx context.Context) (*Document, error) {
	return s.load(ctx, s.client)
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable) (*Document, error) {
	data, err := c.Get(ctx, s.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.Key(), err)
	}

	// Compressed and plain documents are both accepted so that toggling
	// compression does not orphan an existing cache.
	if bytes.HasPrefix(data, zstdMagic) {
		data, err = s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing cache: %w", err)
		}
	}
	return UnmarshalDocument(data)
}

// Save encodes and stores the document.
func (s *RedisStore) Save(ctx context.Context, doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(), s.encode(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(), err)
	}
	return nil
}

// Update watches the document key, applies fn to the stored document and
// writes the result in a MULTI/EXEC transaction. When another client writes
// the key in between, the transaction is discarded and Update starts over
// with the new document.
func (s *RedisStore) Update(ctx context.Context, fn func(doc *Document) (bool, error)) error {
	key := s.Key()
	txf := func(tx *redis.Tx) error {
		doc, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}
		data, err := doc.Marshal()
		if err != nil {
			return fmt.Errorf("encoding cache: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, s.encode(data), s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis update %s: %w", key, ErrUpdateConflict)
}

func (s *RedisStore) encode(data []byte) string {
	if !s.compress {
		return string(data)
	}
	return string(s.encoder.EncodeAll(data, nil))
}

// Close releases the codec and closes the Redis connection.
func (s *RedisStore) Close() error {
	s.decoder.Close()
	_ = s.encoder.Close()
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Verify RedisStore implements Store and Updater
var (
	_ Store   = (*RedisStore)(nil)
	_ Updater = (*RedisStore)(nil)
)
