package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed L3 tier.
type RedisConfig struct {
	// Addr is the Redis host:port. Required.
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces this tier's keys within the Redis database.
	KeyPrefix string

	// DefaultTTL applies when Set is called with DefaultTTL.
	DefaultTTL time.Duration

	// CompressionLevel gzips stored values at levels 1-9; 0 disables
	// compression. Values outside 0-9 are a configuration error.
	CompressionLevel int

	// Encrypt enables at-rest encryption of stored values with
	// EncryptionKey as the passphrase.
	Encrypt       bool
	EncryptionKey string
}

// Validate reports construction-time configuration errors.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return ErrEmptyAddr
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > gzip.BestCompression {
		return fmt.Errorf("%w: %d", ErrBadCompressionLevel, c.CompressionLevel)
	}
	if c.Encrypt && c.EncryptionKey == "" {
		return ErrMissingEncryptionKey
	}
	return nil
}

// RedisCache is the Redis-backed L3 tier. Values are optionally gzipped
// and then encrypted before storage; TTL expiry is delegated to Redis.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Get/Set/Delete surface I/O failures to the caller; the
//   multi-layer manager logs them and continues.
type RedisCache struct {
	cfg       RedisConfig
	client    *redis.Client
	recipient age.Recipient
	identity  age.Identity

	mu    sync.Mutex
	sizes map[string]int

	hits, misses, sets, deletes uint64
	latency                     latencyTracker
}

// NewRedisCache creates the L3 tier. Configuration problems fail here,
// never at runtime.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &RedisCache{
		cfg: cfg,
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		sizes: make(map[string]int),
	}

	if cfg.Encrypt {
		recipient, err := age.NewScryptRecipient(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("cache: encryption setup: %w", err)
		}
		identity, err := age.NewScryptIdentity(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("cache: encryption setup: %w", err)
		}
		c.recipient, c.identity = recipient, identity
	}
	return c, nil
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get retrieves and decodes a value. A Redis error or an unreadable
// stored payload is surfaced to the caller.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	defer func() { c.observe(time.Since(start)) }()

	raw, err := c.client.Get(ctx, c.prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.count(&c.misses)
		return nil, false, nil
	}
	if err != nil {
		c.count(&c.misses)
		return nil, false, fmt.Errorf("cache: redis get %q: %w", key, err)
	}

	value, err := c.decode(raw)
	if err != nil {
		c.count(&c.misses)
		return nil, false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	c.count(&c.hits)
	return value, true, nil
}

// Set encodes and stores a value. A zero TTL stores nothing since the
// entry would already be expired; any existing value is dropped instead.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl == DefaultTTL {
		ttl = c.cfg.DefaultTTL
	}

	start := time.Now()
	defer func() { c.observe(time.Since(start)) }()

	if ttl == 0 {
		c.count(&c.sets)
		if err := c.client.Del(ctx, c.prefixed(key)).Err(); err != nil {
			return fmt.Errorf("cache: redis set %q: %w", key, err)
		}
		c.forgetSize(key)
		return nil
	}

	expiration := ttl
	if ttl == NoExpiry {
		expiration = 0
	}

	encoded, err := c.encode(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefixed(key), encoded, expiration).Err(); err != nil {
		return fmt.Errorf("cache: redis set %q: %w", key, err)
	}

	c.mu.Lock()
	c.sets++
	c.sizes[key] = len(encoded)
	c.mu.Unlock()
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer func() { c.observe(time.Since(start)) }()

	c.count(&c.deletes)
	if err := c.client.Del(ctx, c.prefixed(key)).Err(); err != nil {
		return fmt.Errorf("cache: redis delete %q: %w", key, err)
	}
	c.forgetSize(key)
	return nil
}

// Clear removes every entry under this tier's prefix and resets counters.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.cfg.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache: redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis clear: %w", err)
	}

	c.mu.Lock()
	c.hits, c.misses, c.sets, c.deletes = 0, 0, 0, 0
	c.sizes = make(map[string]int)
	c.latency.reset()
	c.mu.Unlock()
	return nil
}

// Compact scans stored entries and drops any whose payload can no longer
// be decoded, returning how many were removed.
func (c *RedisCache) Compact(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, c.cfg.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("cache: compact: %w", err)
		}
		if _, err := c.decode(raw); err == nil {
			continue
		}
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("cache: compact: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cache: compact: %w", err)
	}
	return removed, nil
}

// Stats returns a snapshot of the tier's counters. The memory estimate
// covers bytes written by this process, not the whole Redis database.
func (c *RedisCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bytes int64
	for _, size := range c.sizes {
		bytes += int64(size)
	}
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Sets:        c.sets,
		Deletes:     c.deletes,
		Entries:     len(c.sizes),
		MemoryBytes: bytes,
		AvgLatency:  c.latency.avg,
		MaxLatency:  c.latency.max,
	}
}

func (c *RedisCache) prefixed(key string) string {
	return c.cfg.KeyPrefix + key
}

func (c *RedisCache) count(counter *uint64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

func (c *RedisCache) observe(elapsed time.Duration) {
	c.mu.Lock()
	c.latency.observe(elapsed)
	c.mu.Unlock()
}

func (c *RedisCache) forgetSize(key string) {
	c.mu.Lock()
	delete(c.sizes, key)
	c.mu.Unlock()
}

// encode compresses then encrypts, in that order; encrypting first would
// defeat the compression.
func (c *RedisCache) encode(value []byte) ([]byte, error) {
	out := value

	if c.cfg.CompressionLevel > 0 {
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, c.cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(out); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		out = buf.Bytes()
	}

	if c.recipient != nil {
		var buf bytes.Buffer
		ew, err := age.Encrypt(&buf, c.recipient)
		if err != nil {
			return nil, err
		}
		if _, err := ew.Write(out); err != nil {
			return nil, err
		}
		if err := ew.Close(); err != nil {
			return nil, err
		}
		out = buf.Bytes()
	}
	return out, nil
}

func (c *RedisCache) decode(raw []byte) ([]byte, error) {
	out := raw

	if c.identity != nil {
		dr, err := age.Decrypt(bytes.NewReader(out), c.identity)
		if err != nil {
			return nil, err
		}
		out, err = io.ReadAll(dr)
		if err != nil {
			return nil, err
		}
	}

	if c.cfg.CompressionLevel > 0 {
		zr, err := gzip.NewReader(bytes.NewReader(out))
		if err != nil {
			return nil, err
		}
		out, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if err := zr.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Ensure RedisCache implements Tier and Compactor
var (
	_ Tier      = (*RedisCache)(nil)
	_ Compactor = (*RedisCache)(nil)
)
