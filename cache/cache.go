package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// TTL sentinels accepted by Set. Any positive duration expires the entry
// after that long; zero marks the entry expired immediately.
const (
	// DefaultTTL tells the tier to apply its configured default TTL.
	DefaultTTL time.Duration = -1

	// NoExpiry marks an entry that never expires.
	NoExpiry time.Duration = -2
)

// Sentinel errors for cache operations.
var (
	ErrNilCache             = errors.New("cache: cache is nil")
	ErrInvalidKey           = errors.New("cache: key is invalid")
	ErrKeyTooLong           = errors.New("cache: key exceeds max length")
	ErrZeroMaxSize          = errors.New("cache: max size must be positive")
	ErrEmptyAddr            = errors.New("cache: store address is empty")
	ErrBadCompressionLevel  = errors.New("cache: compression level out of range")
	ErrMissingEncryptionKey = errors.New("cache: encryption enabled without a key")
)

// Cache is the manager-facing interface for snapshot caching.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get never errors; it returns (nil, false) on miss. Tier
//   failures behind a composite implementation are logged, not surfaced.
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value. TTL accepts DefaultTTL, NoExpiry, zero
	// (immediately expired) or a positive duration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries and resets the operation counters.
	Clear(ctx context.Context) error

	// Stats returns the accumulated operation counters.
	Stats() Stats
}

// Tier is one layer of the multi-layer cache. Unlike Cache, a tier's Get
// may fail: a remote tier surfaces I/O errors to the manager, which logs
// them and treats the tier as a miss.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats() Stats
}

// Compactor is implemented by tiers that support a maintenance compaction
// pass over their stored entries.
type Compactor interface {
	// Compact removes unreadable entries and returns how many were removed.
	Compact(ctx context.Context) (int, error)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
