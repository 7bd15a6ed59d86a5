package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig configures an in-memory tier.
type MemoryConfig struct {
	// MaxEntries bounds the tier; inserting past it triggers eviction.
	MaxEntries int

	// DefaultTTL applies when Set is called with DefaultTTL. NoExpiry is
	// allowed and makes default entries permanent.
	DefaultTTL time.Duration

	// Policy selects which entries are evicted at capacity.
	Policy EvictionPolicy
}

// MemoryCache is an in-memory cache tier. It never blocks on I/O and its
// operations never fail.
type MemoryCache struct {
	mu      sync.Mutex
	cfg     MemoryConfig
	entries map[string]*Entry

	hits, misses, sets, deletes, evictions uint64
	memoryBytes                            int64
	latency                                latencyTracker
}

// NewMemoryCache creates an in-memory tier. A non-positive MaxEntries is
// a construction-time configuration error.
func NewMemoryCache(cfg MemoryConfig) (*MemoryCache, error) {
	if cfg.MaxEntries <= 0 {
		return nil, ErrZeroMaxSize
	}
	return &MemoryCache{
		cfg:     cfg,
		entries: make(map[string]*Entry),
	}, nil
}

// Get retrieves a value. Expired entries are removed lazily and count as
// misses. A hit touches the entry's access bookkeeping.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	now := start

	c.mu.Lock()
	defer func() { c.latency.observe(time.Since(start)); c.mu.Unlock() }()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if entry.IsExpired(now) {
		c.removeLocked(key, entry)
		c.misses++
		return nil, false, nil
	}

	entry.Touch(now)
	c.hits++
	return entry.Value, true, nil
}

// Set stores a value, evicting per policy if the insert exceeds the
// tier's capacity.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl == DefaultTTL {
		ttl = c.cfg.DefaultTTL
	}

	start := time.Now()
	entry := NewEntry(value, ttl)

	c.mu.Lock()
	defer func() { c.latency.observe(time.Since(start)); c.mu.Unlock() }()

	if old, exists := c.entries[key]; exists {
		c.memoryBytes -= int64(old.Size)
	}
	c.entries[key] = entry
	c.memoryBytes += int64(entry.Size)
	c.sets++

	for len(c.entries) > c.cfg.MaxEntries {
		victim := c.victimLocked()
		if victim == "" {
			break
		}
		c.removeLocked(victim, c.entries[victim])
		c.evictions++
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	start := time.Now()

	c.mu.Lock()
	defer func() { c.latency.observe(time.Since(start)); c.mu.Unlock() }()

	if entry, ok := c.entries[key]; ok {
		c.removeLocked(key, entry)
	}
	c.deletes++
	return nil
}

// Clear removes every entry and resets the operation counters.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.hits, c.misses, c.sets, c.deletes, c.evictions = 0, 0, 0, 0, 0
	c.memoryBytes = 0
	c.latency.reset()
	return nil
}

// Stats returns a snapshot of the tier's counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Sets:        c.sets,
		Deletes:     c.deletes,
		Evictions:   c.evictions,
		Entries:     len(c.entries),
		MemoryBytes: c.memoryBytes,
		AvgLatency:  c.latency.avg,
		MaxLatency:  c.latency.max,
	}
}

// MaxEntries returns the configured capacity.
func (c *MemoryCache) MaxEntries() int {
	return c.cfg.MaxEntries
}

func (c *MemoryCache) removeLocked(key string, entry *Entry) {
	c.memoryBytes -= int64(entry.Size)
	delete(c.entries, key)
}

// victimLocked picks the next entry to evict under the configured policy.
func (c *MemoryCache) victimLocked() string {
	var victim string
	var victimEntry *Entry

	for key, entry := range c.entries {
		if c.cfg.Policy == EvictRandom {
			return key
		}
		if victimEntry == nil || c.beats(entry, victimEntry) {
			victim, victimEntry = key, entry
		}
	}
	return victim
}

// beats reports whether a is a better eviction candidate than b.
func (c *MemoryCache) beats(a, b *Entry) bool {
	switch c.cfg.Policy {
	case EvictLFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.LastAccessed.Before(b.LastAccessed)
	case EvictFIFO:
		return a.CreatedAt.Before(b.CreatedAt)
	default: // EvictLRU
		return a.LastAccessed.Before(b.LastAccessed)
	}
}

// Ensure MemoryCache implements Tier
var _ Tier = (*MemoryCache)(nil)
