package cache

import "time"

// entryOverhead approximates the bookkeeping bytes carried per entry on
// top of the stored value itself.
const entryOverhead = 96

// Entry is one cached value with its lifecycle bookkeeping.
type Entry struct {
	Value        []byte        `json:"value"`
	CreatedAt    time.Time     `json:"created_at"`
	TTL          time.Duration `json:"ttl"`
	LastAccessed time.Time     `json:"last_accessed"`
	AccessCount  uint64        `json:"access_count"`
	Size         int           `json:"size"`
}

// NewEntry creates an entry for the given value. A TTL of zero marks the
// entry expired immediately; NoExpiry marks it permanent.
func NewEntry(value []byte, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Value:        value,
		CreatedAt:    now,
		TTL:          ttl,
		LastAccessed: now,
		Size:         len(value) + entryOverhead,
	}
}

// IsExpired reports whether the entry has outlived its TTL at the given
// instant. An entry with TTL zero is expired from the moment it is
// created; one with NoExpiry never expires.
func (e *Entry) IsExpired(now time.Time) bool {
	if e.TTL == NoExpiry {
		return false
	}
	return now.Sub(e.CreatedAt) >= e.TTL
}

// Touch records a hit: it updates the last-access time and bumps the
// access count.
func (e *Entry) Touch(now time.Time) {
	e.LastAccessed = now
	e.AccessCount++
}
