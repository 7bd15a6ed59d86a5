package cache

import "fmt"

// EvictionPolicy selects which entries a tier removes when an insert
// would exceed its configured maximum entry count.
type EvictionPolicy int

const (
	// EvictLRU removes the entry with the oldest last-access time.
	EvictLRU EvictionPolicy = iota
	// EvictLFU removes the entry with the lowest access count.
	EvictLFU
	// EvictFIFO removes the entry with the oldest creation time.
	EvictFIFO
	// EvictRandom removes an arbitrary entry.
	EvictRandom
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictLRU:
		return "lru"
	case EvictLFU:
		return "lfu"
	case EvictFIFO:
		return "fifo"
	case EvictRandom:
		return "random"
	default:
		return fmt.Sprintf("EvictionPolicy(%d)", int(p))
	}
}

// ParseEvictionPolicy parses a policy name as it appears in configuration.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch s {
	case "lru":
		return EvictLRU, nil
	case "lfu":
		return EvictLFU, nil
	case "fifo":
		return EvictFIFO, nil
	case "random":
		return EvictRandom, nil
	default:
		return 0, fmt.Errorf("cache: unknown eviction policy %q", s)
	}
}
