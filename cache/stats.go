package cache

import "time"

// Stats holds a tier's accumulated operation counters. Counters grow
// monotonically and reset only when the tier is cleared.
type Stats struct {
	Hits        uint64        `json:"hits"`
	Misses      uint64        `json:"misses"`
	Sets        uint64        `json:"sets"`
	Deletes     uint64        `json:"deletes"`
	Evictions   uint64        `json:"evictions"`
	Entries     int           `json:"entries"`
	MemoryBytes int64         `json:"memory_bytes"`
	AvgLatency  time.Duration `json:"avg_latency"`
	MaxLatency  time.Duration `json:"max_latency"`
}

// HitRatio returns hits/(hits+misses), or 0 when no gets were observed.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// latencyTracker keeps a running average and maximum of operation
// latencies. Callers hold the owning tier's lock.
type latencyTracker struct {
	count uint64
	avg   time.Duration
	max   time.Duration
}

func (t *latencyTracker) observe(elapsed time.Duration) {
	t.count++
	t.avg += (elapsed - t.avg) / time.Duration(t.count)
	if elapsed > t.max {
		t.max = elapsed
	}
}

func (t *latencyTracker) reset() {
	*t = latencyTracker{}
}
