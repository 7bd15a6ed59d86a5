package cache

import (
	"context"
	"sync"
	"time"

	"github.com/chaos-world/actor-core/observe"
)

// Promotion TTLs applied when a value found in a slower tier is copied
// upward after a hit.
const (
	PromoteL1TTL = 300 * time.Second
	PromoteL2TTL = 600 * time.Second
)

// Health classifies a tier or the whole cache.
type Health int

const (
	Healthy Health = iota
	Warning
	Unhealthy
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Warning:
		return "warning"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthStatus is the manager's derived health report. It is recomputed
// on demand and never persisted.
type HealthStatus struct {
	Overall         Health  `json:"overall"`
	L1              Health  `json:"l1"`
	L2              Health  `json:"l2"`
	L3              Health  `json:"l3"`
	EfficiencyScore float64 `json:"efficiency_score"`
	TotalOperations uint64  `json:"total_operations"`
	HitRatio        float64 `json:"hit_ratio"`
}

// ComprehensiveStats aggregates per-tier counters with the manager's own
// read-path accounting. A full miss across all tiers counts once.
type ComprehensiveStats struct {
	L1         Stats   `json:"l1"`
	L2         Stats   `json:"l2"`
	L3         *Stats  `json:"l3,omitempty"`
	Hits       uint64  `json:"hits"`
	FullMisses uint64  `json:"full_misses"`
	HitRatio   float64 `json:"hit_ratio"`

	AvgLatency time.Duration `json:"avg_latency"`
	MaxLatency time.Duration `json:"max_latency"`
}

// MultiLayer composes L1/L2/L3 tiers behind one Cache. Reads try
// L1→L2→L3 with upward promotion; writes go through to every tier
// best-effort. L3 is optional.
type MultiLayer struct {
	l1, l2 *MemoryCache
	l3     Tier
	log    observe.Logger

	mu         sync.Mutex
	hits       uint64
	fullMisses uint64
	latency    latencyTracker
}

// NewMultiLayer creates the manager. l3 may be nil for a two-tier setup;
// a nil logger falls back to a no-op logger.
func NewMultiLayer(l1, l2 *MemoryCache, l3 Tier, logger observe.Logger) (*MultiLayer, error) {
	if l1 == nil || l2 == nil {
		return nil, ErrNilCache
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &MultiLayer{l1: l1, l2: l2, l3: l3, log: logger}, nil
}

// Get reads through the tiers. A hit in a slower tier promotes the value
// upward with the fixed promotion TTLs; promotion failures are logged and
// do not affect the returned value.
func (m *MultiLayer) Get(ctx context.Context, key string) ([]byte, bool) {
	start := time.Now()
	defer func() { m.observe(time.Since(start)) }()

	if value, ok, _ := m.l1.Get(ctx, key); ok {
		m.count(&m.hits)
		return value, true
	}

	if value, ok, _ := m.l2.Get(ctx, key); ok {
		if err := m.l1.Set(ctx, key, value, PromoteL1TTL); err != nil {
			m.log.Warn(ctx, "l1 promotion failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
		m.count(&m.hits)
		return value, true
	}

	if m.l3 != nil {
		value, ok, err := m.l3.Get(ctx, key)
		if err != nil {
			m.log.Warn(ctx, "l3 read failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
		if ok {
			if err := m.l2.Set(ctx, key, value, PromoteL2TTL); err != nil {
				m.log.Warn(ctx, "l2 promotion failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
			}
			if err := m.l1.Set(ctx, key, value, PromoteL1TTL); err != nil {
				m.log.Warn(ctx, "l1 promotion failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
			}
			m.count(&m.hits)
			return value, true
		}
	}

	m.count(&m.fullMisses)
	return nil, false
}

// Set writes through to every tier. Tier failures are logged; the write
// is best-effort, not atomic.
func (m *MultiLayer) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	start := time.Now()
	defer func() { m.observe(time.Since(start)) }()

	if err := m.l1.Set(ctx, key, value, ttl); err != nil {
		m.log.Warn(ctx, "l1 write failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
	}
	if err := m.l2.Set(ctx, key, value, ttl); err != nil {
		m.log.Warn(ctx, "l2 write failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
	}
	if m.l3 != nil {
		if err := m.l3.Set(ctx, key, value, ttl); err != nil {
			m.log.Warn(ctx, "l3 write failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
	}
	return nil
}

// Delete removes the key from every tier, best-effort.
func (m *MultiLayer) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer func() { m.observe(time.Since(start)) }()

	if err := m.l1.Delete(ctx, key); err != nil {
		m.log.Warn(ctx, "l1 delete failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
	}
	if err := m.l2.Delete(ctx, key); err != nil {
		m.log.Warn(ctx, "l2 delete failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
	}
	if m.l3 != nil {
		if err := m.l3.Delete(ctx, key); err != nil {
			m.log.Warn(ctx, "l3 delete failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
	}
	return nil
}

// Clear empties every tier and resets the manager's counters.
func (m *MultiLayer) Clear(ctx context.Context) error {
	if err := m.l1.Clear(ctx); err != nil {
		m.log.Warn(ctx, "l1 clear failed", observe.Field{Key: "error", Value: err.Error()})
	}
	if err := m.l2.Clear(ctx); err != nil {
		m.log.Warn(ctx, "l2 clear failed", observe.Field{Key: "error", Value: err.Error()})
	}
	if m.l3 != nil {
		if err := m.l3.Clear(ctx); err != nil {
			m.log.Warn(ctx, "l3 clear failed", observe.Field{Key: "error", Value: err.Error()})
		}
	}

	m.mu.Lock()
	m.hits, m.fullMisses = 0, 0
	m.latency.reset()
	m.mu.Unlock()
	return nil
}

// Compact runs the maintenance pass on any tier that supports one.
func (m *MultiLayer) Compact(ctx context.Context) (int, error) {
	compactor, ok := m.l3.(Compactor)
	if m.l3 == nil || !ok {
		return 0, nil
	}
	return compactor.Compact(ctx)
}

// Stats returns the manager's read-path counters.
func (m *MultiLayer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Hits:       m.hits,
		Misses:     m.fullMisses,
		AvgLatency: m.latency.avg,
		MaxLatency: m.latency.max,
	}
}

// ComprehensiveStats combines the manager's counters with every tier's.
func (m *MultiLayer) ComprehensiveStats() ComprehensiveStats {
	m.mu.Lock()
	hits, fullMisses := m.hits, m.fullMisses
	avg, max := m.latency.avg, m.latency.max
	m.mu.Unlock()

	stats := ComprehensiveStats{
		L1:         m.l1.Stats(),
		L2:         m.l2.Stats(),
		Hits:       hits,
		FullMisses: fullMisses,
		AvgLatency: avg,
		MaxLatency: max,
	}
	if m.l3 != nil {
		l3 := m.l3.Stats()
		stats.L3 = &l3
	}
	if total := hits + fullMisses; total > 0 {
		stats.HitRatio = float64(hits) / float64(total)
	}
	return stats
}

// healthMinOps is how many manager-level gets must be observed before the
// combined hit ratio influences the health classification.
const healthMinOps = 10

// HealthStatus derives the current health classification and efficiency
// score from the combined hit ratio and per-tier utilization.
func (m *MultiLayer) HealthStatus() HealthStatus {
	stats := m.ComprehensiveStats()
	ops := stats.Hits + stats.FullMisses

	status := HealthStatus{
		L1:              tierHealth(stats.L1, m.l1.MaxEntries()),
		L2:              tierHealth(stats.L2, m.l2.MaxEntries()),
		L3:              Healthy,
		TotalOperations: ops,
		HitRatio:        stats.HitRatio,
	}
	if stats.L3 != nil {
		status.L3 = ratioHealth(*stats.L3)
	}

	status.Overall = worst(status.L1, status.L2, status.L3)
	if ops >= healthMinOps {
		switch {
		case stats.HitRatio < 0.2:
			status.Overall = worst(status.Overall, Unhealthy)
		case stats.HitRatio < 0.5:
			status.Overall = worst(status.Overall, Warning)
		}
	}

	status.EfficiencyScore = efficiencyScore(stats)
	return status
}

// tierHealth classifies an in-memory tier by utilization and hit ratio.
func tierHealth(s Stats, maxEntries int) Health {
	utilization := float64(s.Entries) / float64(maxEntries)
	if utilization >= 0.98 {
		return Unhealthy
	}
	if utilization >= 0.90 {
		return Warning
	}
	return ratioHealth(s)
}

// ratioHealth classifies a tier by hit ratio alone, once it has seen
// enough traffic to make the ratio meaningful.
func ratioHealth(s Stats) Health {
	if s.Hits+s.Misses < healthMinOps {
		return Healthy
	}
	switch ratio := s.HitRatio(); {
	case ratio < 0.2:
		return Unhealthy
	case ratio < 0.5:
		return Warning
	default:
		return Healthy
	}
}

func worst(hs ...Health) Health {
	out := Healthy
	for _, h := range hs {
		if h > out {
			out = h
		}
	}
	return out
}

// efficiencyScore blends hit ratio, response time and memory distribution
// into a normalized [0,1] score. Weights: 0.4 hit ratio, 0.3 latency,
// 0.3 memory.
func efficiencyScore(stats ComprehensiveStats) float64 {
	latencyScore := 1.0 - min(float64(stats.AvgLatency.Microseconds())/1000.0, 1.0)

	total := stats.L1.MemoryBytes + stats.L2.MemoryBytes
	if stats.L3 != nil {
		total += stats.L3.MemoryBytes
	}
	memoryScore := 1.0
	if total > 0 {
		memoryScore = min(float64(stats.L1.MemoryBytes)/float64(total), 1.0)
	}

	return stats.HitRatio*0.4 + latencyScore*0.3 + memoryScore*0.3
}

func (m *MultiLayer) count(counter *uint64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

func (m *MultiLayer) observe(elapsed time.Duration) {
	m.mu.Lock()
	m.latency.observe(elapsed)
	m.mu.Unlock()
}

// Ensure MultiLayer implements Cache
var _ Cache = (*MultiLayer)(nil)
