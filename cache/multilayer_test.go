package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyTier fails every operation; it stands in for a broken remote L3.
type flakyTier struct{}

func (f *flakyTier) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (f *flakyTier) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (f *flakyTier) Delete(context.Context, string) error { return errors.New("connection refused") }
func (f *flakyTier) Clear(context.Context) error          { return errors.New("connection refused") }
func (f *flakyTier) Stats() Stats                         { return Stats{} }

var _ Tier = (*flakyTier)(nil)

func newTestMultiLayer(t *testing.T, l3 Tier) (*MultiLayer, *MemoryCache, *MemoryCache) {
	t.Helper()
	l1, err := NewMemoryCache(MemoryConfig{MaxEntries: 10, DefaultTTL: time.Minute, Policy: EvictLRU})
	if err != nil {
		t.Fatalf("l1: %v", err)
	}
	l2, err := NewMemoryCache(MemoryConfig{MaxEntries: 100, DefaultTTL: 10 * time.Minute, Policy: EvictLRU})
	if err != nil {
		t.Fatalf("l2: %v", err)
	}
	m, err := NewMultiLayer(l1, l2, l3, nil)
	if err != nil {
		t.Fatalf("NewMultiLayer failed: %v", err)
	}
	return m, l1, l2
}

func TestNewMultiLayer_RequiresMemoryTiers(t *testing.T) {
	if _, err := NewMultiLayer(nil, nil, nil, nil); !errors.Is(err, ErrNilCache) {
		t.Errorf("NewMultiLayer = %v, want ErrNilCache", err)
	}
}

func TestMultiLayer_WriteThroughAndRead(t *testing.T) {
	ctx := context.Background()
	m, l1, l2 := newTestMultiLayer(t, nil)

	if err := m.Set(ctx, "k1", []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Write-through lands in both memory tiers.
	if _, ok, _ := l1.Get(ctx, "k1"); !ok {
		t.Error("write-through should populate L1")
	}
	if _, ok, _ := l2.Get(ctx, "k1"); !ok {
		t.Error("write-through should populate L2")
	}

	value, ok := m.Get(ctx, "k1")
	if !ok || string(value) != `{"v":1}` {
		t.Errorf("Get = %q, %v", value, ok)
	}
}

func TestMultiLayer_L2HitPromotesToL1(t *testing.T) {
	ctx := context.Background()
	m, l1, l2 := newTestMultiLayer(t, nil)

	// Seed only L2.
	if err := l2.Set(ctx, "k1", []byte(`{"v":2}`), time.Minute); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	value, ok := m.Get(ctx, "k1")
	if !ok || string(value) != `{"v":2}` {
		t.Fatalf("Get = %q, %v", value, ok)
	}
	if _, ok, _ := l1.Get(ctx, "k1"); !ok {
		t.Error("L2 hit should promote into L1")
	}
}

func TestMultiLayer_L3HitPromotesToBothMemoryTiers(t *testing.T) {
	ctx := context.Background()
	l3, err := NewMemoryCache(MemoryConfig{MaxEntries: 1000, DefaultTTL: time.Hour, Policy: EvictLRU})
	if err != nil {
		t.Fatalf("l3: %v", err)
	}
	m, l1, l2 := newTestMultiLayer(t, l3)

	// Seed only L3.
	if err := l3.Set(ctx, "k1", []byte(`{"v":3}`), time.Hour); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	value, ok := m.Get(ctx, "k1")
	if !ok || string(value) != `{"v":3}` {
		t.Fatalf("Get = %q, %v", value, ok)
	}
	if _, ok, _ := l1.Get(ctx, "k1"); !ok {
		t.Error("L3 hit should promote into L1")
	}
	if _, ok, _ := l2.Get(ctx, "k1"); !ok {
		t.Error("L3 hit should promote into L2")
	}
}

func TestMultiLayer_FullMissCountsOnce(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, nil)

	if _, ok := m.Get(ctx, "absent"); ok {
		t.Fatal("expected miss")
	}
	stats := m.Stats()
	if stats.Misses != 1 {
		t.Errorf("manager misses = %d, want 1 per full miss", stats.Misses)
	}
}

func TestMultiLayer_SurvivesBrokenL3(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, &flakyTier{})

	// Writes and reads stay usable when L3 fails.
	if err := m.Set(ctx, "k1", []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("Set = %v, want nil despite broken L3", err)
	}
	if value, ok := m.Get(ctx, "k1"); !ok || string(value) != `{"v":1}` {
		t.Errorf("Get = %q, %v", value, ok)
	}

	m.Delete(ctx, "k1")
	if _, ok := m.Get(ctx, "k1"); ok {
		t.Error("Delete should still clear memory tiers")
	}
}

func TestMultiLayer_DeleteAndClearSpanTiers(t *testing.T) {
	ctx := context.Background()
	l3, _ := NewMemoryCache(MemoryConfig{MaxEntries: 100, DefaultTTL: time.Hour, Policy: EvictLRU})
	m, l1, l2 := newTestMultiLayer(t, l3)

	m.Set(ctx, "k1", []byte(`1`), time.Minute)
	m.Delete(ctx, "k1")
	for name, tier := range map[string]*MemoryCache{"l1": l1, "l2": l2, "l3": l3} {
		if _, ok, _ := tier.Get(ctx, "k1"); ok {
			t.Errorf("%s should not hold deleted key", name)
		}
	}

	m.Set(ctx, "k2", []byte(`2`), time.Minute)
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := m.Get(ctx, "k2"); ok {
		t.Error("cleared key should miss")
	}
	if m.Stats().Misses != 1 {
		// Only the post-clear probe above should have counted.
		t.Errorf("Clear should reset manager counters, got %+v", m.Stats())
	}
}

func TestMultiLayer_ComprehensiveStats(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, nil)

	m.Set(ctx, "k1", []byte(`1`), time.Minute)
	m.Get(ctx, "k1")
	m.Get(ctx, "absent")

	stats := m.ComprehensiveStats()
	if stats.Hits != 1 || stats.FullMisses != 1 {
		t.Errorf("hits=%d fullMisses=%d", stats.Hits, stats.FullMisses)
	}
	if stats.HitRatio != 0.5 {
		t.Errorf("HitRatio = %v, want 0.5", stats.HitRatio)
	}
	if stats.L3 != nil {
		t.Error("L3 stats should be absent for a two-tier setup")
	}
	if stats.L1.Sets != 1 {
		t.Errorf("L1 sets = %d, want 1", stats.L1.Sets)
	}
}

func TestMultiLayer_HealthStatus(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, nil)

	m.Set(ctx, "k1", []byte(`1`), time.Minute)
	for i := 0; i < 10; i++ {
		m.Get(ctx, "k1")
	}

	status := m.HealthStatus()
	if status.Overall != Healthy {
		t.Errorf("Overall = %v, want healthy with a perfect hit ratio", status.Overall)
	}
	if status.EfficiencyScore < 0 || status.EfficiencyScore > 1 {
		t.Errorf("EfficiencyScore = %v, want within [0,1]", status.EfficiencyScore)
	}
	if status.HitRatio != 1.0 {
		t.Errorf("HitRatio = %v, want 1.0", status.HitRatio)
	}
}

func TestMultiLayer_HealthDegradesOnMisses(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, nil)

	for i := 0; i < 20; i++ {
		m.Get(ctx, "never-set")
	}

	status := m.HealthStatus()
	if status.Overall == Healthy {
		t.Errorf("Overall = %v, want degraded after all misses", status.Overall)
	}
}

func TestMultiLayer_CompactDelegates(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMultiLayer(t, nil)

	// No L3, nothing to compact.
	removed, err := m.Compact(ctx)
	if err != nil || removed != 0 {
		t.Errorf("Compact = %d, %v", removed, err)
	}
}
