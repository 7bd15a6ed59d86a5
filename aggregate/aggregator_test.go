package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chaos-world/actor-core/cache"
	"github.com/chaos-world/actor-core/caps"
	"github.com/chaos-world/actor-core/registry"
	"github.com/chaos-world/actor-core/stat"
)

type stubSubsystem struct {
	id       string
	priority int64
	fn       func(ctx context.Context, actor *stat.Actor) (*stat.SubsystemOutput, error)
}

func (s *stubSubsystem) SystemID() string { return s.id }
func (s *stubSubsystem) Priority() int64  { return s.priority }
func (s *stubSubsystem) Contribute(ctx context.Context, actor *stat.Actor) (*stat.SubsystemOutput, error) {
	return s.fn(ctx, actor)
}

func flatContributor(id string, priority int64, dimension string, value float64) *stubSubsystem {
	return &stubSubsystem{id: id, priority: priority, fn: func(_ context.Context, _ *stat.Actor) (*stat.SubsystemOutput, error) {
		out := stat.NewSubsystemOutput(id)
		out.AddPrimary(stat.Contribution{Dimension: dimension, Bucket: stat.BucketFlat, Value: value, System: id})
		return out, nil
	}}
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	l1, err := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: 100, DefaultTTL: time.Minute, Policy: cache.EvictLRU})
	if err != nil {
		t.Fatal(err)
	}
	l2, err := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: 1000, DefaultTTL: 10 * time.Minute, Policy: cache.EvictLRU})
	if err != nil {
		t.Fatal(err)
	}
	m, err := cache.NewMultiLayer(l1, l2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newTestAggregator(t *testing.T, subsystems ...registry.Subsystem) (*Aggregator, *registry.CombinerRegistry, *registry.ClampRegistry) {
	t.Helper()
	plugins := registry.NewPluginRegistry()
	for _, s := range subsystems {
		if err := plugins.Register(s); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	combiner := registry.NewCombinerRegistry()
	clamps := registry.NewClampRegistry()
	provider := caps.NewProvider(registry.NewCapLayerRegistry("base", "equipment"))

	agg, err := NewAggregator(plugins, combiner, clamps, provider, newTestCache(t), nil, nil)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	return agg, combiner, clamps
}

func TestResolve_SumsFlatContributions(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t,
		flatContributor("cultivation", 100, "strength", 10),
		flatContributor("equipment", 50, "strength", 15),
		flatContributor("buffs", 10, "strength", 12),
	)

	snapshot, err := agg.Resolve(ctx, stat.NewActor("hero"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got, _ := snapshot.GetPrimary("strength"); got != 37.0 {
		t.Errorf("strength = %v, want 37.0", got)
	}

	want := []string{"cultivation", "equipment", "buffs"}
	if len(snapshot.SubsystemsProcessed) != len(want) {
		t.Fatalf("SubsystemsProcessed = %v", snapshot.SubsystemsProcessed)
	}
	for i := range want {
		if snapshot.SubsystemsProcessed[i] != want[i] {
			t.Errorf("SubsystemsProcessed[%d] = %q, want %q (priority order)", i, snapshot.SubsystemsProcessed[i], want[i])
		}
	}
}

func TestResolve_AppliesEffectiveCaps(t *testing.T) {
	ctx := context.Background()
	core := &stubSubsystem{id: "core", priority: 100, fn: func(_ context.Context, _ *stat.Actor) (*stat.SubsystemOutput, error) {
		out := stat.NewSubsystemOutput("core")
		out.AddPrimary(stat.Contribution{Dimension: "mana", Bucket: stat.BucketFlat, Value: 800, System: "core"})
		out.AddCap(stat.CapContribution{
			System: "core", Dimension: "mana", Mode: stat.CapModeBaseline,
			Kind: stat.CapKindMin, Value: 0, Priority: 100, Scope: "base",
		})
		out.AddCap(stat.CapContribution{
			System: "core", Dimension: "mana", Mode: stat.CapModeHardMax,
			Kind: stat.CapKindMax, Value: 500, Priority: 100, Scope: "base",
		})
		return out, nil
	}}
	agg, _, _ := newTestAggregator(t, core)

	snapshot, err := agg.Resolve(ctx, stat.NewActor("mage"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got, _ := snapshot.GetPrimary("mana"); got != 500.0 {
		t.Errorf("mana = %v, want 500.0 (clamped)", got)
	}
	capsUsed, ok := snapshot.GetCaps("mana")
	if !ok || capsUsed.Min != 0 || capsUsed.Max != 500 {
		t.Errorf("CapsUsed[mana] = %v, %v, want {0, 500}", capsUsed, ok)
	}
}

func TestResolve_SecondCallIsIdenticalCacheHit(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))
	actor := stat.NewActor("hero")

	first, err := agg.Resolve(ctx, actor)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := agg.Resolve(ctx, actor)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("snapshots differ:\n%s\n%s", a, b)
	}

	m := agg.Metrics()
	if m.CacheHits != 1 || m.CacheMisses != 1 || m.TotalResolutions != 2 {
		t.Errorf("Metrics = %+v, want 1 hit, 1 miss, 2 resolutions", m)
	}
}

func TestResolve_MutatedActorBypassesStaleCache(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))
	actor := stat.NewActor("hero")

	if _, err := agg.Resolve(ctx, actor); err != nil {
		t.Fatal(err)
	}
	actor.Touch()
	if _, err := agg.Resolve(ctx, actor); err != nil {
		t.Fatal(err)
	}
	if m := agg.Metrics(); m.CacheHits != 0 {
		t.Errorf("CacheHits = %d, want 0 after version bump", m.CacheHits)
	}
}

func TestResolve_SkipsFailingSubsystem(t *testing.T) {
	ctx := context.Background()
	broken := &stubSubsystem{id: "cursed", priority: 200, fn: func(_ context.Context, _ *stat.Actor) (*stat.SubsystemOutput, error) {
		return nil, errors.New("contribution failed")
	}}
	agg, _, _ := newTestAggregator(t, broken, flatContributor("core", 1, "strength", 5))

	snapshot, err := agg.Resolve(ctx, stat.NewActor("hero"))
	if err != nil {
		t.Fatalf("Resolve should survive a failing subsystem: %v", err)
	}
	if got, _ := snapshot.GetPrimary("strength"); got != 5.0 {
		t.Errorf("strength = %v, want 5.0", got)
	}
	for _, id := range snapshot.SubsystemsProcessed {
		if id == "cursed" {
			t.Error("failing subsystem must not appear in SubsystemsProcessed")
		}
	}
}

func TestResolve_OperatorModeRule(t *testing.T) {
	ctx := context.Background()
	agg, combiner, _ := newTestAggregator(t,
		flatContributor("a", 3, "speed", 10),
		flatContributor("b", 2, "speed", 30),
		flatContributor("c", 1, "speed", 20),
	)
	if err := combiner.SetRule("speed", registry.MergeRule{Operator: stat.OperatorMax}); err != nil {
		t.Fatal(err)
	}

	snapshot, err := agg.Resolve(ctx, stat.NewActor("runner"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got, _ := snapshot.GetPrimary("speed"); got != 30.0 {
		t.Errorf("speed = %v, want 30.0 (max operator)", got)
	}
}

func TestResolve_ClampFallbackChain(t *testing.T) {
	ctx := context.Background()

	// No runtime caps: the rule's clamp default applies.
	agg, combiner, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 900))
	ruleClamp := stat.NewCaps(0, 100)
	if err := combiner.SetRule("strength", registry.MergeRule{UsePipeline: true, ClampDefault: &ruleClamp}); err != nil {
		t.Fatal(err)
	}
	snapshot, err := agg.Resolve(ctx, stat.NewActor("hero"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := snapshot.GetPrimary("strength"); got != 100.0 {
		t.Errorf("strength = %v, want 100.0 (rule clamp default)", got)
	}

	// No rule at all: the configured fallback range applies.
	agg2, _, clamps := newTestAggregator(t, flatContributor("core", 1, "vitality", 900))
	clamps.SetRange("vitality", stat.NewCaps(0, 50))
	snapshot, err = agg2.Resolve(ctx, stat.NewActor("hero"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := snapshot.GetPrimary("vitality"); got != 50.0 {
		t.Errorf("vitality = %v, want 50.0 (registry fallback)", got)
	}
}

func TestResolve_DerivedStats(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubsystem{id: "core", priority: 1, fn: func(_ context.Context, _ *stat.Actor) (*stat.SubsystemOutput, error) {
		out := stat.NewSubsystemOutput("core")
		out.AddDerived(stat.Contribution{Dimension: "hp", Bucket: stat.BucketFlat, Value: 240, System: "core"})
		return out, nil
	}}
	agg, _, _ := newTestAggregator(t, sub)

	snapshot, err := agg.Resolve(ctx, stat.NewActor("hero"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := snapshot.GetDerived("hp"); got != 240.0 {
		t.Errorf("derived hp = %v, want 240.0", got)
	}
	if len(snapshot.Primary) != 0 {
		t.Errorf("Primary = %v, want empty", snapshot.Primary)
	}
}

func TestResolve_FailsOnRegistryError(t *testing.T) {
	plugins := registry.NewPluginRegistry()
	provider := caps.NewProvider(registry.NewCapLayerRegistry()) // empty layer order
	agg, err := NewAggregator(plugins, registry.NewCombinerRegistry(), nil, provider, newTestCache(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := agg.Resolve(context.Background(), stat.NewActor("hero")); !errors.Is(err, registry.ErrEmptyLayerOrder) {
		t.Errorf("Resolve = %v, want ErrEmptyLayerOrder", err)
	}
	if m := agg.Metrics(); m.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", m.ErrorCount)
	}
}

func TestResolve_NilActor(t *testing.T) {
	agg, _, _ := newTestAggregator(t)
	if _, err := agg.Resolve(context.Background(), nil); !errors.Is(err, ErrNilActor) {
		t.Errorf("Resolve(nil) = %v, want ErrNilActor", err)
	}
}

func TestResolveBatch_SkipsFailures(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))

	actors := []*stat.Actor{stat.NewActor("a"), nil, stat.NewActor("b")}
	snapshots := agg.ResolveBatch(ctx, actors)
	if len(snapshots) != 2 {
		t.Errorf("ResolveBatch returned %d snapshots, want 2", len(snapshots))
	}
}

func TestGetCachedSnapshotAndInvalidate(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))
	actor := stat.NewActor("hero")

	if _, ok := agg.GetCachedSnapshot(ctx, actor); ok {
		t.Error("GetCachedSnapshot before resolve should miss")
	}

	if _, err := agg.Resolve(ctx, actor); err != nil {
		t.Fatal(err)
	}
	if _, ok := agg.GetCachedSnapshot(ctx, actor); !ok {
		t.Error("GetCachedSnapshot after resolve should hit")
	}

	agg.InvalidateCache(ctx, actor)
	if _, ok := agg.GetCachedSnapshot(ctx, actor); ok {
		t.Error("GetCachedSnapshot after invalidation should miss")
	}
}

func TestGetCachedSnapshot_SweepsLegacyKeys(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t)
	actor := stat.NewActor("hero")

	// An entry written by an older deployment under the legacy format.
	legacy := stat.NewSnapshot(actor.ID, actor.Version)
	data, _ := json.Marshal(legacy)
	if err := agg.cache.Set(ctx, fmt.Sprintf("actor_snapshot:%s", actor.ID), data, time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, ok := agg.GetCachedSnapshot(ctx, actor); !ok {
		t.Error("GetCachedSnapshot should find legacy-format entries")
	}

	agg.InvalidateCache(ctx, actor)
	if _, ok := agg.GetCachedSnapshot(ctx, actor); ok {
		t.Error("InvalidateCache should sweep legacy-format entries")
	}
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))
	actor := stat.NewActor("hero")

	if _, err := agg.Resolve(ctx, actor); err != nil {
		t.Fatal(err)
	}
	if err := agg.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if _, ok := agg.GetCachedSnapshot(ctx, actor); ok {
		t.Error("snapshot should be gone after ClearCache")
	}
}

func TestResolve_ConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(t, flatContributor("core", 1, "strength", 5))
	actor := stat.NewActor("hero")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot, err := agg.Resolve(ctx, actor)
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			if got, _ := snapshot.GetPrimary("strength"); got != 5.0 {
				t.Errorf("strength = %v, want 5.0", got)
			}
		}()
	}
	wg.Wait()
}

func TestMetrics_ActiveSubsystems(t *testing.T) {
	agg, _, _ := newTestAggregator(t,
		flatContributor("a", 1, "x", 1),
		flatContributor("b", 2, "x", 1),
	)
	if m := agg.Metrics(); m.ActiveSubsystems != 2 {
		t.Errorf("ActiveSubsystems = %d, want 2", m.ActiveSubsystems)
	}
}
