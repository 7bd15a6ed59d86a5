package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chaos-world/actor-core/cache"
	"github.com/chaos-world/actor-core/caps"
	"github.com/chaos-world/actor-core/observe"
	"github.com/chaos-world/actor-core/registry"
	"github.com/chaos-world/actor-core/stat"
)

// SnapshotTTL is how long a resolved snapshot stays cached.
const SnapshotTTL = 3600 * time.Second

// Sentinel errors for aggregation.
var (
	ErrNilActor      = errors.New("aggregate: actor is nil")
	ErrNilDependency = errors.New("aggregate: missing dependency")
)

// Aggregator resolves actors into snapshots. It is the single public
// entry point of the stat resolution core.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent resolves of the
//   same actor version are coalesced into one computation.
// - Errors: a failing subsystem is logged and skipped; cache write
//   failures are logged, never propagated. Only an unrecoverable
//   registry error fails a resolution.
type Aggregator struct {
	subsystems *registry.PluginRegistry
	combiner   *registry.CombinerRegistry
	clamps     *registry.ClampRegistry
	caps       *caps.Provider
	cache      cache.Cache
	log        observe.Logger
	telemetry  observe.Metrics

	group singleflight.Group

	mu      sync.Mutex
	metrics Metrics
}

// NewAggregator wires the aggregator from its collaborators. The clamp
// registry, logger and telemetry may be nil; the rest are required.
func NewAggregator(
	subsystems *registry.PluginRegistry,
	combiner *registry.CombinerRegistry,
	clamps *registry.ClampRegistry,
	capsProvider *caps.Provider,
	snapshotCache cache.Cache,
	logger observe.Logger,
	telemetry observe.Metrics,
) (*Aggregator, error) {
	if subsystems == nil || combiner == nil || capsProvider == nil || snapshotCache == nil {
		return nil, ErrNilDependency
	}
	if clamps == nil {
		clamps = registry.NewClampRegistry()
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	if telemetry == nil {
		telemetry = observe.NopMetrics()
	}
	return &Aggregator{
		subsystems: subsystems,
		combiner:   combiner,
		clamps:     clamps,
		caps:       capsProvider,
		cache:      snapshotCache,
		log:        logger,
		telemetry:  telemetry,
	}, nil
}

// Resolve computes the actor's snapshot, serving from cache when the
// actor's current version is already resolved.
func (a *Aggregator) Resolve(ctx context.Context, actor *stat.Actor) (*stat.Snapshot, error) {
	if actor == nil {
		return nil, ErrNilActor
	}

	key := cache.SnapshotKey(actor.ID.String(), actor.Version)
	result, err, _ := a.group.Do(key, func() (any, error) {
		return a.resolve(ctx, actor, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*stat.Snapshot), nil
}

// ResolveWithContext resolves with caller-supplied context data. The data
// is reserved for subsystems that read it through the actor; resolution
// semantics are unchanged.
func (a *Aggregator) ResolveWithContext(ctx context.Context, actor *stat.Actor, _ map[string]any) (*stat.Snapshot, error) {
	return a.Resolve(ctx, actor)
}

// ResolveBatch resolves each actor independently. An actor that fails is
// logged and skipped; the batch never aborts.
func (a *Aggregator) ResolveBatch(ctx context.Context, actors []*stat.Actor) []*stat.Snapshot {
	snapshots := make([]*stat.Snapshot, 0, len(actors))
	for _, actor := range actors {
		snapshot, err := a.Resolve(ctx, actor)
		if err != nil {
			id := "nil"
			if actor != nil {
				id = actor.ID.String()
			}
			a.log.Error(ctx, "batch resolution failed for actor",
				observe.Field{Key: "actor_id", Value: id},
				observe.Field{Key: "error", Value: err.Error()})
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func (a *Aggregator) resolve(ctx context.Context, actor *stat.Actor, key string) (*stat.Snapshot, error) {
	start := time.Now()

	if cached, ok := a.cache.Get(ctx, key); ok {
		var snapshot stat.Snapshot
		if err := json.Unmarshal(cached, &snapshot); err == nil {
			a.recordHit()
			a.telemetry.RecordCacheHit(ctx)
			a.telemetry.RecordResolution(ctx, actor.ID.String(), time.Since(start), nil)
			return &snapshot, nil
		}
		// An entry that no longer deserializes is treated as a miss.
		a.log.Warn(ctx, "discarding undecodable cached snapshot", observe.Field{Key: "key", Value: key})
	}
	a.recordMiss()
	a.telemetry.RecordCacheMiss(ctx)

	outputs := make([]*stat.SubsystemOutput, 0, a.subsystems.Count())
	processed := make([]string, 0, a.subsystems.Count())
	for _, subsystem := range a.subsystems.GetByPriority() {
		output, err := subsystem.Contribute(ctx, actor)
		if err != nil {
			a.log.Warn(ctx, "subsystem failed to contribute",
				observe.Field{Key: "system_id", Value: subsystem.SystemID()},
				observe.Field{Key: "actor_id", Value: actor.ID.String()},
				observe.Field{Key: "error", Value: err.Error()})
			continue
		}
		outputs = append(outputs, output)
		processed = append(processed, subsystem.SystemID())
	}

	effectiveCaps, err := a.caps.EffectiveCapsAcrossLayers(outputs)
	if err != nil {
		a.recordError()
		a.telemetry.RecordResolution(ctx, actor.ID.String(), time.Since(start), err)
		return nil, err
	}

	snapshot := stat.NewSnapshot(actor.ID, actor.Version)
	snapshot.Primary = a.aggregate(outputs, primaryContributions, effectiveCaps)
	snapshot.Derived = a.aggregate(outputs, derivedContributions, effectiveCaps)
	snapshot.CapsUsed = effectiveCaps
	snapshot.SubsystemsProcessed = processed
	snapshot.ProcessingTime = uint64(time.Since(start).Microseconds())

	if data, err := json.Marshal(snapshot); err != nil {
		a.log.Warn(ctx, "snapshot serialization failed",
			observe.Field{Key: "actor_id", Value: actor.ID.String()},
			observe.Field{Key: "error", Value: err.Error()})
	} else if err := a.cache.Set(ctx, key, data, SnapshotTTL); err != nil {
		a.log.Warn(ctx, "snapshot cache write failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
	}

	elapsed := time.Since(start)
	a.recordResolution(elapsed)
	a.telemetry.RecordResolution(ctx, actor.ID.String(), elapsed, nil)
	a.log.Debug(ctx, "resolved actor",
		observe.Field{Key: "actor_id", Value: actor.ID.String()},
		observe.Field{Key: "subsystems", Value: len(processed)},
		observe.Field{Key: "elapsed_us", Value: elapsed.Microseconds()})
	return snapshot, nil
}

func primaryContributions(o *stat.SubsystemOutput) []stat.Contribution { return o.Primary }
func derivedContributions(o *stat.SubsystemOutput) []stat.Contribution { return o.Derived }

// aggregate combines one contribution category across all outputs into a
// per-dimension value map. Dimensions with zero contributions are absent
// from the result.
func (a *Aggregator) aggregate(
	outputs []*stat.SubsystemOutput,
	pick func(*stat.SubsystemOutput) []stat.Contribution,
	effectiveCaps map[string]stat.Caps,
) map[string]float64 {
	byDimension := make(map[string][]stat.Contribution)
	for _, output := range outputs {
		if output == nil {
			continue
		}
		for _, c := range pick(output) {
			byDimension[c.Dimension] = append(byDimension[c.Dimension], c)
		}
	}

	result := make(map[string]float64, len(byDimension))
	for dimension, contribs := range byDimension {
		rule, hasRule := a.combiner.GetRule(dimension)
		clamp := a.clampFor(dimension, effectiveCaps, rule, hasRule)

		if !hasRule || rule.UsePipeline {
			result[dimension] = processPipeline(contribs, 0.0, clamp)
		} else {
			result[dimension] = reduceOperator(rule.Operator, contribs, clamp)
		}
	}
	return result
}

// clampFor resolves the clamp bounds for a dimension: effective runtime
// caps first, then the merge rule's default, then the configured fallback
// range. No source means no clamping.
func (a *Aggregator) clampFor(dimension string, effectiveCaps map[string]stat.Caps, rule registry.MergeRule, hasRule bool) *stat.Caps {
	if c, ok := effectiveCaps[dimension]; ok {
		return &c
	}
	if hasRule && rule.ClampDefault != nil {
		return rule.ClampDefault
	}
	if c, ok := a.clamps.GetRange(dimension); ok {
		return &c
	}
	return nil
}

// GetCachedSnapshot returns the actor's cached snapshot without resolving.
// It sweeps the canonical key first, then the historical key formats.
func (a *Aggregator) GetCachedSnapshot(ctx context.Context, actor *stat.Actor) (*stat.Snapshot, bool) {
	if actor == nil {
		return nil, false
	}
	keys := append(
		[]string{cache.SnapshotKey(actor.ID.String(), actor.Version)},
		cache.LegacySnapshotKeys(actor.ID.String(), actor.Version)...,
	)
	for _, key := range keys {
		data, ok := a.cache.Get(ctx, key)
		if !ok {
			continue
		}
		var snapshot stat.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			continue
		}
		return &snapshot, true
	}
	return nil, false
}

// InvalidateCache removes the actor's snapshot under every key format the
// system has ever written, so no stale entry can survive.
func (a *Aggregator) InvalidateCache(ctx context.Context, actor *stat.Actor) {
	if actor == nil {
		return
	}
	keys := append(
		[]string{cache.SnapshotKey(actor.ID.String(), actor.Version)},
		cache.LegacySnapshotKeys(actor.ID.String(), actor.Version)...,
	)
	for _, key := range keys {
		if err := a.cache.Delete(ctx, key); err != nil {
			a.log.Warn(ctx, "cache invalidation failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()})
		}
	}
}

// ClearCache empties every cache tier.
func (a *Aggregator) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}

// Metrics returns a copy of the aggregator's rolling counters.
func (a *Aggregator) Metrics() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.metrics
	m.ActiveSubsystems = a.subsystems.Count()
	return m
}

func (a *Aggregator) recordHit() {
	a.mu.Lock()
	a.metrics.CacheHits++
	a.metrics.TotalResolutions++
	a.mu.Unlock()
}

func (a *Aggregator) recordMiss() {
	a.mu.Lock()
	a.metrics.CacheMisses++
	a.mu.Unlock()
}

func (a *Aggregator) recordError() {
	a.mu.Lock()
	a.metrics.ErrorCount++
	a.mu.Unlock()
}

func (a *Aggregator) recordResolution(elapsed time.Duration) {
	a.mu.Lock()
	a.metrics.TotalResolutions++
	n := time.Duration(a.metrics.TotalResolutions)
	a.metrics.AvgResolutionTime += (elapsed - a.metrics.AvgResolutionTime) / n
	if elapsed > a.metrics.MaxResolutionTime {
		a.metrics.MaxResolutionTime = elapsed
	}
	a.mu.Unlock()
}
