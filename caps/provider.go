package caps

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chaos-world/actor-core/registry"
	"github.com/chaos-world/actor-core/stat"
)

// ErrInvalidCaps is returned by ValidateCaps for ranges with min > max.
var ErrInvalidCaps = errors.New("caps: invalid range")

// Statistics accumulates cap calculation counters. Values are approximate
// under concurrency; they reset only via Reset.
type Statistics struct {
	TotalCalculations  uint64        `json:"total_calculations"`
	DimensionsWithCaps int           `json:"dimensions_with_caps"`
	AvgCalculationTime time.Duration `json:"avg_calculation_time"`
	MaxCalculationTime time.Duration `json:"max_calculation_time"`
}

// Provider computes effective caps from subsystem outputs.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Determinism: equal-priority contributions within a layer are ordered
//   by system id ascending, then value ascending, so results never depend
//   on map iteration order.
type Provider struct {
	layers *registry.CapLayerRegistry

	mu    sync.Mutex
	stats Statistics
}

// NewProvider creates a caps provider over the given layer registry.
func NewProvider(layers *registry.CapLayerRegistry) *Provider {
	return &Provider{layers: layers}
}

// EffectiveCapsWithinLayer resolves one layer's caps per dimension from
// the cap contributions scoped to that layer.
//
// Contributions are applied in descending priority order starting from an
// unbounded range. Dimensions left unbounded on both sides are omitted.
func (p *Provider) EffectiveCapsWithinLayer(outputs []*stat.SubsystemOutput, layer string) map[string]stat.Caps {
	byDimension := make(map[string][]stat.CapContribution)
	for _, output := range outputs {
		if output == nil {
			continue
		}
		for _, cc := range output.Caps {
			if cc.Scope != layer {
				continue
			}
			byDimension[cc.Dimension] = append(byDimension[cc.Dimension], cc)
		}
	}

	effective := make(map[string]stat.Caps, len(byDimension))
	for dimension, contribs := range byDimension {
		sortCapContributions(contribs)

		min, max := math.Inf(-1), math.Inf(1)
		for _, c := range contribs {
			switch c.Mode {
			case stat.CapModeBaseline, stat.CapModeOverride:
				if c.Kind == stat.CapKindMin {
					min = c.Value
				} else if c.Kind == stat.CapKindMax {
					max = c.Value
				}
			case stat.CapModeAdditive:
				if c.Kind == stat.CapKindMin {
					min += c.Value
				} else if c.Kind == stat.CapKindMax {
					max += c.Value
				}
			case stat.CapModeHardMax:
				if c.Kind == stat.CapKindMax {
					max = math.Min(max, c.Value)
				}
			case stat.CapModeHardMin:
				if c.Kind == stat.CapKindMin {
					min = math.Max(min, c.Value)
				}
			}
		}

		if !math.IsInf(min, -1) || !math.IsInf(max, 1) {
			effective[dimension] = stat.NewCaps(min, max)
		}
	}
	return effective
}

// sortCapContributions orders by priority descending; ties fall back to
// system id ascending, then value ascending, for deterministic results.
func sortCapContributions(contribs []stat.CapContribution) {
	sort.SliceStable(contribs, func(i, j int) bool {
		a, b := contribs[i], contribs[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Value < b.Value
	})
}

// EffectiveCapsAcrossLayers walks the configured layer order, resolving
// each layer and combining per-dimension results under the registry's
// across-layer policy. An invalid layer registry is an unrecoverable
// registry error.
func (p *Provider) EffectiveCapsAcrossLayers(outputs []*stat.SubsystemOutput) (map[string]stat.Caps, error) {
	started := time.Now()

	if err := p.layers.Validate(); err != nil {
		return nil, fmt.Errorf("caps: layer registry: %w", err)
	}

	policy := p.layers.AcrossLayerPolicy()
	accumulated := make(map[string]stat.Caps)

	for _, layer := range p.layers.LayerOrder() {
		layerCaps := p.EffectiveCapsWithinLayer(outputs, layer)
		for dimension, c := range layerCaps {
			existing, seen := accumulated[dimension]
			if !seen {
				accumulated[dimension] = c
				continue
			}
			switch policy {
			case stat.PolicyIntersect:
				accumulated[dimension] = existing.Intersection(c)
			case stat.PolicyUnion:
				accumulated[dimension] = existing.Union(c)
			case stat.PolicyPrioritizedOverride:
				accumulated[dimension] = c
			}
		}
	}

	p.recordCalculation(time.Since(started), len(accumulated))
	return accumulated, nil
}

// LayerOrder returns the configured layer order.
func (p *Provider) LayerOrder() []string {
	return p.layers.LayerOrder()
}

// AcrossLayerPolicy returns the configured cross-layer policy.
func (p *Provider) AcrossLayerPolicy() stat.AcrossLayerPolicy {
	return p.layers.AcrossLayerPolicy()
}

// ValidateCaps rejects a resolved range whose min exceeds its max.
func (p *Provider) ValidateCaps(dimension string, c stat.Caps) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: dimension %q: %v", ErrInvalidCaps, dimension, c)
	}
	return nil
}

// Statistics returns a copy of the accumulated cap calculation counters.
func (p *Provider) Statistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset clears the accumulated counters.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Statistics{}
}

func (p *Provider) recordCalculation(elapsed time.Duration, dimensions int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TotalCalculations++
	p.stats.DimensionsWithCaps = dimensions
	if elapsed > p.stats.MaxCalculationTime {
		p.stats.MaxCalculationTime = elapsed
	}
	n := time.Duration(p.stats.TotalCalculations)
	p.stats.AvgCalculationTime += (elapsed - p.stats.AvgCalculationTime) / n
}
