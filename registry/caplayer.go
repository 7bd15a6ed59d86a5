package registry

import (
	"fmt"
	"sync"

	"github.com/chaos-world/actor-core/stat"
)

// CapLayerRegistry holds the ordered list of cap layers and the policy
// used to combine effective caps across them.
type CapLayerRegistry struct {
	mu     sync.RWMutex
	order  []string
	policy stat.AcrossLayerPolicy
}

// NewCapLayerRegistry creates a registry with the given layer order and
// an Intersect policy.
func NewCapLayerRegistry(order ...string) *CapLayerRegistry {
	r := &CapLayerRegistry{policy: stat.PolicyIntersect}
	r.order = append(r.order, order...)
	return r
}

// LayerOrder returns a copy of the configured layer order.
func (r *CapLayerRegistry) LayerOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SetLayerOrder replaces the layer order. Duplicate or empty layer names
// are rejected.
func (r *CapLayerRegistry) SetLayerOrder(order []string) error {
	if len(order) == 0 {
		return ErrEmptyLayerOrder
	}
	seen := make(map[string]struct{}, len(order))
	for _, layer := range order {
		if layer == "" {
			return fmt.Errorf("registry: layer name is empty")
		}
		if _, dup := seen[layer]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, layer)
		}
		seen[layer] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = make([]string, len(order))
	copy(r.order, order)
	return nil
}

// AcrossLayerPolicy returns the configured cross-layer combination policy.
func (r *CapLayerRegistry) AcrossLayerPolicy() stat.AcrossLayerPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// SetAcrossLayerPolicy replaces the cross-layer combination policy.
func (r *CapLayerRegistry) SetAcrossLayerPolicy(policy stat.AcrossLayerPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = policy
}

// Validate checks the registry configuration.
func (r *CapLayerRegistry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return ErrEmptyLayerOrder
	}
	seen := make(map[string]struct{}, len(r.order))
	for _, layer := range r.order {
		if _, dup := seen[layer]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, layer)
		}
		seen[layer] = struct{}{}
	}
	return nil
}
