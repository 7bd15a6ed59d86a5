package registry

import (
	"fmt"
	"sync"

	"github.com/chaos-world/actor-core/stat"
)

// ClampRegistry holds fallback clamp ranges per dimension. Ranges come
// from runtime configuration; the registry itself carries no built-in
// table. The aggregation pipeline consults it only when neither runtime
// caps nor a merge rule's clamp default constrain a dimension.
type ClampRegistry struct {
	mu     sync.RWMutex
	ranges map[string]stat.Caps
}

// NewClampRegistry creates an empty clamp registry.
func NewClampRegistry() *ClampRegistry {
	return &ClampRegistry{ranges: make(map[string]stat.Caps)}
}

// SetRange configures the fallback clamp range for a dimension.
func (r *ClampRegistry) SetRange(dimension string, caps stat.Caps) error {
	if dimension == "" {
		return ErrEmptyDimension
	}
	if !caps.IsValid() {
		return fmt.Errorf("%w: dimension %q", ErrInvalidClampRange, dimension)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges[dimension] = caps
	return nil
}

// GetRange returns the fallback clamp range for a dimension, if configured.
func (r *ClampRegistry) GetRange(dimension string) (stat.Caps, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.ranges[dimension]
	return caps, ok
}

// Len returns the number of configured ranges.
func (r *ClampRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ranges)
}
