package registry

import (
	"fmt"
	"sync"

	"github.com/chaos-world/actor-core/stat"
)

// MergeRule defines how contributions to one dimension are combined.
// When UsePipeline is set, contributions flow through ordered bucket
// processing; otherwise Operator reduces all values directly.
type MergeRule struct {
	UsePipeline  bool
	Operator     stat.Operator
	ClampDefault *stat.Caps
}

// CombinerRegistry maps stat dimensions to merge rules.
type CombinerRegistry struct {
	mu    sync.RWMutex
	rules map[string]MergeRule
}

// NewCombinerRegistry creates an empty combiner registry.
func NewCombinerRegistry() *CombinerRegistry {
	return &CombinerRegistry{rules: make(map[string]MergeRule)}
}

// GetRule returns the merge rule for a dimension, if one is configured.
func (r *CombinerRegistry) GetRule(dimension string) (MergeRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[dimension]
	return rule, ok
}

// SetRule configures the merge rule for a dimension.
func (r *CombinerRegistry) SetRule(dimension string, rule MergeRule) error {
	if dimension == "" {
		return ErrEmptyDimension
	}
	if rule.ClampDefault != nil && !rule.ClampDefault.IsValid() {
		return fmt.Errorf("%w: dimension %q", ErrInvalidClampRange, dimension)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[dimension] = rule
	return nil
}

// Dimensions returns all dimensions with configured rules.
func (r *CombinerRegistry) Dimensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for d := range r.rules {
		out = append(out, d)
	}
	return out
}

// Validate checks all configured rules.
func (r *CombinerRegistry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for dimension, rule := range r.rules {
		if dimension == "" {
			return ErrEmptyDimension
		}
		if rule.ClampDefault != nil && !rule.ClampDefault.IsValid() {
			return fmt.Errorf("%w: dimension %q", ErrInvalidClampRange, dimension)
		}
	}
	return nil
}
