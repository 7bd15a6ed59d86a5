package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chaos-world/actor-core/stat"
)

// Subsystem is a game system that contributes to actor stats.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Contribute should honor cancellation/deadlines.
// - Errors: a failing subsystem is skipped by the resolver; it never
//   aborts a resolution.
type Subsystem interface {
	// SystemID returns the unique identifier for this subsystem.
	SystemID() string

	// Priority orders subsystems during resolution (higher runs first).
	Priority() int64

	// Contribute produces this subsystem's output for one resolution pass.
	Contribute(ctx context.Context, actor *stat.Actor) (*stat.SubsystemOutput, error)
}

// PluginRegistry manages subsystem registration and priority-ordered
// retrieval. The zero value is not usable; call NewPluginRegistry.
type PluginRegistry struct {
	mu         sync.RWMutex
	subsystems map[string]Subsystem
	order      []string // registration order, used as a stable tie-break
}

// NewPluginRegistry creates an empty subsystem registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		subsystems: make(map[string]Subsystem),
	}
}

// Register adds a subsystem. Registering a duplicate system id is an error.
func (r *PluginRegistry) Register(s Subsystem) error {
	if s == nil {
		return ErrNilSubsystem
	}
	id := s.SystemID()
	if id == "" {
		return ErrEmptySystemID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subsystems[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSystemID, id)
	}
	r.subsystems[id] = s
	r.order = append(r.order, id)
	return nil
}

// Unregister removes a subsystem by id.
func (r *PluginRegistry) Unregister(systemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subsystems[systemID]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownSystemID, systemID)
	}
	delete(r.subsystems, systemID)
	for i, id := range r.order {
		if id == systemID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetByID returns a subsystem by id.
func (r *PluginRegistry) GetByID(systemID string) (Subsystem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subsystems[systemID]
	return s, ok
}

// GetByPriority returns all subsystems ordered by descending priority.
// Equal priorities keep registration order.
func (r *PluginRegistry) GetByPriority() []Subsystem {
	r.mu.RLock()
	out := make([]Subsystem, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subsystems[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// IsRegistered reports whether a system id is registered.
func (r *PluginRegistry) IsRegistered(systemID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subsystems[systemID]
	return ok
}

// Count returns the number of registered subsystems.
func (r *PluginRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subsystems)
}
