package stat

import (
	"github.com/google/uuid"
)

// Actor identifies the entity whose stats are being resolved.
//
// The resolution core reads only ID and Version; Data is an open key/value
// bag owned by the caller and consumed by subsystem formulas. Version must
// be bumped on every mutation so cached snapshots go stale.
type Actor struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name,omitempty"`
	Version int64          `json:"version"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewActor creates an actor with a fresh ID at version 1.
func NewActor(name string) *Actor {
	return &Actor{
		ID:      uuid.New(),
		Name:    name,
		Version: 1,
		Data:    make(map[string]any),
	}
}

// Touch bumps the version counter. Callers must invoke it after any
// mutation that should invalidate cached snapshots.
func (a *Actor) Touch() {
	a.Version++
}

// Get reads a value from the actor's data bag.
func (a *Actor) Get(key string) (any, bool) {
	v, ok := a.Data[key]
	return v, ok
}

// Set writes a value to the actor's data bag and bumps the version.
func (a *Actor) Set(key string, value any) {
	if a.Data == nil {
		a.Data = make(map[string]any)
	}
	a.Data[key] = value
	a.Touch()
}
