package stat

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the complete resolved stat state of one actor at one point
// in time. Snapshots are created fresh per resolution and cached by their
// serialized form.
type Snapshot struct {
	ActorID             uuid.UUID          `json:"actor_id"`
	Primary             map[string]float64 `json:"primary"`
	Derived             map[string]float64 `json:"derived"`
	CapsUsed            map[string]Caps    `json:"caps_used"`
	Version             int64              `json:"version"`
	CreatedAt           time.Time          `json:"created_at"`
	SubsystemsProcessed []string           `json:"subsystems_processed"`
	// ProcessingTime is the resolution wall time in microseconds.
	ProcessingTime uint64         `json:"processing_time"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewSnapshot creates an empty snapshot for the given actor and version.
func NewSnapshot(actorID uuid.UUID, version int64) *Snapshot {
	return &Snapshot{
		ActorID:   actorID,
		Primary:   make(map[string]float64),
		Derived:   make(map[string]float64),
		CapsUsed:  make(map[string]Caps),
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
}

// GetPrimary returns a primary stat value.
func (s *Snapshot) GetPrimary(dimension string) (float64, bool) {
	v, ok := s.Primary[dimension]
	return v, ok
}

// GetDerived returns a derived stat value.
func (s *Snapshot) GetDerived(dimension string) (float64, bool) {
	v, ok := s.Derived[dimension]
	return v, ok
}

// GetCaps returns the effective caps applied to a dimension.
func (s *Snapshot) GetCaps(dimension string) (Caps, bool) {
	c, ok := s.CapsUsed[dimension]
	return c, ok
}
