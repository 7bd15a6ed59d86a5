package stat

import (
	"fmt"
	"math"
	"time"
)

// Cap kinds. A cap contribution constrains either the lower or the upper
// bound of a dimension's range.
const (
	CapKindMin = "min"
	CapKindMax = "max"
)

// Contribution is one subsystem's input to one stat dimension for one
// resolution pass. Contributions are immutable once produced.
type Contribution struct {
	Dimension string            `json:"dimension"`
	Bucket    Bucket            `json:"bucket"`
	Value     float64           `json:"value"`
	System    string            `json:"system"`
	Priority  int64             `json:"priority,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// NewContribution creates a contribution with default priority.
func NewContribution(dimension string, bucket Bucket, value float64, system string) Contribution {
	return Contribution{
		Dimension: dimension,
		Bucket:    bucket,
		Value:     value,
		System:    system,
	}
}

// Validate checks the contribution for structural problems.
func (c Contribution) Validate() error {
	if c.Dimension == "" {
		return ErrEmptyDimension
	}
	if c.System == "" {
		return ErrEmptySystem
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("%w: dimension %q", ErrNonFiniteValue, c.Dimension)
	}
	return nil
}

// CapContribution is one subsystem's input to the clamp range of one
// dimension. Scope names the cap layer the contribution belongs to.
type CapContribution struct {
	System    string            `json:"system"`
	Dimension string            `json:"dimension"`
	Mode      CapMode           `json:"mode"`
	Kind      string            `json:"kind"`
	Value     float64           `json:"value"`
	Priority  int64             `json:"priority,omitempty"`
	Scope     string            `json:"scope,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// NewCapContribution creates a cap contribution with default priority.
func NewCapContribution(system, dimension string, mode CapMode, kind string, value float64) CapContribution {
	return CapContribution{
		System:    system,
		Dimension: dimension,
		Mode:      mode,
		Kind:      kind,
		Value:     value,
	}
}

// Validate checks the cap contribution for structural problems.
func (c CapContribution) Validate() error {
	if c.Dimension == "" {
		return ErrEmptyDimension
	}
	if c.System == "" {
		return ErrEmptySystem
	}
	if c.Kind == "" {
		return ErrEmptyKind
	}
	if c.Kind != CapKindMin && c.Kind != CapKindMax {
		return fmt.Errorf("%w: got %q", ErrInvalidKind, c.Kind)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("%w: dimension %q", ErrNonFiniteValue, c.Dimension)
	}
	return nil
}

// SubsystemMeta describes the subsystem that produced an output.
type SubsystemMeta struct {
	SystemID  string    `json:"system_id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// SubsystemOutput is one subsystem's full contribution set for one
// resolution pass: ordered primary and derived stat contributions plus
// cap contributions.
type SubsystemOutput struct {
	Primary []Contribution    `json:"primary"`
	Derived []Contribution    `json:"derived"`
	Caps    []CapContribution `json:"caps"`
	Meta    SubsystemMeta     `json:"meta"`
}

// NewSubsystemOutput creates an empty output for the given system.
func NewSubsystemOutput(systemID string) *SubsystemOutput {
	return &SubsystemOutput{
		Meta: SubsystemMeta{
			SystemID:  systemID,
			Version:   1,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// AddPrimary appends a primary stat contribution.
func (o *SubsystemOutput) AddPrimary(c Contribution) {
	o.Primary = append(o.Primary, c)
}

// AddDerived appends a derived stat contribution.
func (o *SubsystemOutput) AddDerived(c Contribution) {
	o.Derived = append(o.Derived, c)
}

// AddCap appends a cap contribution.
func (o *SubsystemOutput) AddCap(c CapContribution) {
	o.Caps = append(o.Caps, c)
}

// Validate checks every contribution carried by the output.
func (o *SubsystemOutput) Validate() error {
	for _, c := range o.Primary {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, c := range o.Derived {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, c := range o.Caps {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
