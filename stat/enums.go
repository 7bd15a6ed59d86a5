package stat

import "fmt"

// Bucket classifies how a contribution combines with the running total
// during pipeline aggregation. Buckets are processed in a fixed order:
// Flat, Mult, PostAdd, Override.
type Bucket int

const (
	// BucketFlat adds the contribution value to the running total.
	BucketFlat Bucket = iota
	// BucketMult multiplies the running total by the contribution value.
	BucketMult
	// BucketPostAdd adds after all multiplicative contributions.
	BucketPostAdd
	// BucketOverride replaces the running total outright; the last
	// override in deterministic order wins.
	BucketOverride
)

// BucketOrder returns the buckets in processing order.
func BucketOrder() []Bucket {
	return []Bucket{BucketFlat, BucketMult, BucketPostAdd, BucketOverride}
}

func (b Bucket) String() string {
	switch b {
	case BucketFlat:
		return "flat"
	case BucketMult:
		return "mult"
	case BucketPostAdd:
		return "post_add"
	case BucketOverride:
		return "override"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// ParseBucket parses a bucket name as used in configuration files.
func ParseBucket(s string) (Bucket, error) {
	switch s {
	case "flat":
		return BucketFlat, nil
	case "mult":
		return BucketMult, nil
	case "post_add":
		return BucketPostAdd, nil
	case "override":
		return BucketOverride, nil
	default:
		return 0, fmt.Errorf("stat: unknown bucket %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// CapMode classifies how a cap contribution is applied within a layer.
type CapMode int

const (
	// CapModeBaseline sets the bound outright.
	CapModeBaseline CapMode = iota
	// CapModeAdditive adds to the running bound.
	CapModeAdditive
	// CapModeHardMax tightens the max bound to the smaller value.
	CapModeHardMax
	// CapModeHardMin tightens the min bound to the larger value.
	CapModeHardMin
	// CapModeOverride sets the bound outright, same as Baseline.
	CapModeOverride
)

func (m CapMode) String() string {
	switch m {
	case CapModeBaseline:
		return "baseline"
	case CapModeAdditive:
		return "additive"
	case CapModeHardMax:
		return "hard_max"
	case CapModeHardMin:
		return "hard_min"
	case CapModeOverride:
		return "override"
	default:
		return fmt.Sprintf("cap_mode(%d)", int(m))
	}
}

// ParseCapMode parses a cap mode name as used in configuration files.
func ParseCapMode(s string) (CapMode, error) {
	switch s {
	case "baseline":
		return CapModeBaseline, nil
	case "additive":
		return CapModeAdditive, nil
	case "hard_max":
		return CapModeHardMax, nil
	case "hard_min":
		return CapModeHardMin, nil
	case "override":
		return CapModeOverride, nil
	default:
		return 0, fmt.Errorf("stat: unknown cap mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m CapMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CapMode) UnmarshalText(text []byte) error {
	parsed, err := ParseCapMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Operator is the reducer used in operator-mode aggregation.
type Operator int

const (
	// OperatorSum is the arithmetic sum of all values.
	OperatorSum Operator = iota
	// OperatorMax folds to the maximum value.
	OperatorMax
	// OperatorMin folds to the minimum value.
	OperatorMin
	// OperatorAverage is sum divided by count.
	OperatorAverage
	// OperatorMultiply is the product of all values.
	OperatorMultiply
	// OperatorIntersect takes the most restrictive (minimum) value.
	OperatorIntersect
)

func (o Operator) String() string {
	switch o {
	case OperatorSum:
		return "sum"
	case OperatorMax:
		return "max"
	case OperatorMin:
		return "min"
	case OperatorAverage:
		return "average"
	case OperatorMultiply:
		return "multiply"
	case OperatorIntersect:
		return "intersect"
	default:
		return fmt.Sprintf("operator(%d)", int(o))
	}
}

// ParseOperator parses an operator name as used in configuration files.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "sum":
		return OperatorSum, nil
	case "max":
		return OperatorMax, nil
	case "min":
		return OperatorMin, nil
	case "average":
		return OperatorAverage, nil
	case "multiply":
		return OperatorMultiply, nil
	case "intersect":
		return OperatorIntersect, nil
	default:
		return 0, fmt.Errorf("stat: unknown operator %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	parsed, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// AcrossLayerPolicy decides how effective caps from successive layers are
// combined into one range per dimension.
type AcrossLayerPolicy int

const (
	// PolicyIntersect narrows to the overlap of both ranges.
	PolicyIntersect AcrossLayerPolicy = iota
	// PolicyUnion widens to cover both ranges.
	PolicyUnion
	// PolicyPrioritizedOverride lets the later layer replace the earlier.
	PolicyPrioritizedOverride
)

func (p AcrossLayerPolicy) String() string {
	switch p {
	case PolicyIntersect:
		return "intersect"
	case PolicyUnion:
		return "union"
	case PolicyPrioritizedOverride:
		return "prioritized_override"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseAcrossLayerPolicy parses a policy name as used in configuration files.
func ParseAcrossLayerPolicy(s string) (AcrossLayerPolicy, error) {
	switch s {
	case "intersect":
		return PolicyIntersect, nil
	case "union":
		return PolicyUnion, nil
	case "prioritized_override":
		return PolicyPrioritizedOverride, nil
	default:
		return 0, fmt.Errorf("stat: unknown across-layer policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p AcrossLayerPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *AcrossLayerPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseAcrossLayerPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
