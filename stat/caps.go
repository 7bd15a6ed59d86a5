package stat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Caps is a resolved min/max clamp range for one dimension.
//
// A Caps value with Min > Max is invalid; callers that validate a range
// must reject it rather than silently clamping. Either bound may be
// infinite when a layer only constrained one side.
type Caps struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewCaps creates a caps range.
func NewCaps(min, max float64) Caps {
	return Caps{Min: min, Max: max}
}

// UnboundedCaps returns the range covering every value.
func UnboundedCaps() Caps {
	return Caps{Min: math.Inf(-1), Max: math.Inf(1)}
}

// IsValid reports whether the range is well formed (Min <= Max).
func (c Caps) IsValid() bool {
	return c.Min <= c.Max && !math.IsNaN(c.Min) && !math.IsNaN(c.Max)
}

// IsEmpty reports whether the range contains no values.
func (c Caps) IsEmpty() bool {
	return c.Min > c.Max
}

// Clamp constrains value to the range.
func (c Caps) Clamp(value float64) float64 {
	return math.Min(math.Max(value, c.Min), c.Max)
}

// Contains reports whether value lies within the range, inclusive.
func (c Caps) Contains(value float64) bool {
	return value >= c.Min && value <= c.Max
}

// Intersection narrows to the overlap of both ranges.
func (c Caps) Intersection(other Caps) Caps {
	return Caps{
		Min: math.Max(c.Min, other.Min),
		Max: math.Min(c.Max, other.Max),
	}
}

// Union widens to cover both ranges.
func (c Caps) Union(other Caps) Caps {
	return Caps{
		Min: math.Min(c.Min, other.Min),
		Max: math.Max(c.Max, other.Max),
	}
}

// Range returns the width of the range.
func (c Caps) Range() float64 {
	return c.Max - c.Min
}

// Center returns the midpoint of the range.
func (c Caps) Center() float64 {
	return (c.Min + c.Max) / 2
}

// Expand widens both bounds by amount.
func (c Caps) Expand(amount float64) Caps {
	return Caps{Min: c.Min - amount, Max: c.Max + amount}
}

// Shrink tightens both bounds by amount, collapsing to the center point
// if the bounds would cross.
func (c Caps) Shrink(amount float64) Caps {
	out := Caps{Min: c.Min + amount, Max: c.Max - amount}
	if out.Min > out.Max {
		center := c.Center()
		out.Min, out.Max = center, center
	}
	return out
}

func (c Caps) String() string {
	return fmt.Sprintf("[%g, %g]", c.Min, c.Max)
}

// Infinite bounds are legal in effective caps but have no JSON number
// representation, so they are encoded as quoted sentinels.
const (
	jsonNegInf = `"-inf"`
	jsonPosInf = `"+inf"`
)

// MarshalJSON implements json.Marshaler, encoding infinite bounds as
// "-inf" / "+inf" strings so snapshots with one-sided caps stay cacheable.
func (c Caps) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"min":`)
	writeBound(&buf, c.Min)
	buf.WriteString(`,"max":`)
	writeBound(&buf, c.Max)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeBound(buf *bytes.Buffer, v float64) {
	switch {
	case math.IsInf(v, -1):
		buf.WriteString(jsonNegInf)
	case math.IsInf(v, 1):
		buf.WriteString(jsonPosInf)
	default:
		b, _ := json.Marshal(v)
		buf.Write(b)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Caps) UnmarshalJSON(data []byte) error {
	var raw struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	min, err := readBound(raw.Min, math.Inf(-1))
	if err != nil {
		return err
	}
	max, err := readBound(raw.Max, math.Inf(1))
	if err != nil {
		return err
	}
	c.Min, c.Max = min, max
	return nil
}

func readBound(raw json.RawMessage, missing float64) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return missing, nil
	}
	switch string(raw) {
	case jsonNegInf:
		return math.Inf(-1), nil
	case jsonPosInf:
		return math.Inf(1), nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("stat: invalid caps bound %s: %w", raw, err)
	}
	return v, nil
}
