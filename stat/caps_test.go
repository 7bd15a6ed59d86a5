package stat

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCaps_IntersectionUnion(t *testing.T) {
	a := NewCaps(10, 100)
	b := NewCaps(20, 80)

	got := a.Intersection(b)
	if got.Min != 20 || got.Max != 80 {
		t.Errorf("Intersection = %v, want [20, 80]", got)
	}

	got = a.Union(b)
	if got.Min != 10 || got.Max != 100 {
		t.Errorf("Union = %v, want [10, 100]", got)
	}
}

func TestCaps_Validity(t *testing.T) {
	if !NewCaps(0, 0).IsValid() {
		t.Error("degenerate range [0,0] should be valid")
	}
	if NewCaps(5, 1).IsValid() {
		t.Error("range with min > max should be invalid")
	}
	if !NewCaps(5, 1).IsEmpty() {
		t.Error("range with min > max should be empty")
	}
	if !UnboundedCaps().IsValid() {
		t.Error("unbounded range should be valid")
	}
}

func TestCaps_Clamp(t *testing.T) {
	c := NewCaps(0, 500)

	tests := []struct {
		in, want float64
	}{
		{800, 500},
		{-10, 0},
		{250, 250},
		{0, 0},
		{500, 500},
	}
	for _, tt := range tests {
		if got := c.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestCaps_Contains(t *testing.T) {
	c := NewCaps(1, 10)
	if !c.Contains(1) || !c.Contains(10) || !c.Contains(5) {
		t.Error("Contains should be inclusive of both bounds")
	}
	if c.Contains(0.5) || c.Contains(11) {
		t.Error("Contains should reject out-of-range values")
	}
}

func TestCaps_Shrink_Collapses(t *testing.T) {
	c := NewCaps(0, 10).Shrink(8)
	if c.Min != 5 || c.Max != 5 {
		t.Errorf("Shrink past crossover = %v, want collapse to center [5,5]", c)
	}
}

func TestCaps_JSONRoundTrip(t *testing.T) {
	tests := []Caps{
		NewCaps(0, 500),
		NewCaps(math.Inf(-1), 42),
		NewCaps(-7, math.Inf(1)),
		UnboundedCaps(),
	}

	for _, in := range tests {
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("Marshal(%v) failed: %v", in, err)
		}
		var out Caps
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if out != in {
			t.Errorf("round trip of %v produced %v", in, out)
		}
	}
}

func TestCaps_JSONRoundTrip_InsideMap(t *testing.T) {
	in := map[string]Caps{
		"mana":     NewCaps(0, 500),
		"strength": NewCaps(math.Inf(-1), 30),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out map[string]Caps
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["mana"] != in["mana"] || out["strength"] != in["strength"] {
		t.Errorf("round trip mismatch: %v != %v", out, in)
	}
}
