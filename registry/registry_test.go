package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/chaos-world/actor-core/stat"
)

type stubSubsystem struct {
	id       string
	priority int64
}

func (s *stubSubsystem) SystemID() string { return s.id }
func (s *stubSubsystem) Priority() int64  { return s.priority }
func (s *stubSubsystem) Contribute(_ context.Context, _ *stat.Actor) (*stat.SubsystemOutput, error) {
	return stat.NewSubsystemOutput(s.id), nil
}

var _ Subsystem = (*stubSubsystem)(nil)

func TestPluginRegistry_RegisterAndOrder(t *testing.T) {
	r := NewPluginRegistry()

	if err := r.Register(&stubSubsystem{id: "equipment", priority: 10}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&stubSubsystem{id: "cultivation", priority: 100}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&stubSubsystem{id: "buffs", priority: 10}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ordered := r.GetByPriority()
	got := make([]string, len(ordered))
	for i, s := range ordered {
		got[i] = s.SystemID()
	}
	// Highest priority first; equal priorities keep registration order.
	want := []string{"cultivation", "equipment", "buffs"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetByPriority[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPluginRegistry_DuplicateAndUnregister(t *testing.T) {
	r := NewPluginRegistry()

	if err := r.Register(&stubSubsystem{id: "magic"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&stubSubsystem{id: "magic"}); !errors.Is(err, ErrDuplicateSystemID) {
		t.Errorf("duplicate Register = %v, want ErrDuplicateSystemID", err)
	}
	if !r.IsRegistered("magic") {
		t.Error("IsRegistered should report registered system")
	}
	if err := r.Unregister("magic"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if err := r.Unregister("magic"); !errors.Is(err, ErrUnknownSystemID) {
		t.Errorf("second Unregister = %v, want ErrUnknownSystemID", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

func TestPluginRegistry_RejectsInvalid(t *testing.T) {
	r := NewPluginRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilSubsystem) {
		t.Errorf("Register(nil) = %v, want ErrNilSubsystem", err)
	}
	if err := r.Register(&stubSubsystem{id: ""}); !errors.Is(err, ErrEmptySystemID) {
		t.Errorf("Register with empty id = %v, want ErrEmptySystemID", err)
	}
}

func TestCombinerRegistry_Rules(t *testing.T) {
	r := NewCombinerRegistry()

	if _, ok := r.GetRule("strength"); ok {
		t.Error("GetRule on empty registry should report absence")
	}

	clamp := stat.NewCaps(0, 10000)
	rule := MergeRule{UsePipeline: true, Operator: stat.OperatorSum, ClampDefault: &clamp}
	if err := r.SetRule("strength", rule); err != nil {
		t.Fatalf("SetRule failed: %v", err)
	}

	got, ok := r.GetRule("strength")
	if !ok {
		t.Fatal("GetRule should find configured rule")
	}
	if !got.UsePipeline || got.Operator != stat.OperatorSum || *got.ClampDefault != clamp {
		t.Errorf("GetRule = %+v, want %+v", got, rule)
	}

	if err := r.SetRule("", rule); !errors.Is(err, ErrEmptyDimension) {
		t.Errorf("SetRule with empty dimension = %v, want ErrEmptyDimension", err)
	}

	bad := stat.NewCaps(10, 1)
	if err := r.SetRule("agility", MergeRule{ClampDefault: &bad}); !errors.Is(err, ErrInvalidClampRange) {
		t.Errorf("SetRule with inverted clamp = %v, want ErrInvalidClampRange", err)
	}

	if err := r.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}

func TestCapLayerRegistry_OrderAndPolicy(t *testing.T) {
	r := NewCapLayerRegistry("base", "equipment", "buff")

	order := r.LayerOrder()
	if len(order) != 3 || order[0] != "base" || order[2] != "buff" {
		t.Errorf("LayerOrder = %v", order)
	}
	if r.AcrossLayerPolicy() != stat.PolicyIntersect {
		t.Errorf("default policy = %v, want intersect", r.AcrossLayerPolicy())
	}

	r.SetAcrossLayerPolicy(stat.PolicyUnion)
	if r.AcrossLayerPolicy() != stat.PolicyUnion {
		t.Error("SetAcrossLayerPolicy did not take effect")
	}

	if err := r.SetLayerOrder(nil); !errors.Is(err, ErrEmptyLayerOrder) {
		t.Errorf("SetLayerOrder(nil) = %v, want ErrEmptyLayerOrder", err)
	}
	if err := r.SetLayerOrder([]string{"base", "base"}); !errors.Is(err, ErrDuplicateLayer) {
		t.Errorf("duplicate layer = %v, want ErrDuplicateLayer", err)
	}

	// Returned order is a copy; mutating it must not affect the registry.
	order = r.LayerOrder()
	order[0] = "mutated"
	if r.LayerOrder()[0] != "base" {
		t.Error("LayerOrder should return a defensive copy")
	}

	if err := r.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}

func TestClampRegistry_Ranges(t *testing.T) {
	r := NewClampRegistry()

	if _, ok := r.GetRange("mana"); ok {
		t.Error("GetRange on empty registry should report absence")
	}
	if err := r.SetRange("mana", stat.NewCaps(0, 1000000)); err != nil {
		t.Fatalf("SetRange failed: %v", err)
	}
	got, ok := r.GetRange("mana")
	if !ok || got.Min != 0 || got.Max != 1000000 {
		t.Errorf("GetRange = %v, %v", got, ok)
	}
	if err := r.SetRange("mana", stat.NewCaps(5, 1)); !errors.Is(err, ErrInvalidClampRange) {
		t.Errorf("inverted range = %v, want ErrInvalidClampRange", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}
