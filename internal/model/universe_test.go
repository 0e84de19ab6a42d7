package model

import (
	"errors"
	"testing"

	"github.com/castlight/showcore/internal/showerr"
)

func dimmerModel(channels int) *FixtureModel {
	descs := make([]ChannelDescriptor, channels)
	for i := range descs {
		descs[i] = ChannelDescriptor{Name: "Ch", Function: "generic"}
	}
	return &FixtureModel{Name: "generic", Channels: descs}
}

func TestUniverseAddInstanceOverlapRejected(t *testing.T) {
	u := NewUniverse("u1", "Main")
	model := dimmerModel(4)

	a := NewFixtureInstance("a", "A", model, 10)
	if err := u.AddInstance(a); err != nil {
		t.Fatalf("AddInstance(a) unexpected error: %v", err)
	}

	b := NewFixtureInstance("b", "B", model, 12)
	err := u.AddInstance(b)
	if !errors.Is(err, showerr.ErrAddressOverlap) {
		t.Fatalf("AddInstance(b) error = %v, want ErrAddressOverlap", err)
	}

	if len(u.Instances) != 1 || u.Instances[0].ID != "a" {
		t.Fatalf("universe was mutated by failed AddInstance: %+v", u.Instances)
	}
}

func TestUniverseAddInstanceNonOverlapping(t *testing.T) {
	u := NewUniverse("u1", "Main")
	model := dimmerModel(4)

	if err := u.AddInstance(NewFixtureInstance("a", "A", model, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := u.AddInstance(NewFixtureInstance("b", "B", model, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(u.Instances))
	}
}

func TestUniverseAddInstanceExceeds512(t *testing.T) {
	u := NewUniverse("u1", "Main")
	model := dimmerModel(4)
	inst := NewFixtureInstance("a", "A", model, 510)
	if err := u.AddInstance(inst); !errors.Is(err, showerr.ErrAddressOverlap) {
		t.Fatalf("expected ErrAddressOverlap for out-of-range fixture, got %v", err)
	}
}
