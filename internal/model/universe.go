package model

import (
	"fmt"

	"github.com/castlight/showcore/internal/showerr"
)

// Universe is a named DMX universe: an ordered list of fixture instances. It
// holds no output frame; frames are derived from the instances on demand.
type Universe struct {
	ID        string
	Name      string
	Instances []*FixtureInstance
}

// NewUniverse creates an empty universe.
func NewUniverse(id, name string) *Universe {
	return &Universe{ID: id, Name: name}
}

// AddInstance adds a fixture instance to the universe, rejecting any address
// overlap with an already-placed instance (spec §4.2). On failure, the
// universe is not mutated.
func (u *Universe) AddInstance(inst *FixtureInstance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	for _, existing := range u.Instances {
		if inst.Overlaps(existing) {
			return fmt.Errorf("%w: fixture %q [%d-%d] overlaps %q [%d-%d]",
				showerr.ErrAddressOverlap, inst.Name, inst.StartAddress, inst.EndAddress(),
				existing.Name, existing.StartAddress, existing.EndAddress())
		}
	}
	u.Instances = append(u.Instances, inst)
	return nil
}

// RemoveInstance removes the instance with the given ID, if present.
func (u *Universe) RemoveInstance(id string) {
	out := u.Instances[:0]
	for _, inst := range u.Instances {
		if inst.ID != id {
			out = append(out, inst)
		}
	}
	u.Instances = out
}

// FindInstance returns the instance with the given ID, or nil.
func (u *Universe) FindInstance(id string) *FixtureInstance {
	for _, inst := range u.Instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}
