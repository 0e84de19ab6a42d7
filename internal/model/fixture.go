package model

import (
	"fmt"

	"github.com/castlight/showcore/internal/showerr"
)

// FixtureModel is a fixture type: a name and an ordered list of channel
// descriptors. Count is the list length.
type FixtureModel struct {
	Name     string
	Channels []ChannelDescriptor
}

// ChannelCount returns the number of channels the model occupies.
func (m *FixtureModel) ChannelCount() int {
	return len(m.Channels)
}

// FixtureInstance is a placed copy of a FixtureModel: it owns a reference to
// the model, a start address in 1..=512, and one current value per channel,
// initialized from the model's descriptor defaults.
type FixtureInstance struct {
	ID           string
	Name         string
	Model        *FixtureModel
	StartAddress int
	CurrentValues []uint8
}

// NewFixtureInstance creates an instance at the given start address with
// values initialized to the model's channel defaults.
func NewFixtureInstance(id, name string, model *FixtureModel, startAddress int) *FixtureInstance {
	values := make([]uint8, model.ChannelCount())
	for i, ch := range model.Channels {
		values[i] = ch.Default
	}
	return &FixtureInstance{
		ID:            id,
		Name:          name,
		Model:         model,
		StartAddress:  startAddress,
		CurrentValues: values,
	}
}

// EndAddress returns the last DMX address (inclusive) this instance occupies.
func (f *FixtureInstance) EndAddress() int {
	return f.StartAddress + f.Model.ChannelCount() - 1
}

// Overlaps reports whether f and other occupy any common DMX address.
func (f *FixtureInstance) Overlaps(other *FixtureInstance) bool {
	return f.StartAddress <= other.EndAddress() && f.EndAddress() >= other.StartAddress
}

// ChannelAt returns the channel index within CurrentValues for an absolute
// DMX address, and whether that address is covered by this instance.
func (f *FixtureInstance) ChannelAt(address int) (index int, ok bool) {
	if address < f.StartAddress || address > f.EndAddress() {
		return 0, false
	}
	return address - f.StartAddress, true
}

// Validate checks the instance placement invariant: start+count-1 <= 512 and
// start >= 1.
func (f *FixtureInstance) Validate() error {
	if f.StartAddress < 1 {
		return fmt.Errorf("%w: start address %d < 1", showerr.ErrAddressOverlap, f.StartAddress)
	}
	if f.EndAddress() > 512 {
		return fmt.Errorf("%w: fixture %q end address %d exceeds 512", showerr.ErrAddressOverlap, f.Name, f.EndAddress())
	}
	return nil
}
