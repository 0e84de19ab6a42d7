// Package dmxframe implements the 512-channel universe frame and the
// HTP/LTP merge of fixture-instance channel values (spec §4.1, C1/C2).
package dmxframe

import (
	"sync"

	"github.com/castlight/showcore/internal/model"
)

// UniverseFrame caches the 512-byte output frame derived from a universe's
// fixture instances. The frame is never the source of truth — only a cache —
// and is recomputed on every mutation (spec §3: "output frame is derivable
// from instances + active layers; it is never the source of truth").
type UniverseFrame struct {
	mu       sync.RWMutex
	universe *model.Universe
	frame    [512]uint8
}

// New wraps a universe, computing its initial frame.
func New(universe *model.Universe) *UniverseFrame {
	f := &UniverseFrame{universe: universe}
	f.recompute()
	return f
}

// SetValue writes a channel's current value on a fixture instance and
// recomputes the frame. It is a no-op if the instance or channel index is
// not found.
func (f *UniverseFrame) SetValue(instanceID string, channelIndex int, value uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst := f.universe.FindInstance(instanceID)
	if inst == nil || channelIndex < 0 || channelIndex >= len(inst.CurrentValues) {
		return
	}
	inst.CurrentValues[channelIndex] = value
	f.recomputeLocked()
}

// SnapshotFrame returns a copy of the current 512-byte output frame. Two
// calls with no intervening mutation return identical bytes (spec §8).
func (f *UniverseFrame) SnapshotFrame() [512]uint8 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame
}

// CaptureScene copies every instance's current values into a new scene,
// keyed by absolute DMX address. Only addresses actually covered by an
// instance are captured (spec §4.1).
func (f *UniverseFrame) CaptureScene(id, name string) *model.Scene {
	f.mu.RLock()
	defer f.mu.RUnlock()

	scene := model.NewScene(id, name)
	for _, inst := range f.universe.Instances {
		for i, v := range inst.CurrentValues {
			addr := inst.StartAddress + i
			scene.Values[addr] = v
		}
	}
	return scene
}

// ApplyScene writes each scene entry to the covered instance's channel slot.
// Scene addresses not covered by any instance are silently ignored (spec
// §4.1), then the frame is recomputed.
func (f *UniverseFrame) ApplyScene(scene *model.Scene) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for addr, value := range scene.Values {
		for _, inst := range f.universe.Instances {
			if idx, ok := inst.ChannelAt(addr); ok {
				inst.CurrentValues[idx] = value
				break
			}
		}
	}
	f.recomputeLocked()
}

// recompute acquires the write lock and recomputes the frame.
func (f *UniverseFrame) recompute() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputeLocked()
}

// recomputeLocked rebuilds the 512-byte frame in two passes over all
// instances: first classify every covered address as HTP or LTP (an address
// is HTP if any instance's channel there is HTP), then write it — HTP takes
// the max across covering instances, LTP takes the last writer in instance
// iteration order (spec §4.1). Caller must hold f.mu.
func (f *UniverseFrame) recomputeLocked() {
	var covered [512]bool
	var htp [512]bool

	for _, inst := range f.universe.Instances {
		for i, chDesc := range inst.Model.Channels {
			addr := inst.StartAddress + i
			if addr < 1 || addr > 512 {
				continue
			}
			covered[addr-1] = true
			if chDesc.Kind() == model.HTP {
				htp[addr-1] = true
			}
		}
	}

	var next [512]uint8
	for addrIdx := 0; addrIdx < 512; addrIdx++ {
		if !covered[addrIdx] {
			continue
		}
		addr := addrIdx + 1
		if htp[addrIdx] {
			var max uint8
			for _, inst := range f.universe.Instances {
				if idx, ok := inst.ChannelAt(addr); ok && inst.CurrentValues[idx] > max {
					max = inst.CurrentValues[idx]
				}
			}
			next[addrIdx] = max
		} else {
			for _, inst := range f.universe.Instances {
				if idx, ok := inst.ChannelAt(addr); ok {
					next[addrIdx] = inst.CurrentValues[idx]
				}
			}
		}
	}

	f.frame = next
}
