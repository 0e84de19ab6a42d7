// Package layering implements the four-layer composition pipeline that turns
// a universe's programmer (manual fader) state, active scenes, an optional
// chaser step override, and a master dimmer level into the final
// per-universe output frame (spec §4.3, C5):
//
//	Default/Programmer -> Scene Layer Result (HTP) -> Chaser Step Layer (LTP) -> Master Dimmer Attenuation
//
// The Default layer is the programmer's own snapshot frame — the channel
// defaults of every address covered by a fixture instance, overridden by
// whatever a manual fader write has set, 0 elsewhere (spec §4.3 layer 1).
// SetDefaultFrame installs it; the pipeline itself has no fixture-instance
// awareness, so the caller (internal/coordinator) keeps it in sync with the
// universe's internal/dmxframe.UniverseFrame.
//
// Two buffers are kept: "composed" is everything up to and including the
// chaser layer, pre-attenuation — this is what faders read back and what
// chaser fades interpolate against. "output" is composed scaled by the
// master dimmer — this is what the DMX driver sends and what any colour
// simulation renders. Keeping them separate avoids double-dimming when the
// master fader itself is being faded (spec §9).
package layering

import (
	"math"
	"sync"
)

// ActiveScene is one HTP-merged scene contributing to the scene layer, with
// its own per-scene master applied before the HTP merge (spec §4.1/§4.3).
type ActiveScene struct {
	ID     string
	Values map[int]uint8 // absolute DMX address (1..512) -> value
	Master uint8         // 0..255 per-scene intensity scale
}

// ChaserOverride is the chaser step layer: a sparse set of addresses that
// override the scene layer result with LTP semantics (spec §4.3, §5.2).
type ChaserOverride map[int]uint8

// Pipeline composes one universe's 512-channel output frame from its active
// scenes, an optional chaser override, and a master dimmer level.
type Pipeline struct {
	mu sync.RWMutex

	defaultFrame   [512]uint8 // programmer layer: channel defaults + manual fader writes
	activeScenes   map[string]*ActiveScene
	sceneOrder     []string // insertion order, for deterministic HTP tie-break logging only
	chaserOverride ChaserOverride
	masterDimmer   uint8 // 0..255, default 255 (spec §4.3: full by default)

	composed [512]uint8
	output   [512]uint8
}

// New returns a Pipeline with no active scenes, no chaser override, and the
// master dimmer at full (255).
func New() *Pipeline {
	p := &Pipeline{
		activeScenes: make(map[string]*ActiveScene),
		masterDimmer: 255,
	}
	p.recomputeLocked()
	return p
}

// SetDefaultFrame installs the programmer's current snapshot as the base
// (Default) layer and recomposes (spec §4.3 layer 1). Callers apply a manual
// fader write to their internal/dmxframe.UniverseFrame first, then push the
// resulting SnapshotFrame() through here.
func (p *Pipeline) SetDefaultFrame(frame [512]uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultFrame = frame
	p.recomposeLocked()
}

// AddActiveScene adds or replaces an active scene layer and recomposes.
func (p *Pipeline) AddActiveScene(scene *ActiveScene) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.activeScenes[scene.ID]; !exists {
		p.sceneOrder = append(p.sceneOrder, scene.ID)
	}
	p.activeScenes[scene.ID] = scene
	p.recomposeLocked()
}

// RemoveActiveScene removes a scene from the scene layer and recomposes.
func (p *Pipeline) RemoveActiveScene(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.activeScenes[id]; !exists {
		return
	}
	delete(p.activeScenes, id)
	for i, sid := range p.sceneOrder {
		if sid == id {
			p.sceneOrder = append(p.sceneOrder[:i], p.sceneOrder[i+1:]...)
			break
		}
	}
	p.recomposeLocked()
}

// ActiveSceneIDs returns the IDs of all currently active scenes, in the
// order they were added.
func (p *Pipeline) ActiveSceneIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.sceneOrder))
	copy(out, p.sceneOrder)
	return out
}

// SetChaserOverride installs (or clears, if nil) the chaser step layer and
// recomposes (spec §4.3, §5.2: CSL is LTP, replacing SLR values wholesale at
// the addresses it covers).
func (p *Pipeline) SetChaserOverride(override ChaserOverride) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chaserOverride = override
	p.recomposeLocked()
}

// SetMasterDimmer sets the master dimmer attenuation level (0..255) and
// rescales the output buffer without touching the composed buffer (spec §9).
func (p *Pipeline) SetMasterDimmer(level uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masterDimmer = level
	p.applyMasterDimmerLocked()
}

// MasterDimmer returns the current master dimmer level.
func (p *Pipeline) MasterDimmer() uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.masterDimmer
}

// Composed returns the pre-attenuation frame (for fader readback and fade
// math).
func (p *Pipeline) Composed() [512]uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.composed
}

// Output returns the post-attenuation frame (for the DMX driver).
func (p *Pipeline) Output() [512]uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.output
}

// recomposeLocked rebuilds composed from Default+SLR+CSL, then reapplies the
// master dimmer. Caller must hold p.mu.
func (p *Pipeline) recomposeLocked() {
	next := p.defaultFrame // Default layer: programmer snapshot (spec §4.3 layer 1)

	// Scene Layer Result: for every address covered by at least one active
	// scene, replace the Default value with the HTP max across scenes, each
	// scaled first by its own per-scene master (spec §4.3: "output = max
	// over scenes" — the Default layer does not itself enter that max, it
	// is only what addresses absent from every scene fall through to).
	sceneMax := make(map[int]uint8)
	for _, sceneID := range p.sceneOrder {
		scene := p.activeScenes[sceneID]
		for addr, v := range scene.Values {
			if addr < 1 || addr > 512 {
				continue
			}
			scaled := scaleByte(v, scene.Master)
			if scaled > sceneMax[addr] {
				sceneMax[addr] = scaled
			}
		}
	}
	for addr, v := range sceneMax {
		next[addr-1] = v
	}

	// Chaser Step Layer: LTP override at the addresses it covers.
	for addr, v := range p.chaserOverride {
		if addr < 1 || addr > 512 {
			continue
		}
		next[addr-1] = v
	}

	p.composed = next
	p.applyMasterDimmerLocked()
}

func (p *Pipeline) recomputeLocked() {
	p.recomposeLocked()
}

// applyMasterDimmerLocked scales composed by masterDimmer/255 into output.
// Caller must hold p.mu.
func (p *Pipeline) applyMasterDimmerLocked() {
	var out [512]uint8
	for i, v := range p.composed {
		out[i] = scaleByte(v, p.masterDimmer)
	}
	p.output = out
}

// scaleByte scales a 0-255 channel value by a 0-255 factor, rounding to the
// nearest integer (spec §4.3 linearity invariant: output(m1) ==
// round(output(255) * m1/255) within +/-1 LSB).
func scaleByte(value, factor uint8) uint8 {
	if factor == 255 {
		return value
	}
	scaled := math.Round(float64(value) * float64(factor) / 255.0)
	return uint8(scaled)
}
