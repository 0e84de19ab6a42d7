package model

// Project is the top-level loaded aggregate: a list of universes, each
// carrying its placed fixture instances, scenes, chasers, MIDI mappings, and
// MIDI routing configuration (spec §3). It is loaded once from the project
// repository and mutated in memory; persistence is out of this package's
// scope (see internal/project).
type Project struct {
	Universes []*ProjectUniverse
}

// FindUniverse returns the project universe with the given ID, or nil.
func (p *Project) FindUniverse(id string) *ProjectUniverse {
	for _, u := range p.Universes {
		if u.Universe.ID == id {
			return u
		}
	}
	return nil
}

// ProjectUniverse bundles a Universe with the scenes, chasers, mappings, and
// MIDI routing configuration scoped to it.
type ProjectUniverse struct {
	Universe *Universe
	Scenes   []*Scene
	Chasers  []*Chaser
	Mappings []*MidiMapping

	// MidiFilterChannel is the inbound MIDI channel filter (1-based). Zero
	// means accept all channels (spec §4.8).
	MidiFilterChannel int

	// MidiControllerPortName is the hardware MIDI input port name used by
	// the router (C9) for this universe's external control surface.
	MidiControllerPortName string

	// DMXPortName is the serial port name the DMX driver (C4) opens to
	// transmit this universe.
	DMXPortName string
}

// FindScene returns the named scene, or nil.
func (u *ProjectUniverse) FindScene(name string) *Scene {
	for _, s := range u.Scenes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindChaser returns the named chaser, or nil.
func (u *ProjectUniverse) FindChaser(name string) *Chaser {
	for _, c := range u.Chasers {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SceneIndex returns the position of the scene with the given ID within
// Scenes, or -1. Mappings reference scenes/chasers by index (spec §3);
// resolving by ID first keeps the index stable across in-memory reorders.
func (u *ProjectUniverse) SceneIndex(id string) int {
	for i, s := range u.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FindSceneByID returns the scene with the given ID, or nil.
func (u *ProjectUniverse) FindSceneByID(id string) *Scene {
	for _, s := range u.Scenes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindChaserByID returns the chaser with the given ID, or nil.
func (u *ProjectUniverse) FindChaserByID(id string) *Chaser {
	for _, c := range u.Chasers {
		if c.ID == id {
			return c
		}
	}
	return nil
}
