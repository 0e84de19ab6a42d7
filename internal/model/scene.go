package model

// Scene is a named snapshot of channel values: a mapping from absolute DMX
// address (1..=512) to value (0..=255). Keys need not cover every address;
// unspecified addresses inherit from whatever layer sits below the scene.
type Scene struct {
	ID     string
	Name   string
	Values map[int]uint8
}

// NewScene creates an empty named scene.
func NewScene(id, name string) *Scene {
	return &Scene{ID: id, Name: name, Values: make(map[int]uint8)}
}

// ActiveScene is a scene reference plus a master value, 0..=255. The UI
// currently always sets this to 255; it is reserved for future submasters
// (spec §3).
type ActiveScene struct {
	Scene  *Scene
	Master uint8
}
