package model

// TriggerType is the kind of inbound MIDI event a mapping reacts to.
type TriggerType string

const (
	TriggerNote TriggerType = "note"
	TriggerCC   TriggerType = "cc"
	TriggerPC   TriggerType = "pc"
)

// ActionKind is what a matched mapping does.
type ActionKind string

const (
	ActionScene   ActionKind = "scene"
	ActionChaser  ActionKind = "chaser"
	ActionStop    ActionKind = "stop"
)

// Trigger describes the inbound MIDI condition a mapping matches against.
type Trigger struct {
	Type      TriggerType
	Number    int // 0..127 for note/cc; 1-based program number for pc
	Threshold int // 0..127; velocity/value floor for note/cc, unused for pc
}

// Action describes what happens when a mapping's trigger matches.
type Action struct {
	Kind  ActionKind
	Index int // scene/chaser index; -1 for stop
}

// MidiMapping binds a trigger to an action. When InternalOnly is set, a
// matching inbound message is consumed and must not be forwarded to any
// external MIDI output (spec §4.8).
type MidiMapping struct {
	ID           string
	Trigger      Trigger
	Action       Action
	InternalOnly bool
}
