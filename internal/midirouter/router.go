// Package midirouter matches inbound MIDI events (from hardware controllers
// or internally-routed MIDI-file tracks) against a project's mapping table
// and dispatches the first matching action (spec §4.9, C9).
package midirouter

import (
	"sync/atomic"

	"github.com/castlight/showcore/internal/model"
)

// Event is one inbound MIDI event to be matched against the mapping table.
type Event struct {
	Type     model.TriggerType
	Channel  int // 1-based
	Number   int // note/cc/pc number
	Value    int // velocity/cc value/0 for pc
	Internal bool
}

// ActionHandler is invoked for the first mapping that matches an event.
type ActionHandler func(model.Action)

// Router holds a project's mapping table behind an atomic snapshot so
// SetMappings can be called concurrently with Dispatch without blocking the
// MIDI input goroutine (spec §9: mapping updates must not race in-flight
// events).
type Router struct {
	channelFilter int // 0 = accept all channels (spec §4.9)
	mappings      atomic.Pointer[[]model.MidiMapping]
	onAction      ActionHandler
}

// New builds a Router with no mappings loaded, filtering on channelFilter
// (0 = accept all).
func New(channelFilter int, onAction ActionHandler) *Router {
	r := &Router{channelFilter: channelFilter, onAction: onAction}
	empty := []model.MidiMapping{}
	r.mappings.Store(&empty)
	return r
}

// SetMappings atomically replaces the mapping table.
func (r *Router) SetMappings(mappings []model.MidiMapping) {
	cp := make([]model.MidiMapping, len(mappings))
	copy(cp, mappings)
	r.mappings.Store(&cp)
}

// SetChannelFilter updates the accepted MIDI channel (0 = accept all).
func (r *Router) SetChannelFilter(channel int) {
	r.channelFilter = channel
}

// Dispatch matches ev against the current mapping snapshot and invokes the
// handler for the first match, then stops scanning (spec §4.9: "the first
// matching mapping wins; later mappings for the same trigger are
// unreachable by design, not a bug"). Returns true if a mapping matched.
func (r *Router) Dispatch(ev Event) bool {
	if r.channelFilter != 0 && ev.Channel != r.channelFilter {
		return false
	}

	mappings := *r.mappings.Load()
	for _, m := range mappings {
		if m.InternalOnly && !ev.Internal {
			continue
		}
		if !matches(m.Trigger, ev) {
			continue
		}
		if r.onAction != nil {
			r.onAction(m.Action)
		}
		return true
	}
	return false
}

func matches(t model.Trigger, ev Event) bool {
	if t.Type != ev.Type {
		return false
	}
	switch t.Type {
	case model.TriggerNote, model.TriggerCC:
		return t.Number == ev.Number && ev.Value >= t.Threshold
	case model.TriggerPC:
		// Mapping numbers are 1-based (spec §4.8); the wire event carries
		// the raw 0-based MIDI program number.
		return ev.Number+1 == t.Number
	default:
		return false
	}
}
