// Package showerr defines the sentinel error kinds used across the
// show-control core (spec §7). Every kind is a plain error value, checkable
// with errors.Is after wrapping with fmt.Errorf("...: %w", ...).
package showerr

import "errors"

var (
	// ErrPortUnavailable is returned when a serial/MIDI port cannot be
	// opened or has disconnected. Recovered locally: the caller's state
	// goes to "disconnected", sends are dropped, and the user can retry.
	ErrPortUnavailable = errors.New("port unavailable")

	// ErrIoDecode is returned for malformed JSON or unreadable media. On
	// the project file this falls back to an empty project (logged); on
	// a song file it surfaces to the caller.
	ErrIoDecode = errors.New("io decode error")

	// ErrAddressOverlap is returned when a fixture instance would overlap
	// an existing instance's DMX address range, or would exceed address
	// 512. Never partially mutates the universe.
	ErrAddressOverlap = errors.New("address overlap")

	// ErrInvalidStep is returned for a chaser step whose hold, fade-in,
	// and fade-out are all zero. Rejected at chaser save time.
	ErrInvalidStep = errors.New("invalid chaser step")

	// ErrActionOutOfRange is returned when a MIDI mapping references a
	// missing scene or chaser index. Logged and ignored during dispatch.
	ErrActionOutOfRange = errors.New("action index out of range")

	// ErrClockUnavailable is returned when no audio track can drive the
	// master clock. Falls back to a synthetic one-hour timeline.
	ErrClockUnavailable = errors.New("clock unavailable")

	// ErrEventLost is returned when a MIDI queue overflows. Rate-limited
	// to the log, never propagated as a fatal condition.
	ErrEventLost = errors.New("midi event lost")
)
