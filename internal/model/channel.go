// Package model contains the plain data types shared by the show-control core:
// channel descriptors, fixtures, universes, scenes, chasers, MIDI mappings, and
// the project/song aggregates. Nothing in this package owns concurrency or I/O.
package model

import "strings"

// ChannelKind classifies how a channel should be merged when two layers both
// write to the same DMX address.
type ChannelKind int

const (
	// LTP (latest takes precedence): last writer in iteration order wins.
	LTP ChannelKind = iota
	// HTP (highest takes precedence): the maximum value across sources wins.
	HTP
)

func (k ChannelKind) String() string {
	if k == HTP {
		return "HTP"
	}
	return "LTP"
}

// ChannelDescriptor describes one channel of a fixture model: its name, its
// function, and the value it takes when nothing else has written to it.
type ChannelDescriptor struct {
	Name    string
	Function string
	Default uint8
}

// Kind classifies the descriptor as HTP or LTP. Classification is a pure
// function of the descriptor's text and is stable for the life of the
// profile: a channel is HTP when its name contains "dimmer" or its function
// contains "intensity" (case-insensitive), otherwise LTP.
func (d ChannelDescriptor) Kind() ChannelKind {
	name := strings.ToLower(d.Name)
	fn := strings.ToLower(d.Function)
	if strings.Contains(name, "dimmer") || strings.Contains(fn, "intensity") {
		return HTP
	}
	return LTP
}
