package model

// InternalDMXPort is the sentinel MIDI port name meaning "route these events
// to the MIDI input router (C9) instead of any hardware MIDI output" (spec
// §3, §4.7). The wire-level literal is specified in §6 External Interfaces.
const InternalDMXPort = "INTERNAL_DMX_PORT_TRIGGER"

// Song is a loaded performance unit: audio tracks, MIDI tracks, an optional
// video path, and a time-synchronized lyric list (spec §3).
type Song struct {
	Name             string
	AudioTracks      []AudioTrack
	MidiTracks       []MidiTrack
	VideoPath        string // empty if the song has no video
	Lyrics           []LyricLine
	LyricsSourceFile string // empty if lyrics were not imported from a .txt file
}

// BPM returns the song's tempo for outgoing MIDI clock purposes: the first
// audio track's BPM, if set (spec §4.7). Returns 0 when no track specifies
// one.
func (s *Song) BPM() float64 {
	for _, t := range s.AudioTracks {
		if t.BPM != nil {
			return *t.BPM
		}
	}
	return 0
}

// AudioTrack is one audio stem routed into the mix (spec §3, §4.6).
type AudioTrack struct {
	FilePath           string
	DeviceIndex        int
	SourceChannelsUsed int
	OutputStartChannel int
	BPM                *float64 // optional per-song BPM, read from the first track that sets it
}

// MidiTrack is one MIDI file routed to a channel and output port (spec §3,
// §4.7). PortName may be InternalDMXPort.
type MidiTrack struct {
	FilePath string
	Channel  int // 1-based MIDI channel, overridden onto every outgoing message
	PortName string
}

// IsInternal reports whether this track routes to the MIDI input router (C9)
// rather than a hardware port.
func (t MidiTrack) IsInternal() bool {
	return t.PortName == InternalDMXPort
}

// LyricLine is one line of lyrics with the playback time (seconds) at which
// it becomes the active line.
type LyricLine struct {
	Line string
	Time float64
}
