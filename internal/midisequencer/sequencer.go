// Package midisequencer drives outgoing MIDI clock and per-track Standard
// MIDI File playback (spec §4.7, C8). A track whose port name is
// model.InternalDMXPort is never sent to a hardware port; its events are
// routed to the MIDI input router (C9) instead, tagged as internal.
package midisequencer

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/castlight/showcore/internal/midirouter"
	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/showerr"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ppqn is the outgoing MIDI clock resolution (spec §4.7: 24 pulses per
// quarter note, the MIDI standard).
const ppqn = 24

// EventSource tags where a dispatched event came from, for monitor/UI
// display (spec §6: "[HARDWARE]" vs "[DMX INTERNAL]").
type EventSource int

const (
	SourceHardware EventSource = iota
	SourceInternal
)

func (s EventSource) String() string {
	if s == SourceInternal {
		return "[DMX INTERNAL]"
	}
	return "[HARDWARE]"
}

// MonitorEvent is published for every dispatched MIDI message, for the
// control UI's live monitor feed (spec §6).
type MonitorEvent struct {
	ElapsedTime time.Duration
	Source      EventSource
	Message     midi.Message
}

// Sequencer owns the outgoing MIDI clock and every running file-playback
// task for a song.
type Sequencer struct {
	mu sync.Mutex

	router     *midirouter.Router
	onMonitor  func(MonitorEvent)
	sendTo     map[string]func(midi.Message) error
	clockStop  chan struct{}
	clockRun   bool
	clockBPM   float64
	fileTasks  map[string]*fileTask
	epoch      time.Time
}

type fileTask struct {
	stop chan struct{}
}

// New builds a Sequencer that dispatches internally-routed events to router.
func New(router *midirouter.Router, onMonitor func(MonitorEvent)) *Sequencer {
	return &Sequencer{
		router:    router,
		onMonitor: onMonitor,
		sendTo:    make(map[string]func(midi.Message) error),
		fileTasks: make(map[string]*fileTask),
	}
}

// openPort resolves and caches a send function for a named hardware MIDI
// output port, returning showerr.ErrPortUnavailable (wrapped) if it cannot
// be found.
func (s *Sequencer) openPort(name string) (func(midi.Message) error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if send, ok := s.sendTo[name]; ok {
		return send, nil
	}
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("%w: MIDI output port %q: %v", showerr.ErrPortUnavailable, name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("%w: opening MIDI output port %q: %v", showerr.ErrPortUnavailable, name, err)
	}
	s.sendTo[name] = send
	return send, nil
}

// StartClock begins sending an outgoing 24-PPQN MIDI clock plus a Start
// message at bpm to every hardware port currently open for this song (spec
// §4.7). Safe to call if already running (no-op).
func (s *Sequencer) StartClock(bpm float64, portNames []string) {
	s.mu.Lock()
	if s.clockRun {
		s.mu.Unlock()
		return
	}
	if bpm <= 0 {
		bpm = 120
	}
	s.clockRun = true
	s.clockBPM = bpm
	s.clockStop = make(chan struct{})
	s.epoch = time.Now()
	stop := s.clockStop
	s.mu.Unlock()

	for _, name := range portNames {
		if send, err := s.openPort(name); err == nil {
			_ = send(midi.Start())
		} else {
			log.Printf("midisequencer: %v", err)
		}
	}

	go s.clockLoop(stop, portNames)
}

func (s *Sequencer) clockLoop(stop chan struct{}, portNames []string) {
	s.mu.Lock()
	interval := time.Minute / time.Duration(s.clockBPM*ppqn)
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			for _, name := range portNames {
				if send, err := s.openPort(name); err == nil {
					_ = send(midi.Stop())
				}
			}
			return
		case <-ticker.C:
			for _, name := range portNames {
				if send, err := s.openPort(name); err == nil {
					_ = send(midi.TimingClock())
				}
			}
		}
	}
}

// StopClock halts the outgoing MIDI clock and sends Stop to every port.
func (s *Sequencer) StopClock() {
	s.mu.Lock()
	if !s.clockRun {
		s.mu.Unlock()
		return
	}
	s.clockRun = false
	stop := s.clockStop
	s.mu.Unlock()
	close(stop)
}

// PlayTrack reads a Standard MIDI File and schedules its events using its
// embedded tempo, overriding every message onto track.Channel, and routing
// to track.PortName (or internally, if track.PortName ==
// model.InternalDMXPort). Returns immediately; playback runs on its own
// goroutine until the file ends or StopTrack is called.
func (s *Sequencer) PlayTrack(id string, track model.MidiTrack) error {
	sm, err := smf.ReadFile(track.FilePath)
	if err != nil {
		return fmt.Errorf("%w: reading MIDI file %q: %v", showerr.ErrIoDecode, track.FilePath, err)
	}

	var send func(midi.Message) error
	if !track.IsInternal() {
		send, err = s.openPort(track.PortName)
		if err != nil {
			return err
		}
	}

	stop := make(chan struct{})
	s.mu.Lock()
	s.fileTasks[id] = &fileTask{stop: stop}
	s.mu.Unlock()

	go s.runFile(id, sm, track, send, stop)
	return nil
}

// StopTrack halts one running file-playback task and sends All Notes Off
// (CC 123) on the track's channel (spec §4.7).
func (s *Sequencer) StopTrack(id string, track model.MidiTrack) {
	s.mu.Lock()
	t, ok := s.fileTasks[id]
	delete(s.fileTasks, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	close(t.stop)

	if !track.IsInternal() {
		if send, err := s.openPort(track.PortName); err == nil {
			_ = send(midi.ControlChange(uint8(track.Channel-1), 123, 0))
		}
	}
}

// runFile walks a file's tracks in delta-tick order using the file's own
// tempo map, sleeping between events in real time. Only metric (PPQN) time
// division is supported; files using SMPTE time code fall back to a fixed
// 120 BPM assumption (spec §4.7 does not require SMPTE support).
func (s *Sequencer) runFile(id string, sm *smf.SMF, track model.MidiTrack, send func(midi.Message) error, stop chan struct{}) {
	ticksPerQuarter := uint16(960)
	if mt, ok := sm.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = uint16(mt.Ticks())
	}

	type scheduled struct {
		absTicks uint64
		msg      midi.Message
	}
	var events []scheduled
	for _, trk := range sm.Tracks {
		var abs uint64
		for _, ev := range trk {
			abs += uint64(ev.Delta)
			events = append(events, scheduled{absTicks: abs, msg: midi.Message(ev.Message)})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].absTicks < events[j].absTicks })

	microsecondsPerQuarter := 500000.0 // 120 BPM default, updated by tempo meta events
	start := time.Now()
	var lastTicks uint64

	for _, e := range events {
		select {
		case <-stop:
			return
		default:
		}

		if bpm, ok := tempoBPM(e.msg); ok && bpm > 0 {
			microsecondsPerQuarter = 60000000.0 / bpm
		}

		deltaTicks := e.absTicks - lastTicks
		lastTicks = e.absTicks
		wait := time.Duration(float64(deltaTicks) / float64(ticksPerQuarter) * microsecondsPerQuarter * float64(time.Microsecond))
		if wait > 0 {
			time.Sleep(wait)
		}

		msg := overrideChannel(e.msg, track.Channel)
		s.dispatch(id, track, msg, send, time.Since(start))
	}
}

// tempoBPM reports the tempo embedded in a meta tempo event, if msg is one.
func tempoBPM(msg midi.Message) (float64, bool) {
	var bpm float64
	if msg.GetMetaTempo(&bpm) {
		return bpm, true
	}
	return 0, false
}

// dispatch sends msg out the hardware port (if any) and, for internal
// tracks, feeds the router directly — and publishes a monitor event either
// way (spec §6).
func (s *Sequencer) dispatch(trackID string, track model.MidiTrack, msg midi.Message, send func(midi.Message) error, elapsed time.Duration) {
	source := SourceHardware
	if track.IsInternal() {
		source = SourceInternal
		s.routeInternal(msg, track.Channel)
	} else if send != nil {
		if err := send(msg); err != nil {
			log.Printf("midisequencer: send on track %q failed: %v", trackID, err)
		}
	}

	if s.onMonitor != nil {
		s.onMonitor(MonitorEvent{ElapsedTime: elapsed, Source: source, Message: msg})
	}
}

func (s *Sequencer) routeInternal(msg midi.Message, channel int) {
	if s.router == nil {
		return
	}
	var ch, key, vel, cc, val, program uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		s.router.Dispatch(midirouter.Event{Type: model.TriggerNote, Channel: channel, Number: int(key), Value: int(vel), Internal: true})
	case msg.GetControlChange(&ch, &cc, &val):
		s.router.Dispatch(midirouter.Event{Type: model.TriggerCC, Channel: channel, Number: int(cc), Value: int(val), Internal: true})
	case msg.GetProgramChange(&ch, &program):
		s.router.Dispatch(midirouter.Event{Type: model.TriggerPC, Channel: channel, Number: int(program), Internal: true})
	}
}

// overrideChannel rewrites msg onto the given 1-based MIDI channel,
// preserving message type and data (spec §4.7: tracks are forced onto one
// output channel regardless of what's embedded in the file).
func overrideChannel(msg midi.Message, channel int) midi.Message {
	var ch, key, vel, cc, val, program uint8
	target := uint8(channel - 1)
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return midi.NoteOn(target, key, vel)
	case msg.GetNoteOff(&ch, &key, &vel):
		return midi.NoteOff(target, key)
	case msg.GetControlChange(&ch, &cc, &val):
		return midi.ControlChange(target, cc, val)
	case msg.GetProgramChange(&ch, &program):
		return midi.ProgramChange(target, program)
	default:
		return msg
	}
}
