// Package lyrics polls the master audio clock and publishes the index of
// the currently active lyric line (spec §4.10, C10).
package lyrics

import (
	"sync"
	"time"

	"github.com/castlight/showcore/internal/model"
)

// pollInterval is the scheduler's cadence (spec §4.10: 50ms).
const pollInterval = 50 * time.Millisecond

// defaultReadAhead shifts the active-line boundary earlier so a line lights
// up slightly before it's sung (spec §4.10: default 1.0s read-ahead).
const defaultReadAhead = time.Second

// ClockSource reports the master clock's current playback position.
type ClockSource interface {
	Position() time.Duration
	IsPlaying() bool
}

// Scheduler polls a ClockSource and publishes the active lyric line index.
type Scheduler struct {
	mu         sync.Mutex
	lines      []model.LyricLine
	readAhead  time.Duration
	clock      ClockSource
	onIndex    func(index int) // -1 means no line active yet; nothing is published on stop or song end
	stopChan   chan struct{}
	running    bool
	lastIndex  int
}

// New builds a Scheduler for the given song's lyric lines.
func New(lines []model.LyricLine, clock ClockSource, onIndex func(index int)) *Scheduler {
	return &Scheduler{
		lines:     lines,
		readAhead: defaultReadAhead,
		clock:     clock,
		onIndex:   onIndex,
		lastIndex: -1,
	}
}

// SetReadAhead overrides the default read-ahead offset.
func (s *Scheduler) SetReadAhead(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readAhead = d
}

// Start begins the 50ms poll loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go s.loop(stop)
}

// Stop halts the poll loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()
}

func (s *Scheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.clock.IsPlaying() {
		return
	}

	lookahead := s.clock.Position() + s.readAhead
	index := indexAt(s.lines, lookahead)
	if index != s.lastIndex {
		s.lastIndex = index
		if s.onIndex != nil {
			s.onIndex(index)
		}
	}
}

// indexAt returns the index of the last line whose Time has passed at or
// before t, or -1 if no line has started yet (spec §4.10).
func indexAt(lines []model.LyricLine, t time.Duration) int {
	active := -1
	seconds := t.Seconds()
	for i, line := range lines {
		if line.Time <= seconds {
			active = i
		} else {
			break
		}
	}
	return active
}
