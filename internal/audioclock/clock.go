// Package audioclock is the master time source for a song (spec §4.6, C7):
// it decodes one or more audio tracks, opens an output stream per track, and
// derives the show's elapsed time from the wall clock rather than from audio
// buffer counts, so every other component (MIDI clock, lyrics, video sync)
// reads a single consistent position. The decoded samples are not mixed or
// written to the device: the output streams carry silence.
package audioclock

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/showerr"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// fallbackDuration is used when no track in the song reports a usable
// duration, so the clock still has a bound to seek/stop against (spec §4.6).
const fallbackDuration = time.Hour

// track is one decoded audio stem and its output stream.
type track struct {
	spec   model.AudioTrack
	buffer *audio.IntBuffer
	stream *portaudio.Stream
}

// Clock holds a song's decoded audio tracks and exposes the show's elapsed
// playback position as a single wall-clock-derived value (spec §4.6). It
// does not mix the tracks.
type Clock struct {
	mu sync.RWMutex

	tracks   []*track
	duration time.Duration

	playing         bool
	startTimeOrigin time.Time // playback position 0 mapped to this wall-clock instant
	pauseTime       time.Duration
}

// New decodes every audio track in the song; it opens no output stream
// (see Open) and does not start playback. Decode failures are wrapped in
// showerr.ErrIoDecode and are non-fatal to the caller, which may continue
// the show without audio (spec §7).
func New(song *model.Song, wavOpen func(path string) (WavReader, error)) (*Clock, error) {
	c := &Clock{}

	var maxDuration time.Duration
	for _, ts := range song.AudioTracks {
		r, err := wavOpen(ts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %q: %v", showerr.ErrIoDecode, ts.FilePath, err)
		}
		dec := wav.NewDecoder(r)
		if !dec.IsValidFile() {
			return nil, fmt.Errorf("%w: %q is not a valid WAV file", showerr.ErrIoDecode, ts.FilePath)
		}

		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding %q: %v", showerr.ErrIoDecode, ts.FilePath, err)
		}

		if d, err := dec.Duration(); err == nil && d > maxDuration {
			maxDuration = d
		}

		c.tracks = append(c.tracks, &track{spec: ts, buffer: buf})
	}

	if maxDuration <= 0 {
		maxDuration = fallbackDuration
	}
	c.duration = maxDuration

	return c, nil
}

// WavReader is the subset of *os.File that wav.NewDecoder needs; factored
// out so tests can supply an in-memory reader instead of touching disk.
type WavReader interface {
	ReadAt(p []byte, off int64) (int, error)
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}

// OpenWavFile opens path off disk as a WavReader. This is the wavOpen
// callers pass to New outside of tests.
func OpenWavFile(path string) (WavReader, error) {
	return os.Open(path)
}

// Open opens a portaudio output stream per track; the streams start on
// Play. Safe to skip in environments with no audio device; callers treat a
// returned showerr.ErrPortUnavailable as non-fatal.
func (c *Clock) Open() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: portaudio init: %v", showerr.ErrPortUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tr := range c.tracks {
		numChans := tr.spec.SourceChannelsUsed
		if numChans <= 0 {
			numChans = tr.buffer.Format.NumChannels
		}
		stream, err := portaudio.OpenDefaultStream(0, numChans, float64(tr.buffer.Format.SampleRate), 0, tr.callback)
		if err != nil {
			return fmt.Errorf("%w: opening output stream for %q: %v", showerr.ErrPortUnavailable, tr.spec.FilePath, err)
		}
		tr.stream = stream
	}
	return nil
}

// callback fills each output block with silence (zero samples); the
// track's decoded buffer is not read.
func (t *track) callback(out []int16) {
	for i := range out {
		out[i] = 0
	}
}

// Play starts (or resumes) playback from the current logical position
// (spec §4.6).
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.playing = true
	c.startTimeOrigin = time.Now().Add(-c.pauseTime)
	for _, tr := range c.tracks {
		if tr.stream != nil {
			_ = tr.stream.Start()
		}
	}
}

// Pause freezes the current position (spec §4.6).
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.pauseTime = time.Since(c.startTimeOrigin)
	c.playing = false
	for _, tr := range c.tracks {
		if tr.stream != nil {
			_ = tr.stream.Stop()
		}
	}
}

// Stop resets the position to zero (spec §4.6).
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.pauseTime = 0
	for _, tr := range c.tracks {
		if tr.stream != nil {
			_ = tr.stream.Stop()
		}
	}
}

// Seek stops and restarts playback at the given offset (spec §4.6: "seek is
// implemented as stop, then start-at-offset, never an in-place scrub").
func (c *Clock) Seek(offset time.Duration) {
	c.mu.Lock()
	wasPlaying := c.playing
	c.playing = false
	c.pauseTime = clampDuration(offset, 0, c.duration)
	c.mu.Unlock()

	if wasPlaying {
		c.Play()
	}
}

// Position returns the current elapsed playback time (spec §4.6, §8 scenario
// 7): now minus start_time_origin while playing, or the frozen pause_time
// otherwise.
func (c *Clock) Position() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.playing {
		return time.Since(c.startTimeOrigin)
	}
	return c.pauseTime
}

// Duration returns the song's total duration, synthetic one-hour fallback
// included.
func (c *Clock) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.duration
}

// IsPlaying reports whether the clock is currently advancing.
func (c *Clock) IsPlaying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playing
}

// Close stops every track's stream and terminates portaudio.
func (c *Clock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tr := range c.tracks {
		if tr.stream != nil {
			_ = tr.stream.Close()
		}
	}
	return portaudio.Terminate()
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
