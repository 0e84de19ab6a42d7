package audioclock

import (
	"testing"
	"time"

	"github.com/castlight/showcore/internal/model"
)

func newClockNoTracks(t *testing.T) *Clock {
	t.Helper()
	song := &model.Song{Name: "empty"}
	c, err := New(song, func(path string) (WavReader, error) {
		t.Fatalf("wavOpen should not be called for a song with no audio tracks")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestFallbackDurationWhenNoTracks(t *testing.T) {
	c := newClockNoTracks(t)
	if c.Duration() != fallbackDuration {
		t.Fatalf("Duration() = %v, want synthetic fallback %v", c.Duration(), fallbackDuration)
	}
}

func TestPositionAdvancesWhilePlaying(t *testing.T) {
	c := newClockNoTracks(t)
	c.Play()
	defer c.Stop()

	time.Sleep(20 * time.Millisecond)
	pos := c.Position()
	if pos < 15*time.Millisecond {
		t.Fatalf("Position() = %v, want >= ~20ms after playing", pos)
	}
	if !c.IsPlaying() {
		t.Fatal("IsPlaying() = false, want true")
	}
}

func TestPauseFreezesPosition(t *testing.T) {
	c := newClockNoTracks(t)
	c.Play()
	time.Sleep(20 * time.Millisecond)
	c.Pause()

	frozen := c.Position()
	time.Sleep(20 * time.Millisecond)
	stillFrozen := c.Position()

	if frozen != stillFrozen {
		t.Fatalf("Position() changed while paused: %v -> %v", frozen, stillFrozen)
	}
	if c.IsPlaying() {
		t.Fatal("IsPlaying() = true after Pause()")
	}
}

func TestStopResetsPosition(t *testing.T) {
	c := newClockNoTracks(t)
	c.Play()
	time.Sleep(10 * time.Millisecond)
	c.Stop()

	if pos := c.Position(); pos != 0 {
		t.Fatalf("Position() after Stop() = %v, want 0", pos)
	}
}

func TestSeekWhilePlayingResumesAtOffset(t *testing.T) {
	c := newClockNoTracks(t)
	c.Play()
	c.Seek(5 * time.Second)

	pos := c.Position()
	if pos < 5*time.Second || pos > 5*time.Second+50*time.Millisecond {
		t.Fatalf("Position() after seek = %v, want ~5s", pos)
	}
	if !c.IsPlaying() {
		t.Fatal("Seek() while playing should resume playback")
	}
}

func TestSeekWhilePausedStaysPaused(t *testing.T) {
	c := newClockNoTracks(t)
	c.Seek(3 * time.Second)

	if c.IsPlaying() {
		t.Fatal("Seek() while stopped should not start playback")
	}
	if pos := c.Position(); pos != 3*time.Second {
		t.Fatalf("Position() = %v, want 3s", pos)
	}
}

func TestSeekClampedToDuration(t *testing.T) {
	c := newClockNoTracks(t)
	c.Seek(c.Duration() + time.Hour)
	if pos := c.Position(); pos != c.Duration() {
		t.Fatalf("Position() after over-long seek = %v, want clamped to %v", pos, c.Duration())
	}
}
