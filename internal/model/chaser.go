package model

import (
	"fmt"
	"time"

	"github.com/castlight/showcore/internal/showerr"
)

// ChaserStep references a scene by identity plus three non-negative
// durations: hold, fade-in, and fade-out (spec §3).
type ChaserStep struct {
	Scene    *Scene
	Hold     time.Duration
	FadeIn   time.Duration
	FadeOut  time.Duration
}

// IsZero reports whether all three of the step's durations are zero — such a
// step is illegal at chaser save time (spec §4.4).
func (s ChaserStep) IsZero() bool {
	return s.Hold == 0 && s.FadeIn == 0 && s.FadeOut == 0
}

// Chaser is a named, non-empty, ordered list of steps that cycle. The
// current index is runtime-only state, held by the chaser runtime (C6), not
// here — a Chaser value is pure data.
type Chaser struct {
	ID    string
	Name  string
	Steps []ChaserStep
}

// Validate rejects a chaser with no steps or with any all-zero-duration step.
func (c *Chaser) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("%w: chaser %q has no steps", showerr.ErrInvalidStep, c.Name)
	}
	for i, step := range c.Steps {
		if step.IsZero() {
			return fmt.Errorf("%w: chaser %q step %d has hold=fade_in=fade_out=0", showerr.ErrInvalidStep, c.Name, i)
		}
	}
	return nil
}
