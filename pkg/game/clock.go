package game

import (
	"fmt"
	"time"
)

// Clock is a two-sided countdown. It never runs on its own: the driver
// advances it once per loop iteration with Advance.
type Clock struct {
	Duration  time.Duration
	Increment time.Duration
	remaining [2]time.Duration
	active    Color
	paused    bool
}

func NewClock(duration, increment time.Duration) *Clock {
	cl := &Clock{
		Duration:  duration,
		Increment: increment,
		paused:    true,
	}
	cl.Reset()
	return cl
}

func (cl *Clock) Reset() {
	cl.remaining = [2]time.Duration{cl.Duration, cl.Duration}
	cl.active = White
	cl.paused = true
}

// Advance charges elapsed to the side whose clock is running.
func (cl *Clock) Advance(elapsed time.Duration) {
	if cl.paused || elapsed <= 0 {
		return
	}
	cl.remaining[cl.active] -= elapsed
	if cl.remaining[cl.active] < 0 {
		cl.remaining[cl.active] = 0
	}
}

// Press is called after the running side has moved: it adds the increment
// and hands the clock to the opponent.
func (cl *Clock) Press() {
	if !cl.paused {
		cl.remaining[cl.active] += cl.Increment
	}
	cl.active = cl.active.Opposite()
	cl.paused = false
}

func (cl *Clock) Pause()        { cl.paused = true }
func (cl *Clock) Paused() bool  { return cl.paused }
func (cl *Clock) Active() Color { return cl.active }

func (cl *Clock) Remaining(c Color) time.Duration {
	return cl.remaining[c]
}

// Expired reports the first side found with no time left.
func (cl *Clock) Expired() (Color, bool) {
	for _, c := range [...]Color{White, Black} {
		if cl.remaining[c] <= 0 {
			return c, true
		}
	}
	return 0, false
}

func (cl *Clock) Format(c Color) string {
	r := cl.remaining[c]
	return fmt.Sprintf("%d:%02d", int(r.Minutes()), int(r.Seconds())%60)
}
