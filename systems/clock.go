package systems

import "time"

// FrameClock turns monotonic frame timestamps into a usable dt.
type FrameClock struct {
	NominalDT float64 // Seconds, used when no valid previous timestamp exists
	MaxDT     float64 // Seconds, upper clamp for hiccups

	last    time.Duration
	started bool
}

// NewFrameClock creates a clock with the given bounds in seconds.
func NewFrameClock(nominalDT, maxDT float64) *FrameClock {
	return &FrameClock{NominalDT: nominalDT, MaxDT: maxDT}
}

// Tick records now and returns the elapsed seconds since the previous tick.
// The first tick and non-positive deltas return NominalDT.
func (c *FrameClock) Tick(now time.Duration) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return c.NominalDT
	}

	dt := (now - c.last).Seconds()
	c.last = now
	if dt <= 0 {
		return c.NominalDT
	}
	if c.MaxDT > 0 && dt > c.MaxDT {
		return c.MaxDT
	}
	return dt
}

// Reset forgets the previous timestamp, e.g. after a pause.
func (c *FrameClock) Reset() {
	c.started = false
	c.last = 0
}
