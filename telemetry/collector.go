package telemetry

// FrameSample is what one orchestrated frame reports to telemetry.
type FrameSample struct {
	Frame         int64
	DT            float64
	Splats        int
	Skipped       int
	Dragged       bool
	KineticEnergy float64
	MaxSpeed      float64
	MeanRadius    float64
	TrailEnergy   float64
}

// Collector accumulates frame samples into fixed-length windows of simulated time.
type Collector struct {
	windowSec float64

	simTime          float64
	windowElapsed    float64
	windowStartFrame int64

	frames     int
	dtSum      float64
	splats     int
	skipped    int
	dragFrames int
	energies   []float64
	last       FrameSample
}

// NewCollector creates a collector that flushes every windowSec simulated seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// Record adds one frame to the current window.
func (c *Collector) Record(s FrameSample) {
	if c.frames == 0 {
		c.windowStartFrame = s.Frame
	}
	c.frames++
	c.dtSum += s.DT
	c.simTime += s.DT
	c.windowElapsed += s.DT
	c.splats += s.Splats
	c.skipped += s.Skipped
	if s.Dragged {
		c.dragFrames++
	}
	c.energies = append(c.energies, s.KineticEnergy)
	c.last = s
}

// ShouldFlush reports whether the window has covered its duration.
func (c *Collector) ShouldFlush() bool {
	return c.frames > 0 && c.windowElapsed >= c.windowSec
}

// SimTime returns the total simulated seconds recorded.
func (c *Collector) SimTime() float64 {
	return c.simTime
}

// Flush produces the window's stats and starts a new window.
func (c *Collector) Flush() WindowStats {
	mean, p10, p50, p90 := Distribution(c.energies)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   c.last.Frame,
		SimTimeSec:       c.simTime,
		Frames:           c.frames,
		Splats:           c.splats,
		Skipped:          c.skipped,
		DragFrames:       c.dragFrames,
		EnergyMean:       mean,
		EnergyP10:        p10,
		EnergyP50:        p50,
		EnergyP90:        p90,
		MaxSpeed:         c.last.MaxSpeed,
		MeanRadius:       c.last.MeanRadius,
		TrailEnergy:      c.last.TrailEnergy,
	}
	if c.frames > 0 {
		stats.MeanDT = c.dtSum / float64(c.frames)
		stats.SplatsPerFrame = float64(c.splats) / float64(c.frames)
	}

	c.windowElapsed = 0
	c.frames = 0
	c.dtSum = 0
	c.splats = 0
	c.skipped = 0
	c.dragFrames = 0
	c.energies = c.energies[:0]

	return stats
}
