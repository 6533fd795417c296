package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame, in execution order.
const (
	PhaseForces    = "forces"
	PhaseIntegrate = "integrate"
	PhaseProject   = "project"
	PhaseSplat     = "splat"
	PhaseTrailStep = "trail_step"
	PhaseHandles   = "handles"
)

// Phases lists every frame phase in execution order.
var Phases = []string{
	PhaseForces, PhaseIntegrate, PhaseProject,
	PhaseSplat, PhaseTrailStep, PhaseHandles,
}

const numPhases = 6

var phaseIndex = func() map[string]int {
	m := make(map[string]int, len(Phases))
	for i, p := range Phases {
		m[p] = i
	}
	return m
}()

type frameSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector tracks per-phase frame timing over a rolling window.
// A nil *PerfCollector is valid and records nothing.
type PerfCollector struct {
	samples []frameSample
	next    int
	count   int

	current    frameSample
	frameStart time.Time
	phaseStart time.Time
	phase      int // index into Phases, -1 when no phase is open

	// Wall-clock pacing between presented frames
	lastPresent time.Time
	present     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]frameSample, windowSize),
		phase:   -1,
	}
}

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.frameStart = time.Now()
	p.current = frameSample{}
	p.phase = -1
}

// StartPhase closes the open phase and starts timing the named one.
// Names outside Phases close the open phase without starting a new one.
func (p *PerfCollector) StartPhase(name string) {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	if i, ok := phaseIndex[name]; ok {
		p.phase = i
		p.phaseStart = now
	}
}

// EndTick closes the frame and stores it in the window.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.frameStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.phase = -1
	}
}

// RecordFrame records wall-clock pacing between presented frames.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.present = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds aggregated timing over the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // Share of the average frame, 0-100

	TicksPerSecond float64 // Simulation throughput if frames ran back to back

	FrameDuration time.Duration // Last presented frame interval
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration, numPhases),
		PhasePct: make(map[string]float64, numPhases),
	}
	if p == nil {
		return s
	}

	s.FrameDuration = p.present
	if p.present > 0 {
		s.FPS = float64(time.Second) / float64(p.present)
	}
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	for i := 0; i < p.count; i++ {
		f := p.samples[i]
		total += f.total
		if i == 0 || f.total < s.MinTickDuration {
			s.MinTickDuration = f.total
		}
		if f.total > s.MaxTickDuration {
			s.MaxTickDuration = f.total
		}
		for j, d := range f.phases {
			phaseSum[j] += d
		}
	}

	n := time.Duration(p.count)
	s.AvgTickDuration = total / n
	for j, name := range Phases {
		avg := phaseSum[j] / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	ForcesPct    float64 `csv:"forces_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	ProjectPct   float64 `csv:"project_pct"`
	SplatPct     float64 `csv:"splat_pct"`
	TrailStepPct float64 `csv:"trail_step_pct"`
	HandlesPct   float64 `csv:"handles_pct"`
}

// ToCSV flattens the stats for a frame-numbered CSV row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		ForcesPct:    s.PhasePct[PhaseForces],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		ProjectPct:   s.PhasePct[PhaseProject],
		SplatPct:     s.PhasePct[PhaseSplat],
		TrailStepPct: s.PhasePct[PhaseTrailStep],
		HandlesPct:   s.PhasePct[PhaseHandles],
	}
}
