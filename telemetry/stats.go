package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats summarises the frames of one stats window.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	Frames int     `csv:"frames"`
	MeanDT float64 `csv:"mean_dt"`

	// Trail injection
	Splats         int     `csv:"splats"`
	SplatsPerFrame float64 `csv:"splats_per_frame"`
	Skipped        int     `csv:"skipped"` // Node projections rejected
	DragFrames     int     `csv:"drag_frames"`

	// Kinetic energy distribution over the window's frames
	EnergyMean float64 `csv:"ke_mean"`
	EnergyP10  float64 `csv:"ke_p10"`
	EnergyP50  float64 `csv:"ke_p50"`
	EnergyP90  float64 `csv:"ke_p90"`

	// Sampled at window end
	MaxSpeed    float64 `csv:"max_speed"`
	MeanRadius  float64 `csv:"mean_radius"`
	TrailEnergy float64 `csv:"trail_energy"` // 0 when the field lives on the GPU
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// Distribution returns the mean and the 10th/50th/90th percentiles of values.
// values is not modified.
func Distribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(n), Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Float64("mean_dt", s.MeanDT),
		slog.Int("splats", s.Splats),
		slog.Float64("splats_per_frame", s.SplatsPerFrame),
		slog.Int("skipped", s.Skipped),
		slog.Int("drag_frames", s.DragFrames),
		slog.Float64("ke_mean", s.EnergyMean),
		slog.Float64("ke_p10", s.EnergyP10),
		slog.Float64("ke_p50", s.EnergyP50),
		slog.Float64("ke_p90", s.EnergyP90),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("mean_radius", s.MeanRadius),
		slog.Float64("trail_energy", s.TrailEnergy),
	)
}
