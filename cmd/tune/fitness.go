package main

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
	"github.com/pthm-cable/trails/trail"
)

// Score component weights.
const (
	weightRadius   = 0.5
	weightCoverage = 0.3
	weightActivity = 0.2

	warmupWindows     = 2    // skip first N windows while the cloud settles
	coverageThreshold = 0.05 // channel value counted as lit
	coverageWidth     = 0.1  // tolerance around the coverage target
)

// Targets describes the look the search steers toward.
type Targets struct {
	Radius   float64 // Mean node distance from the origin
	Coverage float64 // Share of lit texels at the end of a run
}

// runResult holds the results from a single simulation run.
type runResult struct {
	windows  []telemetry.WindowStats
	coverage float64
	nodes    int
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	frames      int64
	seeds       []int64
	baseConfig  *config.Config
	targets     Targets
	statsWindow float64
	trailWidth  int // Field width for runs; height follows the screen aspect

	mu          sync.Mutex
	lastQuality float64
	lastRadius  float64
	lastCover   float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int64, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		frames:      frames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		targets:     targets,
		statsWindow: 2.0,
		trailWidth:  128,
	}
}

// SetTrailWidth sets the trail field width used by runs. Coverage is a
// ratio, so a coarse field scores like the full-resolution one.
func (fe *FitnessEvaluator) SetTrailWidth(w int) {
	if w > 0 {
		fe.trailWidth = w
	}
}

// fieldSize returns the run's trail resolution.
func (fe *FitnessEvaluator) fieldSize(cfg *config.Config) (int, int) {
	w := fe.trailWidth
	h := max(1, w*cfg.Screen.Height/cfg.Screen.Width)
	return w, h
}

// LastQuality returns the quality, mean radius and coverage from the most
// recent evaluation, averaged over seeds.
func (fe *FitnessEvaluator) LastQuality() (quality, radius, coverage float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality, fe.lastRadius, fe.lastCover
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated quality averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Seeds run in parallel; each run owns its own simulation
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var quality, radius, cover float64
	for _, r := range results {
		quality += fe.computeQuality(r)
		radius += meanRadius(r.windows)
		cover += r.coverage
	}
	n := float64(len(results))

	fe.mu.Lock()
	fe.lastQuality = quality / n
	fe.lastRadius = radius / n
	fe.lastCover = cover / n
	fe.mu.Unlock()

	return -quality / n
}

// runSimulation executes one headless run with the CPU trail field.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{nodes: cfg.Nodes.Count}

	cam := camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32, cfg.Camera.Distance, cfg.Camera.FovY)
	opts := sim.OptionsFromConfig(cfg)
	w, h := fe.fieldSize(cfg)
	field, err := trail.NewCPUField(w, h, cfg.Trail.MaxPixels, opts.Trail)
	if err != nil {
		return result
	}
	orch := sim.New(opts, cam, field, rand.New(rand.NewSource(seed)))
	collector := telemetry.NewCollector(fe.statsWindow)

	for orch.FrameCount() < fe.frames {
		sample := orch.Tick(cfg.Physics.NominalDT).Sample()
		sample.TrailEnergy = field.Energy()
		collector.Record(sample)
		if collector.ShouldFlush() {
			result.windows = append(result.windows, collector.Flush())
		}
	}

	result.coverage = field.Coverage(coverageThreshold)
	return result
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeQuality scores a run in [0, 1].
func (fe *FitnessEvaluator) computeQuality(r *runResult) float64 {
	if len(r.windows) <= warmupWindows {
		return 0
	}
	valid := r.windows[warmupWindows:]

	// 1. Settled radius, relative error per window
	var radiusSum, activitySum float64
	for _, w := range valid {
		if math.IsNaN(w.MeanRadius) || math.IsInf(w.MeanRadius, 0) {
			return 0
		}
		relErr := (w.MeanRadius - fe.targets.Radius) / fe.targets.Radius
		radiusSum += math.Exp(-relErr * relErr)

		// 3. Trail activity: a share of nodes should keep splatting
		if r.nodes > 0 {
			activitySum += 1 - math.Exp(-w.SplatsPerFrame/(0.25*float64(r.nodes)))
		}
	}
	n := float64(len(valid))
	radiusScore := radiusSum / n
	activityScore := activitySum / n

	// 2. Field coverage at the end of the run
	covErr := (r.coverage - fe.targets.Coverage) / coverageWidth
	coverageScore := math.Exp(-covErr * covErr)

	quality := weightRadius*radiusScore +
		weightCoverage*coverageScore +
		weightActivity*activityScore
	return clamp01(quality)
}

// meanRadius averages the mean node radius over post-warmup windows.
func meanRadius(windows []telemetry.WindowStats) float64 {
	if len(windows) <= warmupWindows {
		return 0
	}
	var sum float64
	for _, w := range windows[warmupWindows:] {
		sum += w.MeanRadius
	}
	return sum / float64(len(windows)-warmupWindows)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
