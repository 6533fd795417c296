package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/telemetry"
)

func testEvaluator(t *testing.T) *FitnessEvaluator {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), 600, []int64{1, 2}, cfg, Targets{Radius: 10, Coverage: 0.2})
	fe.SetTrailWidth(32)
	return fe
}

func TestComputeQualityPerfectRun(t *testing.T) {
	fe := testEvaluator(t)

	windows := make([]telemetry.WindowStats, warmupWindows+3)
	for i := range windows {
		windows[i] = telemetry.WindowStats{MeanRadius: 10, SplatsPerFrame: 100}
	}
	q := fe.computeQuality(&runResult{windows: windows, coverage: 0.2, nodes: 20})

	if math.Abs(q-1) > 1e-6 {
		t.Errorf("expected quality ~1 for on-target run, got %f", q)
	}
}

func TestComputeQualityPenalisesDrift(t *testing.T) {
	fe := testEvaluator(t)

	mk := func(radius, cover float64) float64 {
		windows := make([]telemetry.WindowStats, warmupWindows+2)
		for i := range windows {
			windows[i] = telemetry.WindowStats{MeanRadius: radius, SplatsPerFrame: 5}
		}
		return fe.computeQuality(&runResult{windows: windows, coverage: cover, nodes: 20})
	}

	onTarget := mk(10, 0.2)
	if far := mk(40, 0.2); far >= onTarget {
		t.Errorf("radius drift not penalised: %f >= %f", far, onTarget)
	}
	if dark := mk(10, 0); dark >= onTarget {
		t.Errorf("coverage miss not penalised: %f >= %f", dark, onTarget)
	}
	if nan := mk(math.NaN(), 0.2); nan != 0 {
		t.Errorf("expected zero quality for non-finite radius, got %f", nan)
	}
}

func TestComputeQualityNeedsWindowsPastWarmup(t *testing.T) {
	fe := testEvaluator(t)
	windows := make([]telemetry.WindowStats, warmupWindows)
	if q := fe.computeQuality(&runResult{windows: windows, coverage: 0.2, nodes: 20}); q != 0 {
		t.Errorf("expected 0 quality before warmup completes, got %f", q)
	}
}

func TestRunSimulationProducesWindows(t *testing.T) {
	fe := testEvaluator(t)
	cfg := fe.copyConfig()

	r := fe.runSimulation(cfg, 7)
	if len(r.windows) < warmupWindows+1 {
		t.Fatalf("expected at least %d windows from 600 frames, got %d", warmupWindows+1, len(r.windows))
	}
	for i, w := range r.windows {
		if w.Frames == 0 || math.IsNaN(w.MeanRadius) {
			t.Errorf("window %d malformed: %+v", i, w)
		}
	}
	if r.coverage < 0 || r.coverage > 1 {
		t.Errorf("coverage out of range: %f", r.coverage)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	fe := testEvaluator(t)
	x := fe.params.DefaultVector()

	a := fe.Evaluate(x)
	b := fe.Evaluate(x)
	if a != b {
		t.Errorf("same parameters and seeds gave %f then %f", a, b)
	}
	if a > 0 || a < -1 {
		t.Errorf("fitness %f outside [-1, 0]", a)
	}
}

func TestCopyConfigIsIndependent(t *testing.T) {
	fe := testEvaluator(t)
	cfg := fe.copyConfig()
	cfg.Physics.Repulsion = 999
	if fe.baseConfig.Physics.Repulsion == 999 {
		t.Error("copyConfig shares state with the base config")
	}
}
