package telemetry

import (
	"log/slog"
	"testing"
	"time"
)

func TestPerfCollector_PhaseTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseForces)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseTrailStep)
		time.Sleep(400 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Fatal("expected positive average frame duration")
	}
	if stats.PhaseAvg[PhaseForces] <= 0 || stats.PhaseAvg[PhaseTrailStep] <= 0 {
		t.Errorf("expected both phases timed, got %v", stats.PhaseAvg)
	}
	if stats.PhasePct[PhaseTrailStep] <= stats.PhasePct[PhaseForces] {
		t.Errorf("expected trail_step (%v%%) > forces (%v%%)", stats.PhasePct[PhaseTrailStep], stats.PhasePct[PhaseForces])
	}
	if stats.PhaseAvg[PhaseSplat] != 0 {
		t.Errorf("expected untouched phase to stay zero, got %v", stats.PhaseAvg[PhaseSplat])
	}
}

func TestPerfCollector_UnknownPhaseClosesOpenPhase(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartTick()
	pc.StartPhase(PhaseForces)
	time.Sleep(50 * time.Microsecond)
	pc.StartPhase("render")
	time.Sleep(2 * time.Millisecond)
	pc.EndTick()

	stats := pc.Stats()
	if stats.PhaseAvg[PhaseForces] >= 2*time.Millisecond {
		t.Errorf("expected forces to stop at the unknown phase, got %v", stats.PhaseAvg[PhaseForces])
	}
	if _, ok := stats.PhaseAvg["render"]; ok {
		t.Error("expected unknown phase to be ignored")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average after wrapping")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive throughput")
	}
	if stats.MinTickDuration > stats.MaxTickDuration {
		t.Errorf("min %v exceeds max %v", stats.MinTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_Empty(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero average for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil maps")
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhaseForces)
	pc.EndTick()
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 || stats.PhasePct == nil {
		t.Errorf("unexpected stats from nil collector: %+v", stats)
	}
}

func TestPerfCollector_FramePacing(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70], got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct: map[string]float64{
			PhaseForces: 40,
			PhaseSplat:  25,
		},
	}

	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 2000 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.ForcesPct != 40 || row.SplatPct != 25 || row.HandlesPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}

func TestPerfStats_LogValue(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: time.Millisecond,
		FPS:             60,
		PhasePct:        map[string]float64{PhaseForces: 55.55},
	}

	v := s.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("expected group value, got %v", v.Kind())
	}
	found := map[string]bool{}
	for _, a := range v.Group() {
		found[a.Key] = true
	}
	for _, key := range []string{"avg_tick_us", "fps", "forces_pct"} {
		if !found[key] {
			t.Errorf("missing attribute %q", key)
		}
	}
	if found["splat_pct"] {
		t.Error("expected negligible phases to be omitted")
	}
}
