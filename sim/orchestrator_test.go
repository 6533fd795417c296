package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/systems"
	"github.com/pthm-cable/trails/telemetry"
	"github.com/pthm-cable/trails/trail"
)

// flatProjector maps world XY/10 straight to NDC and rejects points with Z above maxZ.
type flatProjector struct {
	maxZ    float64
	resized [2]float32
}

func (p *flatProjector) WorldToScreen(v r3.Vec) (float64, float64, bool) {
	if v.Z > p.maxZ {
		return 0, 0, false
	}
	return v.X / 10, v.Y / 10, true
}

func (p *flatProjector) ScreenRay(x, y float64) camera.Ray {
	return camera.Ray{Origin: r3.Vec{X: x * 10, Y: y * 10, Z: 50}, Dir: r3.Vec{Z: -1}}
}

func (p *flatProjector) Forward() r3.Vec { return r3.Vec{Z: -1} }

func (p *flatProjector) Resize(w, h float32) { p.resized = [2]float32{w, h} }

// recordingField logs every call in order.
type recordingField struct {
	calls     []string
	splats    []trail.Splat
	params    trail.Params
	w, h      int
	resizeErr error
}

func (f *recordingField) Splat(s trail.Splat) {
	f.calls = append(f.calls, "splat")
	f.splats = append(f.splats, s)
}

func (f *recordingField) Step(dt float64) {
	if dt > 0 {
		f.calls = append(f.calls, "step")
	}
}

func (f *recordingField) Resize(w, h int) error {
	if f.resizeErr != nil {
		return f.resizeErr
	}
	f.w, f.h = w, h
	return nil
}

func (f *recordingField) Clear()                   { f.calls = append(f.calls, "clear") }
func (f *recordingField) Size() (int, int)         { return f.w, f.h }
func (f *recordingField) SetParams(p trail.Params) { f.params = p }

func testOptions(count int) Options {
	return Options{
		Spawn: systems.SpawnParams{
			Count: count, MassMin: 1, MassMax: 1, ChargeMin: 1, ChargeMax: 1,
			Spread: 10, VelocitySpread: 0,
		},
		Forces:     systems.ForceField{Repulsion: 0, Centering: 0, Epsilon: 1e-6},
		Integrator: systems.Integrator{DragFactor: 1},
		NominalDT:  1.0 / 60,
		MaxDT:      1.0 / 30,
		NodeRadius: 0.5,
		Trail:      trail.DefaultParams(),
		Threshold:  0.02,
	}
}

func newTestOrchestrator(t *testing.T, count int) (*Orchestrator, *flatProjector, *recordingField) {
	t.Helper()
	proj := &flatProjector{maxZ: 40}
	field := &recordingField{w: 8, h: 8}
	o := New(testOptions(count), proj, field, rand.New(rand.NewSource(1)))
	return o, proj, field
}

func place(o *Orchestrator, i int, pos, vel r3.Vec) {
	n := &o.Nodes()[i]
	n.Position = pos
	n.Velocity = vel
	n.HasPrevScreen = false
}

func TestStationaryNodeDoesNotSplat(t *testing.T) {
	o, _, field := newTestOrchestrator(t, 1)
	place(o, 0, r3.Vec{}, r3.Vec{})

	for i := 0; i < 10; i++ {
		res := o.Tick(1.0 / 60)
		if res.Splats != 0 {
			t.Fatalf("frame %d: expected no splats, got %d", i, res.Splats)
		}
	}
	if len(field.splats) != 0 {
		t.Errorf("expected no field splats, got %d", len(field.splats))
	}
}

func TestMovingNodeSplatsBeforeStep(t *testing.T) {
	o, _, field := newTestOrchestrator(t, 1)
	place(o, 0, r3.Vec{}, r3.Vec{X: 10})

	first := o.Tick(1.0 / 60)
	if first.Splats != 0 {
		t.Errorf("expected no splat without a previous sample, got %d", first.Splats)
	}
	second := o.Tick(1.0 / 60)
	if second.Splats != 1 {
		t.Fatalf("expected 1 splat, got %d", second.Splats)
	}

	want := []string{"step", "splat", "step"}
	if len(field.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, field.calls)
	}
	for i := range want {
		if field.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, field.calls)
		}
	}

	// 10 world units/s → 1 NDC/s → 0.5 UV/s
	s := field.splats[0]
	if math.Abs(s.Velocity.X-0.5) > 1e-9 || math.Abs(s.Velocity.Y) > 1e-9 {
		t.Errorf("expected UV velocity (0.5, 0), got %v", s.Velocity)
	}
	if s.Position.X <= 0.5 {
		t.Errorf("expected splat right of center, got %v", s.Position)
	}
}

func TestSlowNodeBelowThreshold(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 1)
	// 0.2 world/s → 0.01 UV/s, under the 0.02 threshold
	place(o, 0, r3.Vec{}, r3.Vec{X: 0.2})

	o.Tick(1.0 / 60)
	if res := o.Tick(1.0 / 60); res.Splats != 0 {
		t.Errorf("expected slow node not to splat, got %d", res.Splats)
	}
}

func TestRejectedProjectionSkipsAndReenters(t *testing.T) {
	o, proj, field := newTestOrchestrator(t, 1)
	place(o, 0, r3.Vec{Z: 100}, r3.Vec{X: 10})

	res := o.Tick(1.0 / 60)
	if res.Skipped != 1 || res.Splats != 0 {
		t.Fatalf("expected 1 skipped and no splats, got %+v", res)
	}
	if o.Nodes()[0].HasPrevScreen {
		t.Error("expected previous sample cleared")
	}

	// Back in front of the camera far from where it left: no velocity spike
	proj.maxZ = 200
	o.Nodes()[0].Position = r3.Vec{X: -30}
	if res := o.Tick(1.0 / 60); res.Splats != 0 || res.Skipped != 0 {
		t.Errorf("expected silent re-entry, got %+v", res)
	}
	if res := o.Tick(1.0 / 60); res.Splats != 1 {
		t.Errorf("expected splat once tracking resumed, got %+v", res)
	}
	if len(field.splats) != 1 {
		t.Errorf("expected one field splat, got %d", len(field.splats))
	}
}

func TestDraggedNodeExcludedFromFrame(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 2)
	o.forces.Repulsion = 50
	place(o, 0, r3.Vec{}, r3.Vec{})
	place(o, 1, r3.Vec{X: 2}, r3.Vec{})

	if !o.HandlePointer(systems.PointerEvent{Kind: systems.PointerDown, X: 0, Y: 0}) {
		t.Fatal("expected pick of node 0")
	}

	res := o.Tick(1.0 / 60)
	if res.Dragged != 0 {
		t.Errorf("expected node 0 dragged, got %d", res.Dragged)
	}
	if o.Nodes()[0].Position != (r3.Vec{}) {
		t.Errorf("dragged node moved: %v", o.Nodes()[0].Position)
	}
	if o.Nodes()[1].Velocity != (r3.Vec{}) {
		t.Errorf("free node felt the dragged node: %v", o.Nodes()[1].Velocity)
	}

	e, ok := o.Handles().Entity(0)
	if !ok {
		t.Fatal("missing handle for node 0")
	}
	if ref := o.Handles().refMap.Get(e); !ref.Dragged {
		t.Error("expected handle flagged as dragged")
	}

	// After release node 0 rejoins the pairwise loop
	o.HandlePointer(systems.PointerEvent{Kind: systems.PointerUp})
	o.Tick(1.0 / 60)
	if o.Nodes()[1].Velocity.X <= 0 {
		t.Errorf("expected node 1 pushed after release, got %v", o.Nodes()[1].Velocity)
	}
	if o.Nodes()[0].Velocity.X >= 0 {
		t.Errorf("expected node 0 pushed after release, got %v", o.Nodes()[0].Velocity)
	}
}

func TestHandlesFollowNodes(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 3)
	place(o, 2, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{})

	o.Tick(1.0 / 60)

	xf, ok := o.Handles().Transform(2)
	if !ok {
		t.Fatal("missing transform")
	}
	if xf.X != 1 || xf.Y != 2 || xf.Z != 3 {
		t.Errorf("expected synced transform (1,2,3), got %+v", xf)
	}
	if o.Handles().Len() != 3 {
		t.Errorf("expected 3 handles, got %d", o.Handles().Len())
	}

	count := 0
	o.Handles().Each(func(ref components.NodeRef, _ components.Transform, _ components.Tint, s components.Sphere) {
		count++
		if s.Radius != 0.5 {
			t.Errorf("node %d: expected radius 0.5, got %v", ref.ID, s.Radius)
		}
	})
	if count != 3 {
		t.Errorf("expected to visit 3 handles, got %d", count)
	}
}

func TestFrameUsesClock(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 1)

	if res := o.Frame(time.Second); res.DT != 1.0/60 {
		t.Errorf("first frame: expected nominal dt, got %v", res.DT)
	}
	if res := o.Frame(time.Second + 10*time.Millisecond); math.Abs(res.DT-0.01) > 1e-12 {
		t.Errorf("expected 0.01, got %v", res.DT)
	}
	if res := o.Frame(5 * time.Second); res.DT != 1.0/30 {
		t.Errorf("expected clamped dt, got %v", res.DT)
	}
	if o.FrameCount() != 3 {
		t.Errorf("expected 3 frames, got %d", o.FrameCount())
	}
}

func TestZeroDTFrame(t *testing.T) {
	o, _, field := newTestOrchestrator(t, 1)
	place(o, 0, r3.Vec{}, r3.Vec{X: 10})
	o.Tick(1.0 / 60)
	field.calls = nil

	res := o.Tick(0)
	if res.Splats != 0 || len(field.calls) != 0 {
		t.Errorf("expected no trail work at dt=0, got %+v calls=%v", res, field.calls)
	}
}

func TestResizeFailureKeepsField(t *testing.T) {
	o, proj, field := newTestOrchestrator(t, 1)
	field.resizeErr = trail.ErrAllocation

	err := o.Resize(1920, 1080, 1<<20, 1<<20)
	if !errors.Is(err, trail.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if w, h := field.Size(); w != 8 || h != 8 {
		t.Errorf("expected previous 8x8 kept, got %dx%d", w, h)
	}
	if proj.resized != [2]float32{1920, 1080} {
		t.Errorf("expected projector resized, got %v", proj.resized)
	}

	field.resizeErr = nil
	if err := o.Resize(800, 600, 400, 300); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := field.Size(); w != 400 || h != 300 {
		t.Errorf("expected 400x300, got %dx%d", w, h)
	}
}

func TestResizeCancelsDrag(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 1)
	place(o, 0, r3.Vec{}, r3.Vec{})
	o.HandlePointer(systems.PointerEvent{Kind: systems.PointerDown})

	if err := o.Resize(640, 480, 32, 24); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if o.Dragged() != systems.NoNode {
		t.Error("expected drag cancelled by resize")
	}
}

func TestTuning(t *testing.T) {
	o, _, field := newTestOrchestrator(t, 1)

	want := Tuning{
		Repulsion:  12,
		Centering:  0.3,
		DragFactor: 0.9,
		Trail:      trail.Params{Decay: 0.8, Radius: 50, Intensity: 0.4},
		Threshold:  0.1,
	}
	o.SetTuning(want)

	if got := o.Tuning(); got != want {
		t.Errorf("Tuning() = %+v, want %+v", got, want)
	}
	if field.params != want.Trail {
		t.Errorf("field params = %+v, want %+v", field.params, want.Trail)
	}
}

func TestRespawn(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 4)
	place(o, 0, r3.Vec{}, r3.Vec{})
	o.HandlePointer(systems.PointerEvent{Kind: systems.PointerDown})
	before := o.Nodes()[1].Position

	o.Respawn(rand.New(rand.NewSource(99)))

	if o.Dragged() != systems.NoNode {
		t.Error("expected drag cancelled")
	}
	if len(o.Nodes()) != 4 || o.Handles().Len() != 4 {
		t.Errorf("expected 4 nodes and handles, got %d/%d", len(o.Nodes()), o.Handles().Len())
	}
	if o.Nodes()[1].Position == before {
		t.Error("expected new positions")
	}
}

func TestOrchestratorWithCPUField(t *testing.T) {
	field, err := trail.NewCPUField(64, 64, 0, trail.DefaultParams())
	if err != nil {
		t.Fatalf("NewCPUField: %v", err)
	}
	o := New(testOptions(1), &flatProjector{maxZ: 40}, field, rand.New(rand.NewSource(5)))
	place(o, 0, r3.Vec{X: -5}, r3.Vec{X: 10})

	pc := telemetry.NewPerfCollector(8)
	o.SetPerf(pc)

	for i := 0; i < 30; i++ {
		o.Tick(1.0 / 60)
	}
	if field.Energy() <= 0 {
		t.Error("expected moving node to paint the field")
	}
	if pc.Stats().AvgTickDuration <= 0 {
		t.Error("expected frames timed by the perf collector")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	opts := OptionsFromConfig(cfg)

	if opts.Spawn.Count != cfg.Nodes.Count || opts.Forces.Repulsion != cfg.Physics.Repulsion {
		t.Errorf("options not copied from config: %+v", opts)
	}
	if opts.Trail.Decay != cfg.Trail.Decay || opts.Threshold != cfg.Trail.Threshold {
		t.Errorf("trail options not copied: %+v", opts.Trail)
	}
}

func TestFrameResultSample(t *testing.T) {
	r := FrameResult{Frame: 9, DT: 0.01, Splats: 2, Dragged: systems.NoNode, MaxSpeed: 3}
	s := r.Sample()
	if s.Frame != 9 || s.Splats != 2 || s.Dragged || s.MaxSpeed != 3 {
		t.Errorf("unexpected sample: %+v", s)
	}
}
