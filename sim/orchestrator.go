// Package sim runs one frame of the node simulation: forces, integration,
// trail injection, trail fade and render-handle sync, in that order.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/systems"
	"github.com/pthm-cable/trails/telemetry"
	"github.com/pthm-cable/trails/trail"
)

// Projector maps world positions to NDC and casts pointer rays.
type Projector interface {
	systems.Picker
	WorldToScreen(p r3.Vec) (x, y float64, ok bool)
	Resize(w, h float32)
}

// Options configures an Orchestrator.
type Options struct {
	Spawn      systems.SpawnParams
	Forces     systems.ForceField
	Integrator systems.Integrator
	NominalDT  float64
	MaxDT      float64
	NodeRadius float64 // Pick and render radius
	Trail      trail.Params
	Threshold  float64 // Minimum field-space speed (UV/s) for a splat
}

// OptionsFromConfig builds Options from a loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Spawn: systems.SpawnParams{
			Count:          cfg.Nodes.Count,
			MassMin:        cfg.Nodes.MassMin,
			MassMax:        cfg.Nodes.MassMax,
			ChargeMin:      cfg.Nodes.ChargeMin,
			ChargeMax:      cfg.Nodes.ChargeMax,
			Spread:         cfg.Nodes.Spread,
			VelocitySpread: cfg.Nodes.VelocitySpread,
		},
		Forces: systems.ForceField{
			Repulsion: cfg.Physics.Repulsion,
			Centering: cfg.Physics.Centering,
			Epsilon:   cfg.Physics.Epsilon,
		},
		Integrator: systems.Integrator{DragFactor: cfg.Physics.DragFactor},
		NominalDT:  cfg.Physics.NominalDT,
		MaxDT:      cfg.Physics.MaxDT,
		NodeRadius: cfg.Nodes.Radius,
		Trail: trail.Params{
			Decay:     cfg.Trail.Decay,
			Radius:    cfg.Trail.Radius,
			Intensity: cfg.Trail.Intensity,
		},
		Threshold: cfg.Trail.Threshold,
	}
}

// Tuning is the set of parameters that can change while running.
type Tuning struct {
	Repulsion  float64
	Centering  float64
	DragFactor float64
	Trail      trail.Params
	Threshold  float64
}

// FrameResult describes one completed frame.
type FrameResult struct {
	Frame         int64
	DT            float64
	Splats        int
	Skipped       int // Nodes whose projection was rejected
	Dragged       int // Node index or systems.NoNode
	KineticEnergy float64
	MaxSpeed      float64
	MeanRadius    float64
}

// Sample converts the result for the telemetry collector.
func (r FrameResult) Sample() telemetry.FrameSample {
	return telemetry.FrameSample{
		Frame:         r.Frame,
		DT:            r.DT,
		Splats:        r.Splats,
		Skipped:       r.Skipped,
		Dragged:       r.Dragged != systems.NoNode,
		KineticEnergy: r.KineticEnergy,
		MaxSpeed:      r.MaxSpeed,
		MeanRadius:    r.MeanRadius,
	}
}

// Orchestrator owns the simulation state and runs frames.
// All methods must be called from the goroutine that drives frames.
type Orchestrator struct {
	opts       Options
	nodes      []systems.Node
	acc        []r3.Vec
	forces     systems.ForceField
	integrator systems.Integrator
	clock      *systems.FrameClock
	drag       *systems.DragController
	field      trail.Field
	projector  Projector
	handles    *Handles
	perf       *telemetry.PerfCollector

	trailParams trail.Params
	threshold   float64
	frame       int64
	pending     []trail.Splat
}

// New spawns the population and wires it to the projector and trail field.
func New(opts Options, projector Projector, field trail.Field, rng *rand.Rand) *Orchestrator {
	nodes := systems.SpawnNodes(opts.Spawn, rng)
	field.SetParams(opts.Trail)

	return &Orchestrator{
		opts:        opts,
		nodes:       nodes,
		acc:         make([]r3.Vec, len(nodes)),
		forces:      opts.Forces,
		integrator:  opts.Integrator,
		clock:       systems.NewFrameClock(opts.NominalDT, opts.MaxDT),
		drag:        systems.NewDragController(projector, opts.NodeRadius),
		field:       field,
		projector:   projector,
		handles:     NewHandles(nodes, float32(opts.NodeRadius)),
		trailParams: opts.Trail,
		threshold:   opts.Threshold,
	}
}

// SetPerf attaches a per-phase timing collector. nil disables timing.
func (o *Orchestrator) SetPerf(p *telemetry.PerfCollector) {
	o.perf = p
}

// HandlePointer applies a pointer event and reports whether drag state changed.
func (o *Orchestrator) HandlePointer(ev systems.PointerEvent) bool {
	return o.drag.Handle(ev, o.nodes)
}

// Frame runs one frame stamped with a monotonic timestamp.
func (o *Orchestrator) Frame(now time.Duration) FrameResult {
	return o.Tick(o.clock.Tick(now))
}

// Tick runs one frame with an explicit timestep.
func (o *Orchestrator) Tick(dt float64) FrameResult {
	o.perf.StartTick()
	defer o.perf.EndTick()

	dragged := o.drag.Dragged()
	res := FrameResult{Frame: o.frame, DT: dt, Dragged: dragged}

	o.perf.StartPhase(telemetry.PhaseForces)
	o.acc = o.forces.Accelerations(o.nodes, dragged, o.acc)

	o.perf.StartPhase(telemetry.PhaseIntegrate)
	o.integrator.Step(o.nodes, o.acc, dragged, dt)

	o.perf.StartPhase(telemetry.PhaseProject)
	o.pending, res.Skipped = o.project(dt, o.pending[:0])

	o.perf.StartPhase(telemetry.PhaseSplat)
	for _, s := range o.pending {
		o.field.Splat(s)
	}
	res.Splats = len(o.pending)

	o.perf.StartPhase(telemetry.PhaseTrailStep)
	o.field.Step(dt)

	o.perf.StartPhase(telemetry.PhaseHandles)
	o.handles.Sync(o.nodes, dragged)

	res.KineticEnergy = systems.KineticEnergy(o.nodes)
	res.MaxSpeed, res.MeanRadius = o.spread()
	o.frame++
	return res
}

// project converts node positions to field UV and queues a splat for every
// node moving faster than the threshold. Rejected projections clear the
// node's previous sample so it re-enters without a velocity spike.
func (o *Orchestrator) project(dt float64, out []trail.Splat) ([]trail.Splat, int) {
	skipped := 0
	valid := dt > 0 && !math.IsInf(dt, 0)

	for i := range o.nodes {
		n := &o.nodes[i]
		x, y, ok := o.projector.WorldToScreen(n.Position)
		if !ok || !finite(x) || !finite(y) {
			n.HasPrevScreen = false
			skipped++
			continue
		}

		uv := trail.NDCToUV(x, y)
		prev, hadPrev := n.PrevScreen, n.HasPrevScreen
		n.PrevScreen, n.HasPrevScreen = uv, true
		if !hadPrev || !valid {
			continue
		}

		vel := r2.Scale(1/dt, r2.Sub(uv, prev))
		if r2.Norm(vel) <= o.threshold {
			continue
		}
		out = append(out, trail.Splat{
			Position: uv,
			Velocity: vel,
			Color:    trail.Color{R: n.Color.R, G: n.Color.G, B: n.Color.B},
		})
	}
	return out, skipped
}

// spread returns the fastest node speed and the mean distance from the origin.
func (o *Orchestrator) spread() (maxSpeed, meanRadius float64) {
	if len(o.nodes) == 0 {
		return 0, 0
	}
	for i := range o.nodes {
		if s := r3.Norm(o.nodes[i].Velocity); s > maxSpeed {
			maxSpeed = s
		}
		meanRadius += r3.Norm(o.nodes[i].Position)
	}
	return maxSpeed, meanRadius / float64(len(o.nodes))
}

// Resize propagates a viewport change to the projector and the trail field.
// If the field cannot be reallocated it keeps its previous resolution and the
// error is returned; the projector is resized regardless.
func (o *Orchestrator) Resize(viewW, viewH float32, fieldW, fieldH int) error {
	o.projector.Resize(viewW, viewH)
	o.drag.Cancel()
	o.forgetScreen()

	if err := o.field.Resize(fieldW, fieldH); err != nil {
		w, h := o.field.Size()
		slog.Warn("trail resize failed, keeping previous resolution",
			"requested_w", fieldW, "requested_h", fieldH,
			"w", w, "h", h, "err", err)
		return fmt.Errorf("resizing trail field: %w", err)
	}
	return nil
}

// SetTuning applies live parameter changes.
func (o *Orchestrator) SetTuning(t Tuning) {
	o.forces.Repulsion = t.Repulsion
	o.forces.Centering = t.Centering
	o.integrator.DragFactor = t.DragFactor
	o.trailParams = t.Trail
	o.threshold = t.Threshold
	o.field.SetParams(t.Trail)
}

// Tuning returns the live parameters.
func (o *Orchestrator) Tuning() Tuning {
	return Tuning{
		Repulsion:  o.forces.Repulsion,
		Centering:  o.forces.Centering,
		DragFactor: o.integrator.DragFactor,
		Trail:      o.trailParams,
		Threshold:  o.threshold,
	}
}

// Respawn replaces the population with a fresh random one.
func (o *Orchestrator) Respawn(rng *rand.Rand) {
	o.drag.Cancel()
	o.nodes = systems.SpawnNodes(o.opts.Spawn, rng)
	o.handles.Rebuild(o.nodes, float32(o.opts.NodeRadius))
	o.clock.Reset()
}

// ClearTrail wipes the trail field.
func (o *Orchestrator) ClearTrail() {
	o.field.Clear()
}

// ResetClock makes the next Frame use the nominal timestep, e.g. after a pause.
func (o *Orchestrator) ResetClock() {
	o.clock.Reset()
}

func (o *Orchestrator) forgetScreen() {
	for i := range o.nodes {
		o.nodes[i].HasPrevScreen = false
	}
}

// Nodes returns the live population. Callers must not resize it.
func (o *Orchestrator) Nodes() []systems.Node { return o.nodes }

// Field returns the trail field.
func (o *Orchestrator) Field() trail.Field { return o.field }

// Handles returns the render handles.
func (o *Orchestrator) Handles() *Handles { return o.handles }

// Dragged returns the dragged node index or systems.NoNode.
func (o *Orchestrator) Dragged() int { return o.drag.Dragged() }

// FrameCount returns the number of completed frames.
func (o *Orchestrator) FrameCount() int64 { return o.frame }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
