// Package game wires the simulation, trail field, renderer and UI into a
// frame loop, with a headless mode that never touches raylib.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/renderer"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/systems"
	"github.com/pthm-cable/trails/telemetry"
	"github.com/pthm-cable/trails/trail"
	"github.com/pthm-cable/trails/ui"
)

// Options holds runtime settings that come from the command line.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
	Backend        string // Overrides trail.backend when set
	ShaderDir      string
	StepsPerUpdate int
}

// Game holds the complete application state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	cam  *camera.Camera
	orch *sim.Orchestrator

	// Exactly one of these is set
	cpuField *trail.CPUField
	gpuField *renderer.GPUTrail

	// Rendering (nil in headless mode)
	compositor   *renderer.TrailCompositor
	nodeRenderer *renderer.NodeRenderer
	hud          *ui.HUD
	perfPanel    *ui.PerfPanel
	tuningPanel  *ui.TuningPanel

	// Telemetry
	registry  *systems.SystemRegistry
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// State
	start      time.Time
	paused     bool
	showPanels bool
	last       sim.FrameResult

	screenWidth, screenHeight float32
}

// NewGame creates a game. In windowed mode the raylib window must already be open.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	if opts.ShaderDir == "" {
		opts.ShaderDir = "shaders"
	}

	g := &Game{
		cfg:          cfg,
		opts:         opts,
		rng:          rand.New(rand.NewSource(opts.Seed)),
		registry:     systems.NewSystemRegistry(),
		perf:         telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:    telemetry.NewCollector(opts.StatsWindowSec),
		screenWidth:  cfg.Derived.ScreenW32,
		screenHeight: cfg.Derived.ScreenH32,
		showPanels:   true,
	}

	g.cam = camera.New(g.screenWidth, g.screenHeight, cfg.Camera.Distance, cfg.Camera.FovY)
	g.cam.Near = cfg.Camera.Near
	g.cam.Far = cfg.Camera.Far

	simOpts := sim.OptionsFromConfig(cfg)
	field, err := g.newField(simOpts.Trail)
	if err != nil {
		return nil, err
	}

	g.orch = sim.New(simOpts, g.cam, field, g.rng)
	g.orch.SetPerf(g.perf)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	if !opts.Headless {
		g.compositor = renderer.NewTrailCompositor()
		g.nodeRenderer = renderer.NewNodeRenderer()
		g.hud = ui.NewHUD()
		g.tuningPanel = ui.NewTuningPanel(0, 10)
		g.perfPanel = ui.NewPerfPanel(10, 100, g.registry)
		g.layoutPanels()
	}

	g.start = time.Now()
	return g, nil
}

// newField allocates the trail field for the configured backend.
// Headless runs always use the CPU field; a GPU field that fails to
// initialize falls back to the CPU field.
func (g *Game) newField(p trail.Params) (trail.Field, error) {
	w, h := g.cfg.Derived.TrailWidth, g.cfg.Derived.TrailHeight

	backend := g.cfg.Trail.Backend
	if g.opts.Backend != "" {
		backend = g.opts.Backend
	}

	if backend == config.BackendGPU && !g.opts.Headless {
		gpu, err := renderer.NewGPUTrail(w, h, g.cfg.Trail.MaxPixels, p, g.opts.ShaderDir)
		if err == nil {
			g.gpuField = gpu
			return gpu, nil
		}
		slog.Warn("gpu trail unavailable, using cpu field", "error", err)
	}

	cpu, err := trail.NewCPUField(w, h, g.cfg.Trail.MaxPixels, p)
	if err != nil {
		return nil, fmt.Errorf("creating trail field: %w", err)
	}
	g.cpuField = cpu
	return cpu, nil
}

// Update runs one windowed frame: input, then simulation unless paused.
func (g *Game) Update() {
	g.perf.RecordFrame()
	g.handleInput()

	if g.paused {
		return
	}
	g.record(g.orch.Frame(time.Since(g.start)))
}

// UpdateHeadless runs StepsPerUpdate frames at the nominal timestep.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		g.record(g.orch.Tick(g.cfg.Physics.NominalDT))
	}
}

// Frame returns the number of completed simulation frames.
func (g *Game) Frame() int64 {
	return g.orch.FrameCount()
}

// Orchestrator exposes the simulation for tools that drive it directly.
func (g *Game) Orchestrator() *sim.Orchestrator {
	return g.orch
}

// Backend names the trail backend in use.
func (g *Game) Backend() string {
	if g.gpuField != nil {
		return config.BackendGPU
	}
	return config.BackendCPU
}

// Unload writes the final trail image and releases resources.
func (g *Game) Unload() {
	if g.output != nil && g.orch != nil {
		g.saveTrail("trail.png")
	}
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if g.compositor != nil {
		g.compositor.Unload()
	}
	if g.gpuField != nil {
		g.gpuField.Unload()
	}
}
