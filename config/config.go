// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Trail backends.
const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Camera    CameraConfig    `yaml:"camera"`
	Nodes     NodesConfig     `yaml:"nodes"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Trail     TrailConfig     `yaml:"trail"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// CameraConfig holds the perspective camera setup.
type CameraConfig struct {
	FovY       float64 `yaml:"fovy"`        // Vertical field of view in degrees
	Distance   float64 `yaml:"distance"`    // Distance from the origin along +Z
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`
	OrbitSpeed float64 `yaml:"orbit_speed"` // Radians per second for keyboard orbit
}

// NodesConfig holds node population parameters.
type NodesConfig struct {
	Count          int     `yaml:"count"`
	Radius         float64 `yaml:"radius"`          // Render and pick radius in world units
	MassMin        float64 `yaml:"mass_min"`
	MassMax        float64 `yaml:"mass_max"`
	ChargeMin      float64 `yaml:"charge_min"`
	ChargeMax      float64 `yaml:"charge_max"`
	Spread         float64 `yaml:"spread"`          // Side of the spawn cube
	VelocitySpread float64 `yaml:"velocity_spread"` // Side of the initial velocity cube
}

// PhysicsConfig holds force law and integration parameters.
type PhysicsConfig struct {
	Repulsion  float64 `yaml:"repulsion"`   // k_rep
	Centering  float64 `yaml:"centering"`   // k_center
	DragFactor float64 `yaml:"drag_factor"` // Per-step velocity multiplier
	Epsilon    float64 `yaml:"epsilon"`     // Added to pair distance
	NominalDT  float64 `yaml:"nominal_dt"`  // Used when no valid previous timestamp exists
	MaxDT      float64 `yaml:"max_dt"`
}

// TrailConfig holds trail field parameters.
type TrailConfig struct {
	Backend   string  `yaml:"backend"`   // cpu or gpu
	Width     int     `yaml:"width"`     // Field width in texels (0 = screen width * scale)
	Height    int     `yaml:"height"`    // Field height in texels (0 = screen height * scale)
	Scale     float64 `yaml:"scale"`     // Field resolution relative to the viewport
	Decay     float64 `yaml:"decay"`     // Per-step fade multiplier
	Radius    float64 `yaml:"radius"`    // Splat kernel sharpness, exp(-d^2 * radius)
	Intensity float64 `yaml:"intensity"` // Splat color multiplier
	Threshold float64 `yaml:"threshold"` // Minimum field-space speed for a splat
	MaxPixels int     `yaml:"max_pixels"`
}

// TelemetryConfig holds telemetry and logging parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Frames averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32   float32 // Screen.Width as float32
	ScreenH32   float32 // Screen.Height as float32
	TrailWidth  int     // Effective trail field width
	TrailHeight int     // Effective trail field height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first configuration value that would break the simulation.
func (c *Config) Validate() error {
	var errs []error
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height))
	}
	if c.Nodes.Count <= 0 {
		errs = append(errs, fmt.Errorf("nodes.count must be positive, got %d", c.Nodes.Count))
	}
	if c.Nodes.MassMin <= 0 || c.Nodes.MassMax < c.Nodes.MassMin {
		errs = append(errs, fmt.Errorf("nodes mass range invalid: [%g, %g]", c.Nodes.MassMin, c.Nodes.MassMax))
	}
	if c.Nodes.ChargeMin <= 0 || c.Nodes.ChargeMax < c.Nodes.ChargeMin {
		errs = append(errs, fmt.Errorf("nodes charge range invalid: [%g, %g]", c.Nodes.ChargeMin, c.Nodes.ChargeMax))
	}
	if c.Physics.DragFactor <= 0 || c.Physics.DragFactor > 1 {
		errs = append(errs, fmt.Errorf("physics.drag_factor must be in (0, 1], got %g", c.Physics.DragFactor))
	}
	if !(c.Physics.Repulsion >= 0) {
		errs = append(errs, fmt.Errorf("physics.repulsion must be non-negative, got %g", c.Physics.Repulsion))
	}
	if !(c.Physics.Centering >= 0) {
		errs = append(errs, fmt.Errorf("physics.centering must be non-negative, got %g", c.Physics.Centering))
	}
	// Coincident nodes divide by epsilon
	if !(c.Physics.Epsilon > 0) || math.IsInf(c.Physics.Epsilon, 0) {
		errs = append(errs, fmt.Errorf("physics.epsilon must be positive, got %g", c.Physics.Epsilon))
	}
	if !(c.Physics.NominalDT > 0) || !(c.Physics.MaxDT > 0) {
		errs = append(errs, fmt.Errorf("physics dt bounds must be positive, got nominal=%g max=%g", c.Physics.NominalDT, c.Physics.MaxDT))
	} else if c.Physics.MaxDT < c.Physics.NominalDT {
		errs = append(errs, fmt.Errorf("physics.max_dt must be at least nominal_dt, got max=%g nominal=%g", c.Physics.MaxDT, c.Physics.NominalDT))
	}
	if c.Trail.Decay <= 0 || c.Trail.Decay > 1 {
		errs = append(errs, fmt.Errorf("trail.decay must be in (0, 1], got %g", c.Trail.Decay))
	}
	if !(c.Trail.Radius >= 0) || !(c.Trail.Intensity >= 0) {
		errs = append(errs, fmt.Errorf("trail kernel must be non-negative, got radius=%g intensity=%g", c.Trail.Radius, c.Trail.Intensity))
	}
	if !(c.Trail.Threshold >= 0) {
		errs = append(errs, fmt.Errorf("trail.threshold must be non-negative, got %g", c.Trail.Threshold))
	}
	if c.Trail.Backend != BackendCPU && c.Trail.Backend != BackendGPU {
		errs = append(errs, fmt.Errorf("trail.backend must be %q or %q, got %q", BackendCPU, BackendGPU, c.Trail.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	w, h := c.TrailSize(c.Screen.Width, c.Screen.Height)
	c.Derived.TrailWidth = w
	c.Derived.TrailHeight = h
}

// TrailSize returns the trail field resolution for a viewport.
// Explicit trail.width/height win over the viewport scale.
func (c *Config) TrailSize(viewW, viewH int) (int, int) {
	scale := c.Trail.Scale
	if scale <= 0 {
		scale = 1
	}
	w := c.Trail.Width
	if w == 0 {
		w = int(float64(viewW) * scale)
	}
	h := c.Trail.Height
	if h == 0 {
		h = int(float64(viewH) * scale)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
