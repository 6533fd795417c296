// Package main searches physics and trail parameters with CMA-ES so that the
// node cloud settles at a target radius while its trail covers the field.
package main

import (
	"github.com/pthm-cable/trails/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "repulsion", Path: "physics.repulsion", Min: 5, Max: 200, Default: 50},
			{Name: "centering", Path: "physics.centering", Min: 0.01, Max: 1, Default: 0.1},
			{Name: "drag_factor", Path: "physics.drag_factor", Min: 0.9, Max: 0.999, Default: 0.98},
			{Name: "decay", Path: "trail.decay", Min: 0.85, Max: 0.995, Default: 0.96},
			{Name: "splat_radius", Path: "trail.radius", Min: 20, Max: 400, Default: 100},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Physics.Repulsion = c[0]
	cfg.Physics.Centering = c[1]
	cfg.Physics.DragFactor = c[2]
	cfg.Trail.Decay = c[3]
	cfg.Trail.Radius = c[4]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Physics.Repulsion,
		cfg.Physics.Centering,
		cfg.Physics.DragFactor,
		cfg.Trail.Decay,
		cfg.Trail.Radius,
	}
}
