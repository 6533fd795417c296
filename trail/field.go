// Package trail holds the double-buffered trail field that moving nodes
// paint into and that fades every frame.
package trail

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrAllocation is returned when a field cannot allocate its buffers.
var ErrAllocation = errors.New("trail: buffer allocation failed")

// Support cutoff for the splat kernel; contributions below it are not written.
const kernelCutoff = 1e-4

// Color is a linear RGB color.
type Color struct {
	R, G, B float32
}

// Splat is one injection into the field.
// Position is in field UV space, [0,1] on both axes with the origin at the bottom-left.
type Splat struct {
	Position r2.Vec
	Velocity r2.Vec // UV units per second
	Color    Color
}

// Params are the live-tunable field parameters.
type Params struct {
	Decay     float64 // Per-step multiplicative fade in (0, 1]; 1 keeps trails forever
	Radius    float64 // Kernel sharpness: weight = exp(-d²·Radius)
	Intensity float64 // Color scale applied at the kernel center
}

// DefaultParams returns the stock fade and kernel settings.
func DefaultParams() Params {
	return Params{Decay: 0.96, Radius: 100, Intensity: 0.15}
}

// Field is a pair of same-sized buffers where each pass reads one and writes
// the other, then swaps. Implementations are not safe for concurrent use.
type Field interface {
	// Splat adds a Gaussian of the splat color around its position.
	Splat(s Splat)
	// Step advances the field by one frame. Non-positive or non-finite dt is a no-op.
	Step(dt float64)
	// Resize reallocates both buffers cleared to opaque black. On failure the
	// previous buffers stay in use and the error wraps ErrAllocation.
	Resize(w, h int) error
	// Clear resets both buffers to opaque black.
	Clear()
	// Size returns the current resolution in texels.
	Size() (w, h int)
	// SetParams replaces the fade and kernel settings.
	SetParams(p Params)
}

// NDCToUV maps normalized device coordinates to field UV space.
func NDCToUV(x, y float64) r2.Vec {
	return r2.Vec{X: x*0.5 + 0.5, Y: y*0.5 + 0.5}
}

// ValidPosition reports whether a splat at p can be applied. Non-finite
// positions are dropped by every Field without running a pass.
func ValidPosition(p r2.Vec) bool {
	return finite(p.X) && finite(p.Y)
}

// ValidStep reports whether Step(dt) runs a pass: dt must be positive and finite.
func ValidStep(dt float64) bool {
	return dt > 0 && !math.IsInf(dt, 1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// KernelExtent returns the UV distance beyond which the kernel of the given
// sharpness drops under the write cutoff.
func KernelExtent(radius float64) float64 {
	if radius <= 0 {
		return math.Sqrt2 // whole field
	}
	return math.Sqrt(-math.Log(kernelCutoff) / radius)
}
