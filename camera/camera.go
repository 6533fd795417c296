// Package camera provides a perspective camera for projecting node positions
// into normalized device coordinates and casting pointer rays back into the world.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera looks at a target point from a position on an orbit around it.
// NDC coordinates run from -1 to 1 with +Y up.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// Vertical field of view in degrees
	FovY float64

	// Clip distances along the view direction
	Near, Far float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints for Zoom
	MinDistance, MaxDistance float64
}

// New creates a camera on the +Z axis looking at the origin.
func New(viewportW, viewportH float32, distance, fovY float64) *Camera {
	return &Camera{
		Position:    r3.Vec{Z: distance},
		Target:      r3.Vec{},
		Up:          r3.Vec{Y: 1},
		FovY:        fovY,
		Near:        0.1,
		Far:         1000,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 5,
		MaxDistance: 400,
	}
}

// Aspect returns the viewport width/height ratio.
func (c *Camera) Aspect() float64 {
	if c.ViewportH == 0 {
		return 1
	}
	return float64(c.ViewportW) / float64(c.ViewportH)
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return r3.Unit(r3.Sub(c.Target, c.Position))
}

// basis returns the orthonormal camera frame.
func (c *Camera) basis() (right, up, forward r3.Vec) {
	forward = c.Forward()
	right = r3.Unit(r3.Cross(forward, c.Up))
	up = r3.Cross(right, forward)
	return right, up, forward
}

// tanHalfFov returns tan(fovY/2).
func (c *Camera) tanHalfFov() float64 {
	return math.Tan(c.FovY * math.Pi / 360)
}

// WorldToScreen projects a world position into NDC.
// ok is false for points behind the near plane or when the projection is not finite.
func (c *Camera) WorldToScreen(p r3.Vec) (x, y float64, ok bool) {
	right, up, forward := c.basis()
	v := r3.Sub(p, c.Position)

	depth := r3.Dot(v, forward)
	if depth <= c.Near {
		return 0, 0, false
	}

	t := c.tanHalfFov()
	x = r3.Dot(v, right) / (depth * t * c.Aspect())
	y = r3.Dot(v, up) / (depth * t)
	if !finite(x) || !finite(y) {
		return 0, 0, false
	}
	return x, y, true
}

// ScreenRay returns the world-space ray through an NDC coordinate.
func (c *Camera) ScreenRay(x, y float64) Ray {
	right, up, forward := c.basis()
	t := c.tanHalfFov()

	dir := r3.Add(forward, r3.Add(
		r3.Scale(x*t*c.Aspect(), right),
		r3.Scale(y*t, up),
	))
	return Ray{Origin: c.Position, Dir: r3.Unit(dir)}
}

// PixelToNDC converts a screen pixel (top-left origin) to NDC.
func (c *Camera) PixelToNDC(px, py float32) (x, y float64) {
	x = float64(px)/float64(c.ViewportW)*2 - 1
	y = -(float64(py)/float64(c.ViewportH)*2 - 1)
	return x, y
}

// NDCToPixel converts NDC to a screen pixel (top-left origin).
func (c *Camera) NDCToPixel(x, y float64) (px, py float32) {
	px = float32((x*0.5 + 0.5) * float64(c.ViewportW))
	py = float32((-y*0.5 + 0.5) * float64(c.ViewportH))
	return px, py
}

// Resize updates viewport dimensions. The aspect ratio follows.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW <= 0 || viewportH <= 0 {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Orbit rotates the camera position around the target.
// yaw turns around the up axis, pitch tilts toward it; pitch is limited short of the poles.
func (c *Camera) Orbit(yaw, pitch float64) {
	offset := r3.Sub(c.Position, c.Target)
	dist := r3.Norm(offset)
	if dist == 0 {
		return
	}

	theta := math.Atan2(offset.X, offset.Z)
	phi := math.Asin(clamp(offset.Y/dist, -1, 1))

	theta += yaw
	phi = clamp(phi+pitch, -1.45, 1.45)

	c.Position = r3.Add(c.Target, r3.Vec{
		X: dist * math.Cos(phi) * math.Sin(theta),
		Y: dist * math.Sin(phi),
		Z: dist * math.Cos(phi) * math.Cos(theta),
	})
}

// ZoomBy scales the distance to the target, clamped to min/max.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	offset := r3.Sub(c.Position, c.Target)
	dist := r3.Norm(offset)
	if dist == 0 {
		return
	}
	next := clamp(dist*factor, c.MinDistance, c.MaxDistance)
	c.Position = r3.Add(c.Target, r3.Scale(next/dist, offset))
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.Position, c.Target))
}

// Reset returns the camera to the +Z axis at the given distance.
func (c *Camera) Reset(distance float64) {
	c.Target = r3.Vec{}
	c.Position = r3.Vec{Z: distance}
	c.Up = r3.Vec{Y: 1}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
