package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// parallelEpsilon is the smallest |dir·normal| treated as a real crossing.
const parallelEpsilon = 1e-12

// Ray is a half-line starting at Origin along the unit direction Dir.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// Plane is the set of points p with (p - Point)·Normal = 0.
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// NewPlane builds a plane through point with the given normal (normalized here).
func NewPlane(normal, point r3.Vec) Plane {
	return Plane{Point: point, Normal: r3.Unit(normal)}
}

// IntersectPlane returns where the ray crosses the plane.
// Rays parallel to the plane or crossing behind the origin return false.
func (r Ray) IntersectPlane(p Plane) (r3.Vec, bool) {
	denom := r3.Dot(r.Dir, p.Normal)
	if math.Abs(denom) < parallelEpsilon {
		return r3.Vec{}, false
	}
	t := r3.Dot(r3.Sub(p.Point, r.Origin), p.Normal) / denom
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return r3.Vec{}, false
	}
	return r.At(t), true
}

// IntersectSphere returns the nearest non-negative ray parameter hitting the sphere.
func (r Ray) IntersectSphere(center r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(r.Origin, center)
	b := r3.Dot(oc, r.Dir)
	c := r3.Dot(oc, oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		// Origin inside the sphere
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
