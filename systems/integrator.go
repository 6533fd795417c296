package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator advances non-dragged nodes with semi-implicit Euler.
// DragFactor damps velocity once per step regardless of dt.
type Integrator struct {
	DragFactor float64
}

// Step applies acc over dt. Non-positive or non-finite dt leaves every node untouched.
func (in Integrator) Step(nodes []Node, acc []r3.Vec, dragged int, dt float64) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}

	for i := range nodes {
		if i == dragged || i >= len(acc) {
			continue
		}
		n := &nodes[i]
		n.Velocity = r3.Add(n.Velocity, r3.Scale(dt, acc[i]))
		n.Velocity = r3.Scale(in.DragFactor, n.Velocity)
		n.Position = r3.Add(n.Position, r3.Scale(dt, n.Velocity))
	}
}
