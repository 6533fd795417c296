// Package systems contains the node simulation: population, force law,
// integration, frame timing and pointer dragging.
package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoNode marks the absence of a dragged node.
const NoNode = -1

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// Node is a point mass in the repelling cluster.
// ID equals the node's index in the population slice for the whole session.
type Node struct {
	ID       int
	Position r3.Vec
	Velocity r3.Vec
	Mass     float64
	Charge   float64
	Color    Color

	// Previous frame's field-space position, tracked for trail velocity
	PrevScreen    r2.Vec
	HasPrevScreen bool
}

// SpawnParams holds the randomization ranges for a node population.
type SpawnParams struct {
	Count          int
	MassMin        float64
	MassMax        float64
	ChargeMin      float64
	ChargeMax      float64
	Spread         float64 // Side of the cube positions are drawn from
	VelocitySpread float64 // Side of the cube velocities are drawn from
}

// SpawnNodes creates a fixed-size population with randomized kinematics.
func SpawnNodes(p SpawnParams, rng *rand.Rand) []Node {
	nodes := make([]Node, p.Count)
	for i := range nodes {
		nodes[i] = Node{
			ID:       i,
			Mass:     randRange(rng, p.MassMin, p.MassMax),
			Charge:   randRange(rng, p.ChargeMin, p.ChargeMax),
			Position: randCube(rng, p.Spread),
			Velocity: randCube(rng, p.VelocitySpread),
			Color: Color{
				R: rng.Float32(),
				G: rng.Float32(),
				B: rng.Float32(),
			},
		}
	}
	return nodes
}

// KineticEnergy returns the total kinetic energy of the population.
func KineticEnergy(nodes []Node) float64 {
	var e float64
	for i := range nodes {
		e += 0.5 * nodes[i].Mass * r3.Norm2(nodes[i].Velocity)
	}
	return e
}

// randRange returns a uniform value in [min, max).
func randRange(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// randCube returns a uniform point in a cube of the given side centered on the origin.
func randCube(rng *rand.Rand, side float64) r3.Vec {
	return r3.Vec{
		X: (rng.Float64() - 0.5) * side,
		Y: (rng.Float64() - 0.5) * side,
		Z: (rng.Float64() - 0.5) * side,
	}
}
