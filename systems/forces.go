package systems

import "gonum.org/v1/gonum/spatial/r3"

// ForceField computes pairwise inverse-square repulsion plus a linear
// centering spring over the non-dragged nodes.
type ForceField struct {
	Repulsion float64 // k_rep
	Centering float64 // k_center
	Epsilon   float64 // Added to pair distance to avoid the singularity
}

// PairForce returns the force on b exerted by a.
// The force on a is the exact negation.
func (f ForceField) PairForce(a, b *Node) r3.Vec {
	d := r3.Sub(b.Position, a.Position)
	r := r3.Norm(d) + f.Epsilon
	mag := f.Repulsion * a.Charge * b.Charge / (r * r)
	return r3.Scale(mag/r, d)
}

// Accelerations fills acc with one acceleration per node and returns it.
// The dragged node (NoNode for none) neither exerts nor receives force and gets zero.
func (f ForceField) Accelerations(nodes []Node, dragged int, acc []r3.Vec) []r3.Vec {
	if cap(acc) < len(nodes) {
		acc = make([]r3.Vec, len(nodes))
	}
	acc = acc[:len(nodes)]
	for i := range acc {
		acc[i] = r3.Vec{}
	}

	for i := range nodes {
		if i == dragged {
			continue
		}
		a := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			if j == dragged {
				continue
			}
			b := &nodes[j]
			force := f.PairForce(a, b)
			acc[i] = r3.Sub(acc[i], r3.Scale(1/a.Mass, force))
			acc[j] = r3.Add(acc[j], r3.Scale(1/b.Mass, force))
		}
	}

	for i := range nodes {
		if i == dragged {
			continue
		}
		n := &nodes[i]
		acc[i] = r3.Add(acc[i], r3.Scale(-f.Centering/n.Mass, n.Position))
	}

	return acc
}
