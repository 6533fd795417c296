// Package components defines ECS components for node render handles.
package components

// NodeRef links a render entity back to its simulation node.
type NodeRef struct {
	ID      int  // Index into the node population
	Dragged bool // Set while the pointer owns the node
}

// Transform is the render-space position of a handle, synced every frame.
type Transform struct {
	X, Y, Z float32
}

// Tint is the sphere color.
type Tint struct {
	R, G, B float32
}

// Sphere is the drawn shape of a node.
type Sphere struct {
	Radius float32
}
