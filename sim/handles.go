package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/systems"
)

// Handles keeps one render entity per node. byNode is the explicit
// node ID → entity map; entities never hold simulation state beyond the
// transform copied in by Sync.
type Handles struct {
	world  *ecs.World
	mapper *ecs.Map4[
		components.NodeRef,
		components.Transform,
		components.Tint,
		components.Sphere,
	]
	filter *ecs.Filter4[
		components.NodeRef,
		components.Transform,
		components.Tint,
		components.Sphere,
	]
	refMap *ecs.Map1[components.NodeRef]
	xfMap  *ecs.Map1[components.Transform]

	byNode []ecs.Entity
}

// NewHandles creates a render world with one entity per node.
func NewHandles(nodes []systems.Node, radius float32) *Handles {
	world := ecs.NewWorld()
	h := &Handles{
		world: world,
		mapper: ecs.NewMap4[
			components.NodeRef,
			components.Transform,
			components.Tint,
			components.Sphere,
		](world),
		filter: ecs.NewFilter4[
			components.NodeRef,
			components.Transform,
			components.Tint,
			components.Sphere,
		](world),
		refMap: ecs.NewMap1[components.NodeRef](world),
		xfMap:  ecs.NewMap1[components.Transform](world),
	}
	h.Rebuild(nodes, radius)
	return h
}

// Rebuild drops every handle and creates fresh ones for nodes.
func (h *Handles) Rebuild(nodes []systems.Node, radius float32) {
	for _, e := range h.byNode {
		if h.world.Alive(e) {
			h.mapper.Remove(e)
		}
	}
	h.byNode = h.byNode[:0]

	for i := range nodes {
		n := &nodes[i]
		ref := components.NodeRef{ID: n.ID}
		xf := transformOf(n)
		tint := components.Tint{R: n.Color.R, G: n.Color.G, B: n.Color.B}
		sphere := components.Sphere{Radius: radius}
		h.byNode = append(h.byNode, h.mapper.NewEntity(&ref, &xf, &tint, &sphere))
	}
}

// Sync copies node positions and the drag flag onto the handles.
func (h *Handles) Sync(nodes []systems.Node, dragged int) {
	for id, e := range h.byNode {
		if id >= len(nodes) {
			break
		}
		*h.xfMap.Get(e) = transformOf(&nodes[id])
		h.refMap.Get(e).Dragged = id == dragged
	}
}

// Entity returns the render entity for a node.
func (h *Handles) Entity(id int) (ecs.Entity, bool) {
	if id < 0 || id >= len(h.byNode) {
		return ecs.Entity{}, false
	}
	return h.byNode[id], true
}

// Transform returns the last synced transform of a node.
func (h *Handles) Transform(id int) (components.Transform, bool) {
	e, ok := h.Entity(id)
	if !ok || !h.world.Alive(e) {
		return components.Transform{}, false
	}
	return *h.xfMap.Get(e), true
}

// Len returns the number of handles.
func (h *Handles) Len() int {
	return len(h.byNode)
}

// Each visits every handle. fn must not add or remove handles.
func (h *Handles) Each(fn func(ref components.NodeRef, xf components.Transform, tint components.Tint, sphere components.Sphere)) {
	query := h.filter.Query()
	for query.Next() {
		ref, xf, tint, sphere := query.Get()
		fn(*ref, *xf, *tint, *sphere)
	}
}

func transformOf(n *systems.Node) components.Transform {
	return components.Transform{
		X: float32(n.Position.X),
		Y: float32(n.Position.Y),
		Z: float32(n.Position.Z),
	}
}
