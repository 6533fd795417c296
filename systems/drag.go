package systems

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trails/camera"
)

// PointerKind identifies a pointer event.
type PointerKind uint8

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// String returns the event name.
func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer sample in NDC with a monotonic timestamp.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
	At   time.Duration
}

// Picker casts rays for pointer coordinates.
type Picker interface {
	ScreenRay(x, y float64) camera.Ray
	Forward() r3.Vec
}

// DragSession is the state of an active drag.
type DragSession struct {
	NodeID       int
	Plane        camera.Plane
	LastPosition r3.Vec
	LastTime     time.Duration
}

// DragController maps pointer events onto one node's kinematics.
// While a session is active the owned node is excluded from force integration.
type DragController struct {
	picker     Picker
	pickRadius float64
	session    *DragSession
}

// NewDragController creates an idle controller. pickRadius is the bounding
// sphere radius tested against pointer rays.
func NewDragController(picker Picker, pickRadius float64) *DragController {
	return &DragController{picker: picker, pickRadius: pickRadius}
}

// Handle applies an event and reports whether any state changed.
func (d *DragController) Handle(ev PointerEvent, nodes []Node) bool {
	switch ev.Kind {
	case PointerDown:
		return d.begin(ev, nodes)
	case PointerMove:
		return d.move(ev, nodes)
	case PointerUp:
		return d.release()
	}
	return false
}

// Dragged returns the owned node index, or NoNode when idle.
func (d *DragController) Dragged() int {
	if d.session == nil {
		return NoNode
	}
	return d.session.NodeID
}

// Session returns a copy of the active session.
func (d *DragController) Session() (DragSession, bool) {
	if d.session == nil {
		return DragSession{}, false
	}
	return *d.session, true
}

// Cancel drops any active session without touching the node.
func (d *DragController) Cancel() {
	d.session = nil
}

// SetPickRadius changes the bounding sphere radius for future picks.
func (d *DragController) SetPickRadius(r float64) {
	d.pickRadius = r
}

// Pick returns the nearest node hit by the ray through (x, y).
func (d *DragController) Pick(x, y float64, nodes []Node) (int, bool) {
	ray := d.picker.ScreenRay(x, y)

	best := NoNode
	bestT := 0.0
	for i := range nodes {
		t, ok := ray.IntersectSphere(nodes[i].Position, d.pickRadius)
		if !ok {
			continue
		}
		if best == NoNode || t < bestT {
			best = i
			bestT = t
		}
	}
	return best, best != NoNode
}

func (d *DragController) begin(ev PointerEvent, nodes []Node) bool {
	if d.session != nil {
		return false
	}
	id, ok := d.Pick(ev.X, ev.Y, nodes)
	if !ok {
		return false
	}

	pos := nodes[id].Position
	d.session = &DragSession{
		NodeID:       id,
		Plane:        camera.NewPlane(d.picker.Forward(), pos),
		LastPosition: pos,
		LastTime:     ev.At,
	}
	return true
}

func (d *DragController) move(ev PointerEvent, nodes []Node) bool {
	if d.session == nil || d.session.NodeID >= len(nodes) {
		return false
	}

	ray := d.picker.ScreenRay(ev.X, ev.Y)
	point, ok := ray.IntersectPlane(d.session.Plane)
	if !ok {
		return false
	}

	n := &nodes[d.session.NodeID]
	n.Position = point

	dt := (ev.At - d.session.LastTime).Seconds()
	if dt > 0 {
		n.Velocity = r3.Scale(1/dt, r3.Sub(point, d.session.LastPosition))
	}

	d.session.LastPosition = point
	d.session.LastTime = ev.At
	return true
}

func (d *DragController) release() bool {
	if d.session == nil {
		return false
	}
	d.session = nil
	return true
}
