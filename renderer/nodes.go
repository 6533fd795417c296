package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/sim"
)

// Camera3D converts the simulation camera for raylib drawing.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.NewCamera3D(vec3(c.Position), vec3(c.Target), vec3(c.Up), float32(c.FovY), rl.CameraPerspective)
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

// NodeRenderer draws one sphere per render handle.
type NodeRenderer struct {
	Rings, Slices int32
	ShowWires     bool
}

// NewNodeRenderer creates a renderer with 16x16 sphere tessellation.
func NewNodeRenderer() *NodeRenderer {
	return &NodeRenderer{Rings: 16, Slices: 16}
}

// Draw renders the handles from the camera's viewpoint.
func (r *NodeRenderer) Draw(cam *camera.Camera, handles *sim.Handles) {
	rl.BeginMode3D(Camera3D(cam))
	handles.Each(func(ref components.NodeRef, xf components.Transform, tint components.Tint, s components.Sphere) {
		pos := rl.NewVector3(xf.X, xf.Y, xf.Z)
		col := rl.ColorFromNormalized(rl.NewVector4(tint.R, tint.G, tint.B, 1))
		rl.DrawSphereEx(pos, s.Radius, r.Rings, r.Slices, col)
		if ref.Dragged {
			rl.DrawSphereWires(pos, s.Radius*1.4, 8, 8, rl.White)
		} else if r.ShowWires {
			rl.DrawSphereWires(pos, s.Radius*1.05, 6, 6, rl.Fade(rl.White, 0.3))
		}
	})
	rl.EndMode3D()
}
