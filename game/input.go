package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/systems"
)

// handleInput processes keyboard and pointer input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
		if !g.paused {
			// Time spent paused is not a frame delta
			g.orch.ResetClock()
		}
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.orch.ClearTrail()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.orch.Respawn(g.rng)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.showPanels = !g.showPanels
	}
	if rl.IsKeyPressed(rl.KeyW) {
		g.nodeRenderer.ShowWires = !g.nodeRenderer.ShowWires
	}
	if rl.IsKeyPressed(rl.KeyP) && g.output != nil {
		g.saveTrail("trail_" + time.Now().Format("150405") + ".png")
	}

	g.handleCameraInput()
	g.handlePointer()
}

// handlePointer turns left mouse button state into drag events.
func (g *Game) handlePointer() {
	mouse := rl.GetMousePosition()
	x, y := g.cam.PixelToNDC(mouse.X, mouse.Y)
	ev := systems.PointerEvent{X: x, Y: y, At: time.Since(g.start)}

	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		if g.showPanels && g.tuningPanel.Contains(mouse.X, mouse.Y) {
			return
		}
		ev.Kind = systems.PointerDown
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		ev.Kind = systems.PointerUp
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		ev.Kind = systems.PointerMove
	default:
		return
	}
	g.orch.HandlePointer(ev)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w <= 0 || h <= 0 || (w == g.screenWidth && h == g.screenHeight) {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	fw, fh := g.cfg.TrailSize(int(w), int(h))
	// On failure the orchestrator logs and keeps the previous field
	_ = g.orch.Resize(w, h, fw, fh)
	g.layoutPanels()
}

// handleCameraInput processes orbit and zoom controls.
func (g *Game) handleCameraInput() {
	step := g.cfg.Camera.OrbitSpeed * float64(rl.GetFrameTime())

	if rl.IsKeyDown(rl.KeyRight) {
		g.cam.Orbit(step, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.cam.Orbit(-step, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.cam.Orbit(0, step)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.cam.Orbit(0, -step)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.cam.ZoomBy(1 - float64(wheel)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.cam.ZoomBy(1.25)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.cam.Reset(g.cfg.Camera.Distance)
	}
}
