package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/ui"
)

const controlsText = "[Drag] Move node  [Space] Pause  [C] Clear  [R] Respawn  [Arrows] Orbit  [Wheel] Zoom  [Tab] Panels  [W] Wires  [P] Save"

// Draw renders the trail field, the nodes, then the UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.compositor.Draw(g.orch.Field(), g.screenWidth, g.screenHeight)
	g.nodeRenderer.Draw(g.cam, g.orch.Handles())
	g.drawUI()

	rl.EndDrawing()
}

// drawUI renders the HUD and, when enabled, the perf and tuning panels.
func (g *Game) drawUI() {
	fw, fh := g.orch.Field().Size()
	g.hud.Draw(ui.HUDData{
		Title:      g.cfg.Screen.Title,
		Nodes:      len(g.orch.Nodes()),
		Frame:      g.orch.FrameCount(),
		FPS:        rl.GetFPS(),
		Splats:     g.last.Splats,
		Dragged:    g.orch.Dragged(),
		Backend:    g.Backend(),
		FieldW:     fw,
		FieldH:     fh,
		Paused:     g.paused,
		MeanRadius: g.last.MeanRadius,
	})
	g.hud.DrawControls(int32(g.screenHeight), controlsText)

	if !g.showPanels {
		return
	}

	g.perfPanel.Draw(g.perf.Stats())

	tuning, changed, action := g.tuningPanel.Draw(g.orch.Tuning())
	if changed {
		g.orch.SetTuning(tuning)
	}
	switch action {
	case ui.ActionClearTrail:
		g.orch.ClearTrail()
	case ui.ActionRespawn:
		g.orch.Respawn(g.rng)
	}
}

// layoutPanels anchors the tuning panel to the right edge.
func (g *Game) layoutPanels() {
	g.tuningPanel.SetPosition(int32(g.screenWidth)-g.tuningPanel.Width()-10, 10)
	g.perfPanel.SetPosition(10, 100)
}
