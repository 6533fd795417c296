package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/systems"
	"github.com/pthm-cable/trails/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Nodes      int
	Frame      int64
	FPS        int32
	Splats     int
	Dragged    int // Node index or systems.NoNode
	Backend    string
	FieldW     int
	FieldH     int
	Paused     bool
	MeanRadius float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Nodes: %d | Splats: %d | Spread: %.1f", data.Nodes, data.Splats, data.MeanRadius),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | Trail: %s %dx%d", data.Frame, data.FPS, data.Backend, data.FieldW, data.FieldH),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	if data.Dragged != systems.NoNode {
		status += fmt.Sprintf(" | Dragging node %d", data.Dragged)
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase frame timing panel.
type PerfPanel struct {
	renderer *Renderer
	registry *systems.SystemRegistry
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32, registry *systems.SystemRegistry) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		registry: registry,
		x:        x,
		y:        y,
		width:    260,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel from a perf window.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding
	ids := p.registry.IDs()
	height := pad*2 + 22 + 18 + int32(len(ids))*(r.Theme.LineHeight+2)

	r.DrawPanel(p.x, p.y, p.width, height)
	x := p.x + pad
	y := r.DrawSectionHeader(x, p.y+pad, "Frame Phases")

	rl.DrawText(
		fmt.Sprintf("Total: %s (%.0f fps)", stats.AvgTickDuration.Round(time.Microsecond), stats.FPS),
		x, y, 14, rl.Yellow,
	)
	y += 18

	for _, id := range ids {
		pct := stats.PhasePct[id]
		bar := r.Theme.BarFill
		if pct > 50 {
			r.Theme.BarFill = rl.Red
		} else if pct > 25 {
			r.Theme.BarFill = rl.Orange
		}
		y = r.DrawBar(x, y, p.registry.GetName(id), float32(pct/100), p.width-pad*2)
		r.Theme.BarFill = bar
	}
}
