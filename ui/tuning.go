package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/sim"
)

// TuningAction is a one-shot request from the tuning panel buttons.
type TuningAction uint8

const (
	ActionNone TuningAction = iota
	ActionClearTrail
	ActionRespawn
)

type slider struct {
	label    string
	min, max float32
	format   string
	get      func(t *sim.Tuning) float64
	set      func(t *sim.Tuning, v float64)
}

var tuningSliders = []slider{
	{
		label: "Repulsion", min: 0, max: 500, format: "%.1f",
		get: func(t *sim.Tuning) float64 { return t.Repulsion },
		set: func(t *sim.Tuning, v float64) { t.Repulsion = v },
	},
	{
		label: "Centering", min: 0, max: 1, format: "%.3f",
		get: func(t *sim.Tuning) float64 { return t.Centering },
		set: func(t *sim.Tuning, v float64) { t.Centering = v },
	},
	{
		label: "Drag factor", min: 0.01, max: 1, format: "%.3f",
		get: func(t *sim.Tuning) float64 { return t.DragFactor },
		set: func(t *sim.Tuning, v float64) { t.DragFactor = v },
	},
	{
		label: "Trail decay", min: 0.01, max: 1, format: "%.3f",
		get: func(t *sim.Tuning) float64 { return t.Trail.Decay },
		set: func(t *sim.Tuning, v float64) { t.Trail.Decay = v },
	},
	{
		label: "Splat radius", min: 0, max: 2000, format: "%.0f",
		get: func(t *sim.Tuning) float64 { return t.Trail.Radius },
		set: func(t *sim.Tuning, v float64) { t.Trail.Radius = v },
	},
	{
		label: "Intensity", min: 0, max: 2, format: "%.2f",
		get: func(t *sim.Tuning) float64 { return t.Trail.Intensity },
		set: func(t *sim.Tuning, v float64) { t.Trail.Intensity = v },
	},
	{
		label: "Threshold", min: 0, max: 1, format: "%.3f",
		get: func(t *sim.Tuning) float64 { return t.Threshold },
		set: func(t *sim.Tuning, v float64) { t.Threshold = v },
	},
}

// TuningPanel edits the live simulation parameters with raygui sliders.
type TuningPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	held     int // Index of the slider under the pressed mouse, or -1
}

// NewTuningPanel creates a panel anchored at (x, y).
func NewTuningPanel(x, y int32) *TuningPanel {
	return &TuningPanel{renderer: NewRenderer(), x: x, y: y, width: 300, held: -1}
}

// SetPosition updates the panel position.
func (p *TuningPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Width returns the panel width in pixels.
func (p *TuningPanel) Width() int32 {
	return p.width
}

// Draw renders the panel and returns the possibly edited tuning, whether any
// slider moved, and the button pressed this frame.
func (p *TuningPanel) Draw(t sim.Tuning) (sim.Tuning, bool, TuningAction) {
	r := p.renderer
	pad := float32(r.Theme.Padding)
	r.DrawPanel(p.x, p.y, p.width, p.height())

	panelX := float32(p.x) + pad
	panelY := float32(r.DrawSectionHeader(int32(panelX), p.y+r.Theme.Padding, "Tuning"))
	sliderW := float32(p.width) - pad*2 - 60

	if !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		p.held = -1
	}
	mouse := rl.GetMousePosition()

	changed := false
	for i, s := range tuningSliders {
		rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 16

		bounds := rl.Rectangle{X: panelX, Y: panelY, Width: sliderW, Height: 16}
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && rl.CheckCollisionPointRec(mouse, bounds) {
			p.held = i
		}

		cur := float32(s.get(&t))
		next := gui.SliderBar(bounds, "", "", cur, s.min, s.max)
		rl.DrawText(fmt.Sprintf(s.format, s.get(&t)), int32(panelX+sliderW+8), int32(panelY+1), 14, rl.LightGray)
		if v, ok := sliderEdit(cur, next, p.held == i); ok {
			s.set(&t, float64(v))
			changed = true
		}
		panelY += 24
	}

	action := ActionNone
	panelY += 6
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Clear Trail") {
		action = ActionClearTrail
	}
	if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Respawn") {
		action = ActionRespawn
	}

	return t, changed, action
}

// sliderEdit returns the value a slider should store. SliderBar clamps
// whatever it is given, so only the slider being held may write; an
// untouched slider leaves an out-of-range value alone.
func sliderEdit(cur, next float32, held bool) (float32, bool) {
	if !held || next == cur {
		return cur, false
	}
	return next, true
}

// Contains reports whether a screen point is over the panel, so pointer
// presses there are not treated as drags.
func (p *TuningPanel) Contains(px, py float32) bool {
	return px >= float32(p.x) && px <= float32(p.x+p.width) &&
		py >= float32(p.y) && py <= float32(p.y+p.height())
}

func (p *TuningPanel) height() int32 {
	return int32(len(tuningSliders))*40 + 24 + 60
}
