package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/trail"
)

// TrailCompositor draws a trail field stretched over the viewport.
// CPU fields are uploaded into a streaming texture each frame; GPU fields are
// drawn straight from their render texture.
type TrailCompositor struct {
	tex    rl.Texture2D
	w, h   int
	pixels []color.RGBA
}

// NewTrailCompositor creates an empty compositor.
func NewTrailCompositor() *TrailCompositor {
	return &TrailCompositor{}
}

// Draw composites field onto the current framebuffer.
func (c *TrailCompositor) Draw(field trail.Field, viewW, viewH float32) {
	dst := rl.NewRectangle(0, 0, viewW, viewH)

	switch f := field.(type) {
	case *GPUTrail:
		w, h := f.Size()
		rl.DrawTexturePro(f.Texture(), renderTextureSource(w, h), dst, rl.Vector2{}, 0, rl.White)

	case *trail.CPUField:
		w, h := f.Size()
		c.ensure(w, h)
		c.pixels = f.ToRGBA(c.pixels)
		rl.UpdateTexture(c.tex, c.pixels)
		src := rl.NewRectangle(0, 0, float32(w), float32(h))
		rl.DrawTexturePro(c.tex, src, dst, rl.Vector2{}, 0, rl.White)
	}
}

// ensure (re)creates the upload texture when the field size changes.
func (c *TrailCompositor) ensure(w, h int) {
	if c.tex.ID != 0 && c.w == w && c.h == h {
		return
	}
	if c.tex.ID != 0 {
		rl.UnloadTexture(c.tex)
	}
	img := rl.GenImageColor(w, h, rl.Black)
	c.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(c.tex, rl.FilterBilinear)
	c.w, c.h = w, h
}

// Unload releases the upload texture.
func (c *TrailCompositor) Unload() {
	if c.tex.ID != 0 {
		rl.UnloadTexture(c.tex)
		c.tex = rl.Texture2D{}
	}
}
