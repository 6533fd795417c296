package renderer

import (
	"fmt"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/trail"
)

var _ trail.Field = (*GPUTrail)(nil)

// GPUTrail is a trail.Field living in two render textures. Each pass draws
// the read texture through a fragment shader into the write texture, then
// swaps. Requires an open raylib window.
type GPUTrail struct {
	targets [2]rl.RenderTexture2D
	read    int
	width   int
	height  int

	maxTexels int
	params    trail.Params
	passes    int

	splatShader  rl.Shader
	pointLoc     int32
	colorLoc     int32
	radiusLoc    int32
	intensityLoc int32

	fadeShader rl.Shader
	decayLoc   int32
}

// NewGPUTrail loads the trail shaders from shaderDir and allocates a w×h field.
func NewGPUTrail(w, h, maxTexels int, p trail.Params, shaderDir string) (*GPUTrail, error) {
	g := &GPUTrail{maxTexels: maxTexels, params: p}

	splatPath := filepath.Join(shaderDir, "trail_splat.fs")
	g.splatShader = rl.LoadShader("", splatPath)
	if !rl.IsShaderValid(g.splatShader) {
		return nil, fmt.Errorf("loading %s: shader did not compile", splatPath)
	}
	g.pointLoc = rl.GetShaderLocation(g.splatShader, "point")
	g.colorLoc = rl.GetShaderLocation(g.splatShader, "color")
	g.radiusLoc = rl.GetShaderLocation(g.splatShader, "radius")
	g.intensityLoc = rl.GetShaderLocation(g.splatShader, "intensity")

	fadePath := filepath.Join(shaderDir, "trail_fade.fs")
	g.fadeShader = rl.LoadShader("", fadePath)
	if !rl.IsShaderValid(g.fadeShader) {
		rl.UnloadShader(g.splatShader)
		return nil, fmt.Errorf("loading %s: shader did not compile", fadePath)
	}
	g.decayLoc = rl.GetShaderLocation(g.fadeShader, "decay")

	if err := g.Resize(w, h); err != nil {
		rl.UnloadShader(g.splatShader)
		rl.UnloadShader(g.fadeShader)
		return nil, err
	}
	return g, nil
}

// Resize allocates a new texture pair cleared to opaque black. The old pair is
// released only after the new one is valid.
func (g *GPUTrail) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", trail.ErrAllocation, w, h)
	}
	if g.maxTexels > 0 && w > g.maxTexels/h {
		return fmt.Errorf("%w: %dx%d exceeds budget of %d texels", trail.ErrAllocation, w, h, g.maxTexels)
	}

	var next [2]rl.RenderTexture2D
	for i := range next {
		next[i] = rl.LoadRenderTexture(int32(w), int32(h))
		if next[i].ID == 0 || !rl.IsRenderTextureValid(next[i]) {
			for j := 0; j <= i; j++ {
				if next[j].ID != 0 {
					rl.UnloadRenderTexture(next[j])
				}
			}
			return fmt.Errorf("%w: render texture %dx%d", trail.ErrAllocation, w, h)
		}
		rl.SetTextureFilter(next[i].Texture, rl.FilterBilinear)
	}

	g.unloadTargets()
	g.targets = next
	g.width, g.height = w, h
	g.read = 0
	g.Clear()
	return nil
}

// Clear fills both textures with opaque black.
func (g *GPUTrail) Clear() {
	for _, t := range g.targets {
		if t.ID == 0 {
			continue
		}
		rl.BeginTextureMode(t)
		rl.ClearBackground(rl.Black)
		rl.EndTextureMode()
	}
}

// Size returns the field resolution.
func (g *GPUTrail) Size() (int, int) {
	return g.width, g.height
}

// SetParams replaces the fade and kernel settings.
func (g *GPUTrail) SetParams(p trail.Params) {
	g.params = p
}

// Splat runs one splat pass. Non-finite positions are dropped without a pass.
func (g *GPUTrail) Splat(s trail.Splat) {
	if !trail.ValidPosition(s.Position) {
		return
	}
	rl.SetShaderValue(g.splatShader, g.pointLoc, []float32{float32(s.Position.X), float32(s.Position.Y)}, rl.ShaderUniformVec2)
	rl.SetShaderValue(g.splatShader, g.colorLoc, []float32{s.Color.R, s.Color.G, s.Color.B}, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.splatShader, g.radiusLoc, []float32{float32(g.params.Radius)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(g.splatShader, g.intensityLoc, []float32{float32(g.params.Intensity)}, rl.ShaderUniformFloat)
	g.pass(g.splatShader)
}

// Step runs one fade pass. Non-positive or non-finite dt is a no-op.
func (g *GPUTrail) Step(dt float64) {
	if !trail.ValidStep(dt) {
		return
	}
	rl.SetShaderValue(g.fadeShader, g.decayLoc, []float32{float32(g.params.Decay)}, rl.ShaderUniformFloat)
	g.pass(g.fadeShader)
}

// pass draws the read texture through shader into the write texture.
func (g *GPUTrail) pass(shader rl.Shader) {
	src, dst := g.targets[g.read], g.targets[1-g.read]

	rl.BeginTextureMode(dst)
	rl.BeginShaderMode(shader)
	rl.DrawTexturePro(src.Texture,
		renderTextureSource(g.width, g.height),
		rl.NewRectangle(0, 0, float32(g.width), float32(g.height)),
		rl.Vector2{}, 0, rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	g.passes++
	g.read = 1 - g.read
}

// renderTextureSource is the source rectangle for drawing a w×h render
// texture upright. Render textures are stored bottom-up while texture mode
// and the screen draw top-down, so the source height is negated.
// DrawTexturePro offsets Y by the negative height itself.
func renderTextureSource(w, h int) rl.Rectangle {
	return rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: -float32(h)}
}

// Texture returns the texture holding the current field.
func (g *GPUTrail) Texture() rl.Texture2D {
	return g.targets[g.read].Texture
}

// Passes returns the number of passes since creation.
func (g *GPUTrail) Passes() int {
	return g.passes
}

// Image reads the current field back into an upright CPU image.
// The caller owns the result and must rl.UnloadImage it.
func (g *GPUTrail) Image() *rl.Image {
	img := rl.LoadImageFromTexture(g.Texture())
	rl.ImageFlipVertical(img)
	return img
}

func (g *GPUTrail) unloadTargets() {
	for i, t := range g.targets {
		if t.ID != 0 {
			rl.UnloadRenderTexture(t)
		}
		g.targets[i] = rl.RenderTexture2D{}
	}
}

// Unload releases the textures and shaders.
func (g *GPUTrail) Unload() {
	g.unloadTargets()
	rl.UnloadShader(g.splatShader)
	rl.UnloadShader(g.fadeShader)
}
