package trail

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// CPUField is a Field backed by two float32 RGBA rasters in host memory.
// Row 0 is the bottom edge of the field, matching texture UV orientation.
type CPUField struct {
	width, height int
	maxTexels     int // 0 disables the budget
	buffers       [2][]float32
	read          int
	params        Params
	passes        int

	onPass func(read, write int)
}

// NewCPUField allocates a field of w×h texels.
// maxTexels caps the allocation size; 0 means unlimited.
func NewCPUField(w, h, maxTexels int, p Params) (*CPUField, error) {
	f := &CPUField{maxTexels: maxTexels, params: p}
	if err := f.Resize(w, h); err != nil {
		return nil, err
	}
	return f, nil
}

// Resize reallocates both buffers and clears them to opaque black.
func (f *CPUField) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, w, h)
	}
	if f.maxTexels > 0 && w > f.maxTexels/h {
		return fmt.Errorf("%w: %dx%d exceeds budget of %d texels", ErrAllocation, w, h, f.maxTexels)
	}

	var next [2][]float32
	for i := range next {
		next[i] = make([]float32, w*h*4)
		fillBlack(next[i])
	}

	f.buffers = next
	f.width, f.height = w, h
	f.read = 0
	return nil
}

// Clear resets both buffers to opaque black without reallocating.
func (f *CPUField) Clear() {
	fillBlack(f.buffers[0])
	fillBlack(f.buffers[1])
}

// Size returns the field resolution.
func (f *CPUField) Size() (int, int) {
	return f.width, f.height
}

// SetParams replaces the fade and kernel settings.
func (f *CPUField) SetParams(p Params) {
	f.params = p
}

// Params returns the active settings.
func (f *CPUField) Params() Params {
	return f.params
}

// Splat copies the read buffer into the write buffer, adds the kernel around
// s.Position, and swaps. Non-finite positions are dropped without a pass.
func (f *CPUField) Splat(s Splat) {
	if !ValidPosition(s.Position) {
		return
	}

	src, dst := f.buffers[f.read], f.buffers[1-f.read]
	copy(dst, src)

	w, h := float64(f.width), float64(f.height)
	ext := KernelExtent(f.params.Radius)
	x0, x1 := texelSpan(s.Position.X, ext, w)
	y0, y1 := texelSpan(s.Position.Y, ext, h)

	radius := f.params.Radius
	intensity := f.params.Intensity
	for y := y0; y <= y1; y++ {
		dv := (float64(y)+0.5)/h - s.Position.Y
		row := y * f.width * 4
		for x := x0; x <= x1; x++ {
			du := (float64(x)+0.5)/w - s.Position.X
			weight := math.Exp(-(du*du + dv*dv) * radius)
			if weight <= kernelCutoff {
				continue
			}
			k := float32(weight * intensity)
			i := row + x*4
			dst[i] += s.Color.R * k
			dst[i+1] += s.Color.G * k
			dst[i+2] += s.Color.B * k
			dst[i+3] = 1
		}
	}

	f.swap()
}

// Step fades the field by the decay factor. dt only gates the pass.
func (f *CPUField) Step(dt float64) {
	if !ValidStep(dt) {
		return
	}

	src, dst := f.buffers[f.read], f.buffers[1-f.read]
	d := float32(f.params.Decay)
	for i := 0; i < len(src); i += 4 {
		dst[i] = src[i] * d
		dst[i+1] = src[i+1] * d
		dst[i+2] = src[i+2] * d
		dst[i+3] = src[i+3]
	}

	f.swap()
}

func (f *CPUField) swap() {
	f.passes++
	if f.onPass != nil {
		f.onPass(f.read, 1-f.read)
	}
	f.read = 1 - f.read
}

// ReadIndex returns which buffer currently holds the field.
func (f *CPUField) ReadIndex() int {
	return f.read
}

// Passes returns the number of read→write passes since creation.
func (f *CPUField) Passes() int {
	return f.passes
}

// Current returns the read buffer as packed RGBA rows, bottom row first.
// The slice is owned by the field and is overwritten by later passes.
func (f *CPUField) Current() []float32 {
	return f.buffers[f.read]
}

// At returns the texel at (x, y) with y counted from the bottom.
func (f *CPUField) At(x, y int) (r, g, b, a float32) {
	i := (y*f.width + x) * 4
	buf := f.buffers[f.read]
	return buf[i], buf[i+1], buf[i+2], buf[i+3]
}

// Energy returns the sum of all color channels, a rough measure of how much
// trail is on screen.
func (f *CPUField) Energy() float64 {
	var sum float64
	buf := f.buffers[f.read]
	for i := 0; i < len(buf); i += 4 {
		sum += float64(buf[i]) + float64(buf[i+1]) + float64(buf[i+2])
	}
	return sum
}

// Coverage returns the fraction of texels whose brightest channel exceeds threshold.
func (f *CPUField) Coverage(threshold float32) float64 {
	buf := f.buffers[f.read]
	n := len(buf) / 4
	if n == 0 {
		return 0
	}
	lit := 0
	for i := 0; i < len(buf); i += 4 {
		if buf[i] > threshold || buf[i+1] > threshold || buf[i+2] > threshold {
			lit++
		}
	}
	return float64(lit) / float64(n)
}

// ToRGBA writes the field as 8-bit pixels in image order (top row first),
// reusing dst when it is large enough.
func (f *CPUField) ToRGBA(dst []color.RGBA) []color.RGBA {
	n := f.width * f.height
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]

	buf := f.buffers[f.read]
	for y := 0; y < f.height; y++ {
		src := y * f.width * 4
		out := (f.height - 1 - y) * f.width
		for x := 0; x < f.width; x++ {
			i := src + x*4
			dst[out+x] = color.RGBA{
				R: toByte(buf[i]),
				G: toByte(buf[i+1]),
				B: toByte(buf[i+2]),
				A: toByte(buf[i+3]),
			}
		}
	}
	return dst
}

// Image returns a copy of the field as an image.RGBA.
func (f *CPUField) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	px := f.ToRGBA(nil)
	for i, c := range px {
		img.Pix[i*4] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

func fillBlack(buf []float32) {
	for i := 0; i < len(buf); i += 4 {
		buf[i] = 0
		buf[i+1] = 0
		buf[i+2] = 0
		buf[i+3] = 1
	}
}

// texelSpan returns the inclusive texel range whose centers lie within ext of
// center. A kernel wholly off the field yields an empty range (lo > hi).
func texelSpan(center, ext, size float64) (int, int) {
	lo := math.Ceil((center-ext)*size - 0.5)
	hi := math.Floor((center+ext)*size - 0.5)
	if !(lo <= size-1 && hi >= 0) {
		return 0, -1
	}
	lo = math.Max(lo, 0)
	hi = math.Min(hi, size-1)
	return int(lo), int(hi)
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
