package trail

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func newTestField(t *testing.T, w, h int, p Params) *CPUField {
	t.Helper()
	f, err := NewCPUField(w, h, 0, p)
	if err != nil {
		t.Fatalf("NewCPUField: %v", err)
	}
	return f
}

// texelCenter returns the UV of the center of texel (x, y).
func texelCenter(f *CPUField, x, y int) r2.Vec {
	w, h := f.Size()
	return r2.Vec{X: (float64(x) + 0.5) / float64(w), Y: (float64(y) + 0.5) / float64(h)}
}

func TestNewFieldIsOpaqueBlack(t *testing.T) {
	f := newTestField(t, 8, 4, DefaultParams())

	if w, h := f.Size(); w != 8 || h != 4 {
		t.Fatalf("expected 8x4, got %dx%d", w, h)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, a := f.At(x, y)
			if r != 0 || g != 0 || b != 0 || a != 1 {
				t.Fatalf("texel (%d,%d) = %v %v %v %v, want opaque black", x, y, r, g, b, a)
			}
		}
	}
}

func TestPassesNeverReadAndWriteSameBuffer(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())

	var reads []int
	f.onPass = func(read, write int) {
		if read == write {
			t.Fatalf("pass %d reads and writes buffer %d", len(reads), read)
		}
		reads = append(reads, read)
	}

	c := Color{R: 1}
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: c})
	f.Step(1.0 / 60)
	f.Splat(Splat{Position: r2.Vec{X: 0.2, Y: 0.7}, Color: c})
	f.Step(1.0 / 60)

	if len(reads) != 4 {
		t.Fatalf("expected 4 passes, got %d", len(reads))
	}
	for i := 1; i < len(reads); i++ {
		if reads[i] == reads[i-1] {
			t.Errorf("pass %d did not swap buffers", i)
		}
	}
	if f.Passes() != 4 {
		t.Errorf("expected pass counter 4, got %d", f.Passes())
	}
}

func TestSplatPeakAtCenter(t *testing.T) {
	p := Params{Decay: 0.96, Radius: 100, Intensity: 0.15}
	f := newTestField(t, 64, 64, p)

	f.Splat(Splat{Position: texelCenter(f, 32, 20), Color: Color{R: 1, G: 0.5}})

	r, g, b, a := f.At(32, 20)
	if math.Abs(float64(r)-0.15) > 1e-6 || math.Abs(float64(g)-0.075) > 1e-6 || b != 0 || a != 1 {
		t.Errorf("center texel = %v %v %v %v, want 0.15 0.075 0 1", r, g, b, a)
	}

	// Falls off with distance
	near, _, _, _ := f.At(34, 20)
	far, _, _, _ := f.At(50, 20)
	if !(near < r && far < near) {
		t.Errorf("expected falloff, got center=%v near=%v far=%v", r, near, far)
	}

	// Outside the kernel support nothing is written
	corner, _, _, _ := f.At(0, 63)
	if corner != 0 {
		t.Errorf("expected untouched corner, got %v", corner)
	}
}

func TestSplatAccumulates(t *testing.T) {
	f := newTestField(t, 32, 32, Params{Decay: 1, Radius: 100, Intensity: 0.15})
	pos := texelCenter(f, 16, 16)

	f.Splat(Splat{Position: pos, Color: Color{G: 1}})
	f.Splat(Splat{Position: pos, Color: Color{G: 1}})

	_, g, _, _ := f.At(16, 16)
	if math.Abs(float64(g)-0.3) > 1e-6 {
		t.Errorf("expected two splats to sum to 0.3, got %v", g)
	}
}

func TestSplatOffFieldStillSwaps(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())
	before := f.ReadIndex()

	f.Splat(Splat{Position: r2.Vec{X: 5, Y: -5}, Color: Color{R: 1}})

	if f.ReadIndex() == before {
		t.Error("expected a pass even when the kernel misses the field")
	}
	if f.Energy() != 0 {
		t.Errorf("expected no paint, got energy %f", f.Energy())
	}
}

func TestSplatFarOutsideFieldReturns(t *testing.T) {
	f := newTestField(t, 64, 64, DefaultParams())

	far := []r2.Vec{
		{X: 0.5, Y: 1e18},
		{X: -1e18, Y: 0.5},
		{X: 1e300, Y: -1e300},
	}
	for i, p := range far {
		f.Splat(Splat{Position: p, Color: Color{R: 1}})
		if f.Passes() != i+1 {
			t.Fatalf("splat at %v: expected %d passes, got %d", p, i+1, f.Passes())
		}
	}
	if f.Energy() != 0 {
		t.Errorf("expected no paint, got energy %f", f.Energy())
	}
}

func TestTexelSpan(t *testing.T) {
	ext := KernelExtent(100)
	tests := []struct {
		name   string
		center float64
		empty  bool
	}{
		{"middle", 0.5, false},
		{"edge", 1.0, false},
		{"just below", -0.4, true},
		{"far above", 1e18, true},
		{"far below", -1e18, true},
		{"beyond int range", 1e300, true},
	}
	for _, tt := range tests {
		lo, hi := texelSpan(tt.center, ext, 64)
		if tt.empty {
			if lo <= hi {
				t.Errorf("%s: expected empty span, got [%d, %d]", tt.name, lo, hi)
			}
			continue
		}
		if lo < 0 || hi > 63 || lo > hi {
			t.Errorf("%s: span [%d, %d] outside [0, 63]", tt.name, lo, hi)
		}
	}
}

func TestSplatIgnoresNonFinitePosition(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())

	f.Splat(Splat{Position: r2.Vec{X: math.NaN(), Y: 0.5}, Color: Color{R: 1}})

	if f.Passes() != 0 {
		t.Errorf("expected no pass, got %d", f.Passes())
	}
}

func TestTrailFadesAfterSplat(t *testing.T) {
	f := newTestField(t, 32, 32, Params{Decay: 0.9, Radius: 100, Intensity: 1})
	f.Splat(Splat{Position: texelCenter(f, 16, 16), Color: Color{R: 1}})

	prev, _, _, _ := f.At(16, 16)
	if prev <= 0 {
		t.Fatal("expected painted texel")
	}
	for i := 0; i < 200; i++ {
		f.Step(1.0 / 60)
		r, _, _, a := f.At(16, 16)
		if r >= prev {
			t.Fatalf("step %d: texel did not fade (%v -> %v)", i, prev, r)
		}
		if a != 1 {
			t.Fatalf("step %d: alpha changed to %v", i, a)
		}
		prev = r
	}
	if prev > 1e-6 {
		t.Errorf("expected trail to approach black, got %v", prev)
	}
}

func TestDecayOneKeepsTrail(t *testing.T) {
	f := newTestField(t, 16, 16, Params{Decay: 1, Radius: 100, Intensity: 0.5})
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{B: 1}})
	want := f.Energy()

	for i := 0; i < 10; i++ {
		f.Step(1.0 / 60)
	}
	if got := f.Energy(); got != want {
		t.Errorf("expected energy %f preserved, got %f", want, got)
	}
}

func TestStepNonPositiveIsNoop(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{R: 1}})

	idx, passes, energy := f.ReadIndex(), f.Passes(), f.Energy()
	for _, dt := range []float64{0, -0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		f.Step(dt)
	}

	if f.ReadIndex() != idx || f.Passes() != passes || f.Energy() != energy {
		t.Errorf("expected untouched field, got index %d passes %d energy %f", f.ReadIndex(), f.Passes(), f.Energy())
	}
}

func TestResizeClears(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{R: 1}})

	if err := f.Resize(40, 10); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := f.Size(); w != 40 || h != 10 {
		t.Errorf("expected 40x10, got %dx%d", w, h)
	}
	if f.Energy() != 0 {
		t.Errorf("expected cleared field, got energy %f", f.Energy())
	}
	if _, _, _, a := f.At(39, 9); a != 1 {
		t.Errorf("expected opaque alpha, got %v", a)
	}
}

func TestResizeFailureKeepsBuffers(t *testing.T) {
	f, err := NewCPUField(10, 10, 200, DefaultParams())
	if err != nil {
		t.Fatalf("NewCPUField: %v", err)
	}
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{R: 1}})
	energy := f.Energy()

	tests := []struct {
		name string
		w, h int
	}{
		{"over budget", 20, 20},
		{"zero width", 0, 10},
		{"negative height", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Resize(tt.w, tt.h)
			if !errors.Is(err, ErrAllocation) {
				t.Fatalf("expected ErrAllocation, got %v", err)
			}
			if w, h := f.Size(); w != 10 || h != 10 {
				t.Errorf("expected size kept at 10x10, got %dx%d", w, h)
			}
			if f.Energy() != energy {
				t.Errorf("expected content kept, energy %f -> %f", energy, f.Energy())
			}
		})
	}
}

func TestNewFieldFailure(t *testing.T) {
	if _, err := NewCPUField(100, 100, 50, DefaultParams()); !errors.Is(err, ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
}

func TestClear(t *testing.T) {
	f := newTestField(t, 16, 16, DefaultParams())
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{R: 1}})
	f.Clear()
	if f.Energy() != 0 {
		t.Errorf("expected cleared field, got energy %f", f.Energy())
	}
}

func TestToRGBAFlipsRows(t *testing.T) {
	f := newTestField(t, 8, 8, Params{Decay: 1, Radius: 2000, Intensity: 1})
	f.Splat(Splat{Position: texelCenter(f, 3, 0), Color: Color{R: 1}})

	px := f.ToRGBA(nil)
	if len(px) != 64 {
		t.Fatalf("expected 64 pixels, got %d", len(px))
	}
	// Bottom texel row is the last image row
	if got := px[7*8+3]; got.R != 255 || got.A != 255 {
		t.Errorf("expected bright pixel at image (3,7), got %+v", got)
	}
	if got := px[3]; got.R != 0 {
		t.Errorf("expected dark pixel at image (3,0), got %+v", got)
	}

	img := f.Image()
	if c := img.RGBAAt(3, 7); c.R != 255 {
		t.Errorf("expected image pixel (3,7) bright, got %+v", c)
	}
}

func TestCoverage(t *testing.T) {
	f := newTestField(t, 10, 10, Params{Decay: 1, Radius: 100, Intensity: 1})
	if f.Coverage(0.01) != 0 {
		t.Error("expected zero coverage on empty field")
	}
	f.Splat(Splat{Position: r2.Vec{X: 0.5, Y: 0.5}, Color: Color{R: 1}})
	c := f.Coverage(0.01)
	if c <= 0 || c >= 1 {
		t.Errorf("expected partial coverage, got %f", c)
	}
}

func TestNDCToUV(t *testing.T) {
	tests := []struct {
		x, y float64
		want r2.Vec
	}{
		{-1, -1, r2.Vec{X: 0, Y: 0}},
		{1, 1, r2.Vec{X: 1, Y: 1}},
		{0, 0, r2.Vec{X: 0.5, Y: 0.5}},
		{0.5, -0.5, r2.Vec{X: 0.75, Y: 0.25}},
	}
	for _, tt := range tests {
		if got := NDCToUV(tt.x, tt.y); got != tt.want {
			t.Errorf("NDCToUV(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestKernelExtent(t *testing.T) {
	ext := KernelExtent(100)
	if w := math.Exp(-ext * ext * 100); math.Abs(w-kernelCutoff) > 1e-12 {
		t.Errorf("expected weight at extent to equal cutoff, got %g", w)
	}
	if KernelExtent(0) < 1 {
		t.Error("expected degenerate radius to cover the field")
	}
}

func TestValidStep(t *testing.T) {
	tests := []struct {
		dt   float64
		want bool
	}{
		{1.0 / 60, true},
		{10, true},
		{0, false},
		{-0.1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}
	for _, tt := range tests {
		if got := ValidStep(tt.dt); got != tt.want {
			t.Errorf("ValidStep(%v) = %v, want %v", tt.dt, got, tt.want)
		}
	}
}

func TestValidPosition(t *testing.T) {
	tests := []struct {
		p    r2.Vec
		want bool
	}{
		{r2.Vec{X: 0.5, Y: 0.5}, true},
		{r2.Vec{X: -3, Y: 1e18}, true},
		{r2.Vec{X: math.NaN(), Y: 0.5}, false},
		{r2.Vec{X: 0.5, Y: math.Inf(1)}, false},
		{r2.Vec{X: math.Inf(-1), Y: 0}, false},
	}
	for _, tt := range tests {
		if got := ValidPosition(tt.p); got != tt.want {
			t.Errorf("ValidPosition(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
