// Shader debug tool - drives the GPU trail field along a test path and writes
// the result, and the CPU field's result for the same splats, to PNG files.
//
// Usage: go run ./cmd/shaderdebug -out trail_gpu.png -cpu-out trail_cpu.png
package main

import (
	"flag"
	"fmt"
	"image"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/trails/renderer"
	"github.com/pthm-cable/trails/trail"
)

func main() {
	shaderDir := flag.String("shaders", "shaders", "Directory holding the trail shaders")
	outPath := flag.String("out", "trail_gpu.png", "Output PNG path for the GPU field")
	cpuOut := flag.String("cpu-out", "", "Optional output PNG path for the CPU field")
	width := flag.Int("width", 512, "Field width")
	height := flag.Int("height", 512, "Field height")
	frames := flag.Int("frames", 240, "Frames to simulate")
	decay := flag.Float64("decay", 0.96, "Per-step fade multiplier")
	radius := flag.Float64("radius", 100, "Splat kernel sharpness")
	intensity := flag.Float64("intensity", 0.15, "Splat intensity")
	flag.Parse()

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	params := trail.Params{Decay: *decay, Radius: *radius, Intensity: *intensity}
	maxTexels := *width * *height

	gpu, err := renderer.NewGPUTrail(*width, *height, maxTexels, params, *shaderDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create GPU trail: %v\n", err)
		os.Exit(1)
	}
	defer gpu.Unload()

	fields := []trail.Field{gpu}
	var cpu *trail.CPUField
	if *cpuOut != "" {
		cpu, err = trail.NewCPUField(*width, *height, maxTexels, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create CPU field: %v\n", err)
			os.Exit(1)
		}
		fields = append(fields, cpu)
	}

	// Two splats per frame tracing a Lissajous figure
	dt := 1.0 / 60
	for i := 0; i < *frames; i++ {
		t := float64(i) * dt
		for _, s := range testSplats(t) {
			for _, f := range fields {
				f.Splat(s)
			}
		}
		for _, f := range fields {
			f.Step(dt)
		}
	}

	img := gpu.Image()
	gpuImg := img.ToImage()
	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)
	if !success {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
	fmt.Printf("GPU trail rendered to: %s (%dx%d, %d passes)\n", *outPath, *width, *height, gpu.Passes())

	if cpu == nil {
		return
	}
	cimg := cpu.Image()
	rimg := rl.NewImageFromImage(cimg)
	success = rl.ExportImage(*rimg, *cpuOut)
	rl.UnloadImage(rimg)
	if !success {
		fmt.Fprintf(os.Stderr, "Failed to export CPU image\n")
		os.Exit(1)
	}
	fmt.Printf("CPU trail rendered to: %s (%d passes), max channel diff: %d\n",
		*cpuOut, cpu.Passes(), maxDiff(gpuImg, cimg))
}

// testSplats returns the splats for time t: one warm, one cool.
func testSplats(t float64) []trail.Splat {
	a := r2.Vec{X: 0.5 + 0.35*math.Sin(1.3*t), Y: 0.5 + 0.35*math.Sin(2.1*t)}
	b := r2.Vec{X: 0.5 + 0.25*math.Cos(0.9*t), Y: 0.5 + 0.3*math.Sin(1.7*t+1)}
	return []trail.Splat{
		{Position: a, Color: trail.Color{R: 1, G: 0.5, B: 0.2}},
		{Position: b, Color: trail.Color{R: 0.2, G: 0.6, B: 1}},
	}
}

// maxDiff returns the largest per-channel difference between two images of the same size.
func maxDiff(a, b image.Image) int {
	worst := 0
	bounds := a.Bounds().Intersect(b.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, _ := a.At(x, y).RGBA()
			br, bg, bb, _ := b.At(x, y).RGBA()
			for _, d := range []int{int(ar>>8) - int(br>>8), int(ag>>8) - int(bg>>8), int(ab>>8) - int(bb>>8)} {
				if d < 0 {
					d = -d
				}
				worst = max(worst, d)
			}
		}
	}
	return worst
}
