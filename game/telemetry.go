package game

import (
	"image"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/sim"
)

// record feeds one frame into the stats window and flushes it when due.
func (g *Game) record(res sim.FrameResult) {
	g.last = res

	sample := res.Sample()
	if g.cpuField != nil {
		sample.TrailEnergy = g.cpuField.Energy()
	}
	g.collector.Record(sample)
	g.flushTelemetry()
}

// flushTelemetry logs and writes the stats window once it is complete.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush() {
		return
	}

	stats := g.collector.Flush()
	perfStats := g.perf.Stats()

	if g.opts.LogStats {
		slog.Info("stats", "window", stats)
		slog.Info("perf", "stats", perfStats)
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// saveTrail writes the current trail field as a PNG into the output directory.
func (g *Game) saveTrail(name string) {
	var img image.Image
	switch {
	case g.cpuField != nil:
		img = g.cpuField.Image()
	case g.gpuField != nil:
		rimg := g.gpuField.Image()
		img = rimg.ToImage()
		rl.UnloadImage(rimg)
	default:
		return
	}

	if err := g.output.WriteImage(name, img); err != nil {
		slog.Error("failed to write trail image", "error", err)
		return
	}
	slog.Info("saved trail image", "dir", g.output.Dir(), "file", name)
}
