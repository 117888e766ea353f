package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Tick           int64
	Speed          int
	FPS            int32
	Paused         bool
	Agents         int
	Stats          telemetry.WindowStats
	TicksPerSecond float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	x, y := int32(10), int32(10)
	r.DrawPanel(x-5, y-5, 260, 150)

	rl.DrawText("Physarum", x, y, 20, rl.White)
	y += 26
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Speed, data.FPS),
		x, y, 14, rl.LightGray,
	)
	y += 18
	y = r.DrawLabelValue(x, y, "Agents", fmt.Sprintf("%d", data.Agents))
	y = r.DrawLabelValue(x, y, "Trail total", fmt.Sprintf("%.0f", data.Stats.FieldTotal))
	y = r.DrawBar(x, y, "Coverage", float32(data.Stats.Coverage), 250)
	y = r.DrawBar(x, y, "Top decile", float32(data.Stats.TopDecileShare), 250)

	status := fmt.Sprintf("%.0f ticks/s", data.TicksPerSecond)
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, x, y, 14, rl.Yellow)
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	lines := PerfLines(stats)
	p.renderer.DrawPanel(p.x-5, p.y-5, 250, int32(len(lines))*14+30)

	rl.DrawText("Performance", p.x, p.y, 16, rl.White)
	y := p.y + 20
	for i, line := range lines {
		color := rl.LightGray
		if i == 0 {
			color = rl.Yellow
		}
		rl.DrawText(line, p.x, y, 12, color)
		y += 14
	}
}

// PerfLines formats the average tick time followed by one line per timed
// phase in a fixed order.
func PerfLines(stats telemetry.PerfStats) []string {
	lines := []string{fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond)}
	for _, phase := range []string{telemetry.PhaseAgents, telemetry.PhaseField, telemetry.PhaseTelemetry, telemetry.PhaseStream} {
		avg, ok := stats.PhaseAvg[phase]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-10s %8s %5.1f%%", phase, avg.Round(time.Microsecond), stats.PhasePct[phase]))
	}
	return lines
}
