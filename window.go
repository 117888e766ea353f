package main

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/camera"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/renderer"
	"github.com/pthm-cable/physarum/ui"
)

const controlsLegend = "[Space] Pause  [N] Step  [+/-] Speed  [R] Reset  [F5] Snapshot  [A/S/H/P/Tab] Overlays  [Wheel/RMB/Home] View"

// runWindow runs the graphical loop until the window closes or maxTicks is
// reached (0 = unlimited).
func runWindow(cfg *config.Config, g *game.Game, paletteName string, maxTicks int64) {
	screenW, screenH := int32(cfg.Screen.Width), int32(cfg.Screen.Height)
	rl.InitWindow(screenW, screenH, "Physarum")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	trail := renderer.NewTrailRenderer(screenW, screenH, renderer.PaletteByName(paletteName))
	trail.Camera = camera.New(float32(screenW), float32(screenH),
		float32(cfg.World.Width), float32(cfg.World.Height), cfg.World.Boundary == config.BoundaryToroidal)
	trail.Init(cfg.World.Width, cfg.World.Height)
	defer trail.Unload()

	overlays := ui.NewOverlayRegistry()
	overlays.SetEnabled(ui.OverlayAgents, cfg.Screen.ShowAgents)
	overlays.SetEnabled(ui.OverlaySensors, cfg.Screen.ShowSensors)

	hud := ui.NewHUD()
	perf := ui.NewPerfPanel(15, 175)
	controls := ui.NewControlsPanel(screenW-240, 10, 230)

	var states []agent.State

	for !rl.WindowShouldClose() {
		for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
			if _, _, ok := overlays.HandleKeyPress(key); ok {
				continue
			}
			switch key {
			case rl.KeySpace:
				handleAction(g, ui.ActionTogglePause)
			case rl.KeyN:
				handleAction(g, ui.ActionStep)
			case rl.KeyR:
				handleAction(g, ui.ActionReset)
			case rl.KeyF5:
				handleAction(g, ui.ActionSnapshot)
			case rl.KeyEqual, rl.KeyKpAdd:
				g.SetSpeed(g.Speed() * 2)
			case rl.KeyMinus, rl.KeyKpSubtract:
				g.SetSpeed(g.Speed() / 2)
			case rl.KeyHome:
				trail.Camera.Reset()
			}
		}
		handleCamera(trail.Camera)

		g.Update()

		trail.ShowAgents = overlays.IsEnabled(ui.OverlayAgents)
		trail.ShowSensors = overlays.IsEnabled(ui.OverlaySensors)
		if trail.ShowAgents || trail.ShowSensors {
			states = g.Sim().Agents(states[:0])
		} else {
			states = states[:0]
		}
		trail.Update(g.Sim().Field())

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		trail.Draw(states)

		perfStats := g.Perf()
		if overlays.IsEnabled(ui.OverlayHUD) {
			hud.Draw(ui.HUDData{
				Tick:           g.Tick(),
				Speed:          g.Speed(),
				FPS:            rl.GetFPS(),
				Paused:         g.Paused(),
				Agents:         g.Sim().AgentCount(),
				Stats:          g.LastStats(),
				TicksPerSecond: perfStats.TicksPerSecond,
			})
			hud.DrawControls(screenH, controlsLegend)
		}
		if overlays.IsEnabled(ui.OverlayPerf) {
			perf.Draw(perfStats)
		}
		if overlays.IsEnabled(ui.OverlayControls) {
			s := g.Sim()
			params := ui.Params{Decay: float32(s.Decay()), Diffusion: float32(s.Diffusion()), Speed: g.Speed()}
			before := params
			action := controls.Draw(&params, g.Paused(), overlays)
			if params.Decay != before.Decay {
				s.SetDecay(float64(params.Decay))
			}
			if params.Diffusion != before.Diffusion {
				s.SetDiffusion(float64(params.Diffusion))
			}
			if params.Speed != before.Speed {
				g.SetSpeed(params.Speed)
			}
			handleAction(g, action)
		}
		rl.EndDrawing()
		g.RecordFrame()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
}

// handleAction applies a control request from the keyboard or the panel.
func handleAction(g *game.Game, a ui.Action) {
	switch a {
	case ui.ActionTogglePause:
		g.TogglePause()
	case ui.ActionStep:
		if g.Paused() {
			g.StepOnce()
		}
	case ui.ActionReset:
		if err := g.Reset(time.Now().UnixNano()); err != nil {
			slog.Error("reset failed", "error", err)
		}
	case ui.ActionSnapshot:
		path, err := g.SaveSnapshot()
		if err != nil {
			slog.Error("snapshot failed", "error", err)
			return
		}
		slog.Info("snapshot saved", "path", path)
	}
}

// handleCamera zooms with the mouse wheel and pans with a right-button drag.
func handleCamera(cam *camera.Camera) {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		factor := float32(1.15)
		if wheel < 0 {
			factor = 1 / factor
		}
		cam.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Pan(d.X, d.Y)
	}
}
