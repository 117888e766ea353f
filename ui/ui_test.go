package ui

import (
	"strings"
	"testing"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/telemetry"
)

func TestOverlayRegistryDefaults(t *testing.T) {
	reg := NewOverlayRegistry()
	if !reg.IsEnabled(OverlayHUD) || !reg.IsEnabled(OverlayControls) {
		t.Error("HUD and controls should start enabled")
	}
	if reg.IsEnabled(OverlayAgents) || reg.IsEnabled(OverlaySensors) {
		t.Error("agent overlays should start disabled")
	}
	if len(reg.All()) != 5 {
		t.Errorf("registered %d overlays, want 5", len(reg.All()))
	}
}

func TestOverlayRegistryKeys(t *testing.T) {
	reg := NewOverlayRegistry()

	id, on, ok := reg.HandleKeyPress(rl.KeyA)
	if !ok || id != OverlayAgents || !on {
		t.Errorf("HandleKeyPress(A) = %v, %v, %v", id, on, ok)
	}
	if _, on, _ = reg.HandleKeyPress(rl.KeyA); on {
		t.Error("second press should disable")
	}
	if _, _, ok = reg.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key toggled an overlay")
	}
	if reg.Toggle("missing") {
		t.Error("unknown overlay toggled on")
	}
}

func TestPerfLines(t *testing.T) {
	stats := telemetry.PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		TicksPerSecond:  500,
		PhaseAvg: map[string]time.Duration{
			telemetry.PhaseField:  500 * time.Microsecond,
			telemetry.PhaseAgents: 1500 * time.Microsecond,
		},
		PhasePct: map[string]float64{
			telemetry.PhaseField:  25,
			telemetry.PhaseAgents: 75,
		},
	}
	lines := PerfLines(stats)
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[1], "agents") || !strings.HasPrefix(lines[2], "field") {
		t.Errorf("phase order = %q", lines[1:])
	}
	if !strings.Contains(lines[1], "75.0%") {
		t.Errorf("agents line = %q", lines[1])
	}
}

func TestActionString(t *testing.T) {
	if ActionReset.String() != "reset" || ActionNone.String() != "none" {
		t.Error("unexpected action names")
	}
}
