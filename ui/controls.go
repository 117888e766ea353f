package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Action is a request from the controls panel to the main loop.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePause
	ActionStep
	ActionReset
	ActionSnapshot
)

func (a Action) String() string {
	switch a {
	case ActionTogglePause:
		return "toggle_pause"
	case ActionStep:
		return "step"
	case ActionReset:
		return "reset"
	case ActionSnapshot:
		return "snapshot"
	default:
		return "none"
	}
}

// Params are the live-tunable values shown by the controls panel.
type Params struct {
	Decay     float32
	Diffusion float32
	Speed     int
}

// Slider ranges.
const (
	MaxDecay = 2.0
	MaxSpeed = 64
)

// ControlsPanel renders raygui sliders and buttons plus the overlay list.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the panel, updates p from the sliders and returns the
// button pressed this frame, if any.
func (c *ControlsPanel) Draw(p *Params, paused bool, overlays *OverlayRegistry) Action {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	rows := int32(len(overlays.All()))
	panelHeight := padding*2 + lineHeight*(3+rows) + 3*36 + 2*34
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding
	sliderW := float32(c.width - padding*2 - 50)

	y = r.DrawSectionHeader(c.x+padding, y, "Trail")

	p.Decay = c.slider(x, &y, sliderW, "Decay", fmt.Sprintf("%.3f", p.Decay), p.Decay, 0, MaxDecay)
	p.Diffusion = c.slider(x, &y, sliderW, "Diffusion", fmt.Sprintf("%.2f", p.Diffusion), p.Diffusion, 0, 1)
	speed := c.slider(x, &y, sliderW, "Speed", fmt.Sprintf("%dx", p.Speed), float32(p.Speed), 1, MaxSpeed)
	p.Speed = int(speed + 0.5)

	action := ActionNone
	bw := float32(c.width-padding*3) / 2
	fy := float32(y)
	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: fy, Width: bw, Height: 28}, pauseLabel) {
		action = ActionTogglePause
	}
	if gui.Button(rl.Rectangle{X: x + bw + float32(padding), Y: fy, Width: bw, Height: 28}, "Step") {
		action = ActionStep
	}
	fy += 34
	if gui.Button(rl.Rectangle{X: x, Y: fy, Width: bw, Height: 28}, "Reset") {
		action = ActionReset
	}
	if gui.Button(rl.Rectangle{X: x + bw + float32(padding), Y: fy, Width: bw, Height: 28}, "Snapshot") {
		action = ActionSnapshot
	}
	y = int32(fy) + 34

	y = r.DrawSectionHeader(c.x+padding, y, "Overlays")
	for _, desc := range overlays.All() {
		c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
		y += lineHeight
	}

	return action
}

func (c *ControlsPanel) slider(x float32, y *int32, width float32, label, value string, v, lo, hi float32) float32 {
	r := c.renderer
	rl.DrawText(label, int32(x), *y, r.Theme.FontSize, r.Theme.LabelColor)
	*y += 14
	nv := gui.SliderBar(rl.Rectangle{X: x, Y: float32(*y), Width: width, Height: 16}, "", "", v, lo, hi)
	rl.DrawText(value, int32(x+width+6), *y+2, r.Theme.FontSize, r.Theme.ValueColor)
	*y += 22
	return nv
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 255, G: 170, B: 60, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Gray)
	}
}
