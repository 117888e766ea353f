// Package renderer draws the trail field and agents with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/camera"
	"github.com/pthm-cable/physarum/field"
)

// TrailRenderer renders the trail field as a colour-mapped texture scaled
// to the window, with optional agent and sensor markers on top.
type TrailRenderer struct {
	palette Palette

	// Camera selects the visible region. Nil shows the whole grid.
	Camera *camera.Camera

	tex        rl.Texture2D
	texW, texH int
	norm       []float64
	pixels     []color.RGBA
	agents     []agent.State

	screenW, screenH float32
	initialized      bool

	ShowAgents  bool
	ShowSensors bool
}

// NewTrailRenderer creates a new trail renderer.
func NewTrailRenderer(screenW, screenH int32, palette Palette) *TrailRenderer {
	return &TrailRenderer{
		palette: palette,
		screenW: float32(screenW),
		screenH: float32(screenH),
	}
}

// Init creates the field texture (must be called after the raylib window is created).
func (r *TrailRenderer) Init(gridW, gridH int) {
	if r.initialized {
		return
	}

	r.texW = gridW
	r.texH = gridH
	r.norm = make([]float64, gridW*gridH)
	r.pixels = make([]color.RGBA, gridW*gridH)

	img := rl.GenImageColor(gridW, gridH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.SetTextureWrap(r.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	r.initialized = true
}

// Resize updates screen dimensions.
func (r *TrailRenderer) Resize(w, h float32) {
	r.screenW = w
	r.screenH = h
	if r.Camera != nil {
		r.Camera.Resize(w, h)
	}
}

// Update uploads the current field to the GPU texture.
func (r *TrailRenderer) Update(f field.Reader) {
	if !r.initialized {
		r.Init(f.Width(), f.Height())
	}
	if f.Width() != r.texW || f.Height() != r.texH {
		return
	}

	f.Normalize(r.norm)
	r.palette.Colorize(r.norm, r.pixels)
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw renders the field and, if enabled, agents from states.
func (r *TrailRenderer) Draw(states []agent.State) {
	if !r.initialized {
		return
	}

	cam := r.Camera
	if cam == nil {
		cam = camera.New(r.screenW, r.screenH, float32(r.texW), float32(r.texH), false)
	}

	// Wrapped source rectangles repeat the texture across grid edges
	vx, vy, vw, vh := cam.Visible()
	srcRect := rl.Rectangle{X: vx, Y: vy, Width: vw, Height: vh}
	dstRect := rl.Rectangle{X: 0, Y: 0, Width: r.screenW, Height: r.screenH}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)

	if !r.ShowAgents && !r.ShowSensors {
		return
	}

	sx, sy := cam.Scale()
	size := max(sx, sy, 1)
	for _, s := range states {
		if r.ShowAgents && cam.IsVisible(float32(s.Pos.X), float32(s.Pos.Y), 1) {
			x, y := cam.WorldToScreen(float32(s.Pos.X), float32(s.Pos.Y))
			rl.DrawRectangleV(rl.Vector2{X: x, Y: y}, rl.Vector2{X: size, Y: size}, agentColor)
		}
		if r.ShowSensors {
			for _, c := range [...]agent.Cell{s.Sensors.Front, s.Sensors.Left, s.Sensors.Right} {
				cx, cy := float32(c.X)+0.5, float32(c.Y)+0.5
				if !cam.IsVisible(cx, cy, 1) {
					continue
				}
				px, py := cam.WorldToScreen(cx, cy)
				rl.DrawCircleLines(int32(px), int32(py), size, sensorColor)
			}
		}
	}
}

var (
	agentColor  = rl.NewColor(120, 220, 255, 200)
	sensorColor = rl.NewColor(255, 80, 160, 160)
)

// Unload frees GPU resources.
func (r *TrailRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
