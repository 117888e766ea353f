package renderer

import "image/color"

// Stop is one colour of a gradient at position At in [0,1].
type Stop struct {
	At    float64
	Color color.RGBA
}

// Palette maps normalized intensity to colour by linear interpolation
// between stops sorted by At.
type Palette []Stop

// Built-in palettes.
var (
	Amber = Palette{
		{0.00, color.RGBA{0, 0, 0, 255}},
		{0.15, color.RGBA{60, 14, 4, 255}},
		{0.45, color.RGBA{200, 80, 10, 255}},
		{0.75, color.RGBA{255, 196, 60, 255}},
		{1.00, color.RGBA{255, 255, 230, 255}},
	}
	Grayscale = Palette{
		{0, color.RGBA{0, 0, 0, 255}},
		{1, color.RGBA{255, 255, 255, 255}},
	}
)

// PaletteByName returns a built-in palette, defaulting to Amber.
func PaletteByName(name string) Palette {
	switch name {
	case "gray", "grayscale":
		return Grayscale
	default:
		return Amber
	}
}

// At returns the colour for v, clamped to [0,1].
func (p Palette) At(v float64) color.RGBA {
	if len(p) == 0 {
		return color.RGBA{A: 255}
	}
	if v <= p[0].At {
		return p[0].Color
	}
	for i := 1; i < len(p); i++ {
		hi := p[i]
		if v > hi.At {
			continue
		}
		lo := p[i-1]
		t := (v - lo.At) / (hi.At - lo.At)
		return color.RGBA{
			R: lerp8(lo.Color.R, hi.Color.R, t),
			G: lerp8(lo.Color.G, hi.Color.G, t),
			B: lerp8(lo.Color.B, hi.Color.B, t),
			A: lerp8(lo.Color.A, hi.Color.A, t),
		}
	}
	return p[len(p)-1].Color
}

// Colorize writes the colour of every normalized value in norm into dst.
// dst must be at least as long as norm.
func (p Palette) Colorize(norm []float64, dst []color.RGBA) {
	for i, v := range norm {
		dst[i] = p.At(v)
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
