package renderer

import (
	"image/color"
	"testing"
)

func TestPaletteAt(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want color.RGBA
	}{
		{"zero", 0, color.RGBA{0, 0, 0, 255}},
		{"below range", -1, color.RGBA{0, 0, 0, 255}},
		{"one", 1, color.RGBA{255, 255, 255, 255}},
		{"above range", 2, color.RGBA{255, 255, 255, 255}},
		{"midpoint", 0.5, color.RGBA{128, 128, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Grayscale.At(tt.v); got != tt.want {
				t.Errorf("At(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestAmberBrightensMonotonically(t *testing.T) {
	luma := func(c color.RGBA) int { return 299*int(c.R) + 587*int(c.G) + 114*int(c.B) }
	prev := -1
	for i := 0; i <= 100; i++ {
		l := luma(Amber.At(float64(i) / 100))
		if l < prev {
			t.Fatalf("luminance drops at %d%%: %d < %d", i, l, prev)
		}
		prev = l
	}
}

func TestColorize(t *testing.T) {
	norm := []float64{0, 1, 0.5}
	dst := make([]color.RGBA, len(norm))
	Grayscale.Colorize(norm, dst)
	if dst[0].R != 0 || dst[1].R != 255 || dst[2].R != 128 {
		t.Errorf("Colorize = %v", dst)
	}
}

func TestPaletteByName(t *testing.T) {
	if got := PaletteByName("gray"); len(got) != len(Grayscale) {
		t.Error("gray did not select Grayscale")
	}
	if got := PaletteByName(""); len(got) != len(Amber) {
		t.Error("default is not Amber")
	}
}
