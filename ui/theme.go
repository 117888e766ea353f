// Package ui draws the raylib HUD, the raygui controls panel and the
// overlay toggles for the graphical viewer.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme defines the visual styling for UI elements.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillHigh    rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 16, B: 14, A: 230},
		PanelBorder:    rl.Color{R: 80, G: 60, B: 40, A: 255},
		SectionHeader:  rl.Orange,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 200, G: 120, B: 40, A: 255},
		BarFillHigh:    rl.Color{R: 255, G: 200, B: 80, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
