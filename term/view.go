// Package term renders the trail field into a terminal with tcell.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/physarum/field"
)

// shades orders runes from empty to dense.
var shades = []rune(" .:-=+*#%@")

// Command is a viewer request decoded from a key press.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandTogglePause
	CommandFaster
	CommandSlower
	CommandReset
)

// View draws a downsampled field on a tcell screen. The bottom row is
// reserved for a status line.
type View struct {
	screen tcell.Screen
	norm   []float64
}

// NewView wraps an initialized screen.
func NewView(screen tcell.Screen) *View {
	return &View{screen: screen}
}

// Draw renders f scaled to the screen and shows status on the last row.
func (v *View) Draw(f field.Reader, status string) {
	v.screen.Clear()

	sw, sh := v.screen.Size()
	rows := sh - 1
	if sw <= 0 || rows <= 0 {
		v.screen.Show()
		return
	}

	fw, fh := f.Width(), f.Height()
	if len(v.norm) != fw*fh {
		v.norm = make([]float64, fw*fh)
	}
	f.Normalize(v.norm)

	for sy := 0; sy < rows; sy++ {
		y0, y1 := span(sy, rows, fh)
		for sx := 0; sx < sw; sx++ {
			x0, x1 := span(sx, sw, fw)
			val := blockMean(v.norm, fw, x0, x1, y0, y1)
			v.screen.SetContent(sx, sy, Shade(val), nil, styleFor(val))
		}
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, r := range []rune(status) {
		if i >= sw {
			break
		}
		v.screen.SetContent(i, rows, r, nil, style)
	}
	v.screen.Show()
}

// span maps screen index i of n onto the field range [lo, hi) of size m.
// Every screen cell covers at least one field cell.
func span(i, n, m int) (int, int) {
	lo := i * m / n
	hi := (i + 1) * m / n
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func blockMean(norm []float64, w, x0, x1, y0, y1 int) float64 {
	var sum float64
	for y := y0; y < y1; y++ {
		row := norm[y*w : (y+1)*w]
		for x := x0; x < x1; x++ {
			sum += row[x]
		}
	}
	return sum / float64((x1-x0)*(y1-y0))
}

// Shade returns the rune for a normalized intensity.
func Shade(v float64) rune {
	v = min(max(v, 0), 1)
	return shades[int(v*float64(len(shades)-1)+0.5)]
}

func styleFor(v float64) tcell.Style {
	c := tcell.NewRGBColor(int32(255*v), int32(160*v*v), int32(40*v*v*v))
	return tcell.StyleDefault.Foreground(c)
}

// HandleEvent decodes a key event into a Command.
func HandleEvent(ev tcell.Event) Command {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return CommandNone
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CommandQuit
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return CommandQuit
		case ' ':
			return CommandTogglePause
		case '+', '.', '>':
			return CommandFaster
		case '-', ',', '<':
			return CommandSlower
		case 'r':
			return CommandReset
		}
	}
	return CommandNone
}

// Status formats the default status line.
func Status(tick int64, speed int, paused bool, total float64) string {
	state := "running"
	if paused {
		state = "paused"
	}
	return fmt.Sprintf(" tick %d | %dx | %s | trail %.0f | q quit, space pause, +/- speed, r reset", tick, speed, state, total)
}
