// Package field provides the trail grid agents deposit into and sense from,
// plus the per-step decay and diffusion transform applied to it.
package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Boundary selects how out-of-range cell coordinates are resolved.
type Boundary uint8

const (
	Toroidal Boundary = iota // opposite edges touch
	Clamped                  // saturate at the edge
)

func (b Boundary) String() string {
	switch b {
	case Toroidal:
		return "toroidal"
	case Clamped:
		return "clamped"
	default:
		return fmt.Sprintf("Boundary(%d)", uint8(b))
	}
}

// Resolve maps (x, y) into [0,w) x [0,h) according to the boundary policy.
func (b Boundary) Resolve(x, y, w, h int) (int, int) {
	if b == Clamped {
		return ClampInt(x, 0, w-1), ClampInt(y, 0, h-1)
	}
	return Wrap(x, w), Wrap(y, h)
}

// Wrap returns n modulo m in [0, m) for any sign of n. m must be positive.
func Wrap(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}

// ClampInt saturates n into [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Reader is the read-only view handed to rendering and telemetry layers.
type Reader interface {
	Width() int
	Height() int
	Boundary() Boundary
	Get(x, y int) float64
	Values() []float64
	Total() float64
	Max() float64
	Normalize(dst []float64) []float64
}

// Field is a fixed-size scalar grid with non-negative trail intensities.
// Storage is row-major: cell (x, y) lives at index y*width + x.
type Field struct {
	w, h     int
	boundary Boundary
	data     []float64
}

// New creates a zeroed width x height field.
func New(width, height int, boundary Boundary) *Field {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("field: invalid size %dx%d", width, height))
	}
	return &Field{
		w:        width,
		h:        height,
		boundary: boundary,
		data:     make([]float64, width*height),
	}
}

// Width returns the number of columns.
func (f *Field) Width() int { return f.w }

// Height returns the number of rows.
func (f *Field) Height() int { return f.h }

// Boundary returns the addressing policy.
func (f *Field) Boundary() Boundary { return f.boundary }

func (f *Field) index(x, y int) int {
	x, y = f.boundary.Resolve(x, y, f.w, f.h)
	return y*f.w + x
}

// Get returns the value at (x, y) after boundary resolution.
func (f *Field) Get(x, y int) float64 {
	return f.data[f.index(x, y)]
}

// Set overwrites the value at (x, y).
func (f *Field) Set(x, y int, v float64) {
	f.data[f.index(x, y)] = v
}

// Add increments the value at (x, y) by delta.
func (f *Field) Add(x, y int, delta float64) {
	f.data[f.index(x, y)] += delta
}

// DecayAll subtracts rate from every cell, flooring at zero.
func (f *Field) DecayAll(rate float64) {
	for i, v := range f.data {
		v -= rate
		if v < 0 {
			v = 0
		}
		f.data[i] = v
	}
}

// Values returns the backing slice. Callers must treat it as read-only;
// it is replaced on every diffusion pass.
func (f *Field) Values() []float64 {
	return f.data
}

// Total returns the summed intensity over all cells.
func (f *Field) Total() float64 {
	return floats.Sum(f.data)
}

// Max returns the largest cell value.
func (f *Field) Max() float64 {
	return floats.Max(f.data)
}

// Normalize writes every value divided by the current maximum into dst,
// growing it if needed. An all-zero field normalizes to all zeros.
func (f *Field) Normalize(dst []float64) []float64 {
	if cap(dst) < len(f.data) {
		dst = make([]float64, len(f.data))
	}
	dst = dst[:len(f.data)]

	max := f.Max()
	if max <= 0 {
		clear(dst)
		return dst
	}
	copy(dst, f.data)
	floats.Scale(1/max, dst)
	return dst
}

// Reset zeroes every cell.
func (f *Field) Reset() {
	clear(f.data)
}

// CopyFrom replaces the field contents with src, which must have
// width*height entries.
func (f *Field) CopyFrom(src []float64) error {
	if len(src) != len(f.data) {
		return fmt.Errorf("field: copy of %d values into %dx%d grid", len(src), f.w, f.h)
	}
	copy(f.data, src)
	return nil
}

// swap installs buf as the backing storage and returns the previous one.
func (f *Field) swap(buf []float64) []float64 {
	old := f.data
	f.data = buf
	return old
}
