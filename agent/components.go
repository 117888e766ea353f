// Package agent defines the per-agent ECS components, sensor geometry and
// the steering policies that turn sensor readings into heading changes.
package agent

import (
	"math"

	"github.com/pthm-cable/physarum/field"
)

// Position is an agent's continuous world position. Sub-cell precision is
// kept; field interaction uses the floored cell.
type Position struct {
	X, Y float64
}

// Heading is the direction of travel in radians. It is not wrapped.
type Heading struct {
	Angle float64
}

// Traits are the fixed movement and sensing parameters of an agent.
type Traits struct {
	StepSize      float64 // distance moved per step
	SensorOffset  float64 // distance from body to each sensor
	SensorAngle   float64 // half-angle between front and side sensors, radians
	RotationAngle float64 // heading change per turn, radians
	Deposit       float64 // trail added per unsuppressed step
}

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// Sensors caches the three probe cells for the current step.
type Sensors struct {
	Front, Left, Right Cell
}

// ID is the agent's stable creation index.
type ID struct {
	Index int
}

// State is a flat read-only copy of one agent, handed to renderers.
type State struct {
	Index   int
	Pos     Position
	Heading float64
	Sensors Sensors
}

// Cell returns the floored grid cell of p.
func (p Position) Cell() Cell {
	return Cell{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Advance returns the candidate position one step along angle.
func (p Position) Advance(angle, step float64) Position {
	sin, cos := math.Sincos(angle)
	return Position{X: p.X + step*cos, Y: p.Y + step*sin}
}

// Confine brings p into [0,w) x [0,h). It reports whether p was outside
// the grid under the clamped policy; wrapping never counts as a bounce.
func Confine(p Position, w, h int, b field.Boundary) (Position, bool) {
	fw, fh := float64(w), float64(h)
	if b == field.Clamped {
		if p.X >= 0 && p.X < fw && p.Y >= 0 && p.Y < fh {
			return p, false
		}
		return Position{
			X: math.Max(0, math.Min(p.X, fw-1)),
			Y: math.Max(0, math.Min(p.Y, fh-1)),
		}, true
	}
	return Position{X: wrapFloat(p.X, fw), Y: wrapFloat(p.Y, fh)}, false
}

func wrapFloat(v, m float64) float64 {
	v = math.Mod(v, m)
	if v < 0 {
		v += m
	}
	// v+m can round up to m for tiny negative v
	if v >= m {
		v = 0
	}
	return v
}
