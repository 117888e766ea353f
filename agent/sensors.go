package agent

import (
	"math"

	"github.com/pthm-cable/physarum/field"
)

// Sampler reads field values by cell.
type Sampler interface {
	Get(x, y int) float64
}

// Readings are the trail values seen by the three sensors.
type Readings struct {
	Front, Left, Right float64
}

// SensorCells places the front sensor along the heading and the side
// sensors at heading ± SensorAngle, each SensorOffset away from pos.
// Cells are floored and resolved by the boundary policy.
func SensorCells(pos Position, angle float64, t Traits, w, h int, b field.Boundary) Sensors {
	return Sensors{
		Front: probe(pos, angle, t.SensorOffset, w, h, b),
		Left:  probe(pos, angle+t.SensorAngle, t.SensorOffset, w, h, b),
		Right: probe(pos, angle-t.SensorAngle, t.SensorOffset, w, h, b),
	}
}

func probe(pos Position, angle, offset float64, w, h int, b field.Boundary) Cell {
	sin, cos := math.Sincos(angle)
	x := int(math.Floor(pos.X + offset*cos))
	y := int(math.Floor(pos.Y + offset*sin))
	x, y = b.Resolve(x, y, w, h)
	return Cell{X: x, Y: y}
}

// Sense reads the field at each sensor cell.
func Sense(f Sampler, s Sensors) Readings {
	return Readings{
		Front: f.Get(s.Front.X, s.Front.Y),
		Left:  f.Get(s.Left.X, s.Left.Y),
		Right: f.Get(s.Right.X, s.Right.Y),
	}
}
