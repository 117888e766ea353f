package agent

import (
	"fmt"

	"github.com/pthm-cable/physarum/config"
)

// Turn records which steering branch was taken.
type Turn uint8

const (
	Straight Turn = iota
	TurnLeft
	TurnRight
	TurnRandom
)

func (t Turn) String() string {
	switch t {
	case Straight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	case TurnRandom:
		return "random"
	default:
		return fmt.Sprintf("Turn(%d)", uint8(t))
	}
}

// SteeringPolicy maps sensor readings to a heading change. Positive
// deltas turn toward the left sensor.
type SteeringPolicy interface {
	Steer(r Readings, rotation float64, rng Rand) (float64, Turn)
}

// RandomTieBreak keeps heading while the front is at least as strong as
// both sides, turns a random way when the front is weaker than both, and
// otherwise turns toward the stronger side.
type RandomTieBreak struct{}

func (RandomTieBreak) Steer(r Readings, rotation float64, rng Rand) (float64, Turn) {
	switch {
	case r.Front >= r.Left && r.Front >= r.Right:
		return 0, Straight
	case r.Front < r.Left && r.Front < r.Right:
		return randomSign(rotation, rng), TurnRandom
	case r.Right < r.Left:
		return rotation, TurnLeft
	case r.Left < r.Right:
		return -rotation, TurnRight
	default:
		return 0, Straight
	}
}

// Deterministic is RandomTieBreak except that a front weaker than both
// sides turns toward the stronger side. Randomness is used only when the
// two sides are exactly equal.
type Deterministic struct{}

func (Deterministic) Steer(r Readings, rotation float64, rng Rand) (float64, Turn) {
	switch {
	case r.Front >= r.Left && r.Front >= r.Right:
		return 0, Straight
	case r.Right < r.Left:
		return rotation, TurnLeft
	case r.Left < r.Right:
		return -rotation, TurnRight
	case r.Front < r.Left:
		return randomSign(rotation, rng), TurnRandom
	default:
		return 0, Straight
	}
}

func randomSign(rotation float64, rng Rand) float64 {
	if rng.Float64() < 0.5 {
		return rotation
	}
	return -rotation
}

// PolicyFor returns the policy selected in configuration.
func PolicyFor(p config.Policy) SteeringPolicy {
	if p == config.PolicyDeterministic {
		return Deterministic{}
	}
	return RandomTieBreak{}
}
