package agent

import (
	"math"
	"math/rand/v2"
)

// Rand is the randomness source consumed by steering and bounces.
type Rand interface {
	Float64() float64
}

// Stream is an agent-owned PCG random stream. Each agent draws only from
// its own stream, so results do not depend on which goroutine runs it.
type Stream struct {
	pcg rand.PCG
}

// NewStream returns the stream for agent index under seed.
func NewStream(seed uint64, index int) Stream {
	return Stream{pcg: *rand.NewPCG(seed, uint64(index))}
}

// Uint64 returns the next raw value.
func (s *Stream) Uint64() uint64 {
	return s.pcg.Uint64()
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.pcg.Uint64()<<11>>11) / (1 << 53)
}

// Angle returns a uniform heading in [0, 2π).
func (s *Stream) Angle() float64 {
	return s.Float64() * 2 * math.Pi
}

// MarshalBinary encodes the generator state.
func (s *Stream) MarshalBinary() ([]byte, error) {
	return s.pcg.MarshalBinary()
}

// UnmarshalBinary restores state written by MarshalBinary.
func (s *Stream) UnmarshalBinary(data []byte) error {
	return s.pcg.UnmarshalBinary(data)
}
