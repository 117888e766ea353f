package config

import "fmt"

// Boundary selects how out-of-range coordinates are resolved.
type Boundary string

const (
	BoundaryToroidal Boundary = "toroidal"
	BoundaryClamped  Boundary = "clamped"
)

// Policy selects the steering rule.
type Policy string

const (
	PolicyRandom        Policy = "random"        // random turn when front is weakest
	PolicyDeterministic Policy = "deterministic" // random only on an exact left/right tie
)

// Order selects how decay and diffusion are combined each step.
type Order string

const (
	OrderDiffuseDecay Order = "diffuse_decay"
	OrderDecayDiffuse Order = "decay_diffuse"
	OrderFused        Order = "fused"
)

// DepositMode selects how agents within one step see each other's deposits.
type DepositMode string

const (
	DepositSequential DepositMode = "sequential" // immediate writes, live sensing
	DepositDeferred   DepositMode = "deferred"   // sense start-of-step field, write after
)

// Spawn selects the initial agent placement.
type Spawn string

const (
	SpawnUniform Spawn = "uniform"
	SpawnDisk    Spawn = "disk"
)

func (b *Boundary) UnmarshalText(text []byte) error {
	return parseEnum(b, string(text), "boundary", BoundaryToroidal, BoundaryClamped)
}

func (p *Policy) UnmarshalText(text []byte) error {
	return parseEnum(p, string(text), "steering policy", PolicyRandom, PolicyDeterministic)
}

func (o *Order) UnmarshalText(text []byte) error {
	return parseEnum(o, string(text), "field order", OrderDiffuseDecay, OrderDecayDiffuse, OrderFused)
}

func (d *DepositMode) UnmarshalText(text []byte) error {
	return parseEnum(d, string(text), "deposit mode", DepositSequential, DepositDeferred)
}

func (s *Spawn) UnmarshalText(text []byte) error {
	return parseEnum(s, string(text), "spawn", SpawnUniform, SpawnDisk)
}

func (b Boundary) MarshalText() ([]byte, error)    { return []byte(b), nil }
func (p Policy) MarshalText() ([]byte, error)      { return []byte(p), nil }
func (o Order) MarshalText() ([]byte, error)       { return []byte(o), nil }
func (d DepositMode) MarshalText() ([]byte, error) { return []byte(d), nil }
func (s Spawn) MarshalText() ([]byte, error)       { return []byte(s), nil }

// parseEnum assigns s to dst if it is one of allowed.
func parseEnum[T ~string](dst *T, s, what string, allowed ...T) error {
	for _, a := range allowed {
		if T(s) == a {
			*dst = a
			return nil
		}
	}
	return fmt.Errorf("%w: unknown %s %q (want one of %v)", ErrInvalid, what, s, allowed)
}
