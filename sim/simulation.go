// Package sim runs the physarum simulation: it owns the trail field and
// the agent population and advances both one discrete step at a time.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/field"
)

// maxSpawnDraws bounds random placement attempts per agent before falling
// back to a scan for the next free cell.
const maxSpawnDraws = 256

// Phase names reported to a PhaseTimer.
const (
	PhaseAgents = "agents"
	PhaseField  = "field"
)

// PhaseTimer receives phase boundaries during Step.
type PhaseTimer interface {
	StartPhase(name string)
}

type noopTimer struct{}

func (noopTimer) StartPhase(string) {}

// Simulation owns the field, the occupancy map and the agent world.
type Simulation struct {
	cfg      *config.Config
	seed     int64
	tick     int64
	rng      *rand.Rand
	width    int
	height   int
	boundary field.Boundary
	deferred bool

	field  *field.Field
	proc   *field.Processor
	occ    *field.Occupancy // nil when collisions are disabled
	policy agent.SteeringPolicy

	world *ecs.World
	// Agents carry six components; entities is kept in creation order.
	agentMapper *ecs.Map6[
		agent.Position,
		agent.Heading,
		agent.Traits,
		agent.Sensors,
		agent.Stream,
		agent.ID,
	]
	agentFilter *ecs.Filter6[
		agent.Position,
		agent.Heading,
		agent.Traits,
		agent.Sensors,
		agent.Stream,
		agent.ID,
	]
	entities []ecs.Entity

	parallel *parallelState
	timer    PhaseTimer
	last     StepStats
}

// New validates cfg and builds a simulation seeded with seed.
func New(cfg *config.Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w, h := cfg.World.Width, cfg.World.Height
	boundary := boundaryOf(cfg.World.Boundary)

	s := &Simulation{
		cfg:      cfg,
		width:    w,
		height:   h,
		boundary: boundary,
		deferred: cfg.Simulation.Deposit == config.DepositDeferred,
		field:    field.New(w, h, boundary),
		proc: field.NewProcessor(
			cfg.Field.DecayRate,
			cfg.Field.DiffusionRate,
			cfg.Field.KernelHalfWidth,
			orderOf(cfg.Field.Order),
			cfg.Field.Workers,
		),
		policy:   agent.PolicyFor(cfg.Steering.Policy),
		parallel: newParallelState(cfg.Simulation.Workers, cfg.Simulation.ParallelThreshold),
		timer:    noopTimer{},
	}
	if cfg.World.Collision {
		s.occ = field.NewOccupancy(w, h, boundary)
	}

	if err := s.populate(seed); err != nil {
		return nil, err
	}

	slog.Info("simulation created",
		"width", w,
		"height", h,
		"agents", cfg.Agents.Count,
		"boundary", cfg.World.Boundary,
		"collision", cfg.World.Collision,
		"deposit", cfg.Simulation.Deposit,
		"seed", seed,
	)
	return s, nil
}

func boundaryOf(b config.Boundary) field.Boundary {
	if b == config.BoundaryClamped {
		return field.Clamped
	}
	return field.Toroidal
}

func orderOf(o config.Order) field.Order {
	switch o {
	case config.OrderDecayDiffuse:
		return field.DecayDiffuse
	case config.OrderFused:
		return field.Fused
	default:
		return field.DiffuseDecay
	}
}

// populate resets the world and spawns the configured population.
func (s *Simulation) populate(seed int64) error {
	s.seed = seed
	s.tick = 0
	s.last = StepStats{}
	s.rng = rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	s.field.Reset()
	if s.occ != nil {
		s.occ.Reset()
	}

	world := ecs.NewWorld()
	s.world = world
	s.agentMapper = ecs.NewMap6[
		agent.Position,
		agent.Heading,
		agent.Traits,
		agent.Sensors,
		agent.Stream,
		agent.ID,
	](world)
	s.agentFilter = ecs.NewFilter6[
		agent.Position,
		agent.Heading,
		agent.Traits,
		agent.Sensors,
		agent.Stream,
		agent.ID,
	](world)
	s.entities = s.entities[:0]

	a := s.cfg.Agents
	traits := agent.Traits{
		StepSize:      a.StepSize,
		SensorOffset:  a.SensorOffset,
		SensorAngle:   a.SensorAngleRad(),
		RotationAngle: a.RotationAngleRad(),
		Deposit:       a.Deposit,
	}

	for i := 0; i < a.Count; i++ {
		pos, err := s.spawnPosition(i)
		if err != nil {
			return err
		}
		heading := agent.Heading{Angle: s.rng.Float64() * 2 * math.Pi}
		sensors := agent.SensorCells(pos, heading.Angle, traits, s.width, s.height, s.boundary)
		stream := agent.NewStream(uint64(seed), i)
		id := agent.ID{Index: i}
		t := traits

		e := s.agentMapper.NewEntity(&pos, &heading, &t, &sensors, &stream, &id)
		s.entities = append(s.entities, e)
	}
	return nil
}

// spawnPosition draws a start position for agent i and claims its cell
// when collisions are enabled.
func (s *Simulation) spawnPosition(i int) (agent.Position, error) {
	for range maxSpawnDraws {
		pos := s.drawPosition()
		if s.occ == nil {
			return pos, nil
		}
		c := pos.Cell()
		if s.occ.Claim(c.X, c.Y, i) {
			return pos, nil
		}
	}

	// Crowded grid: take the next free cell after a random start.
	start := s.rng.IntN(s.width * s.height)
	for k := 0; k < s.width*s.height; k++ {
		idx := (start + k) % (s.width * s.height)
		x, y := idx%s.width, idx/s.width
		if s.occ.Claim(x, y, i) {
			return agent.Position{
				X: float64(x) + s.rng.Float64(),
				Y: float64(y) + s.rng.Float64(),
			}, nil
		}
	}
	return agent.Position{}, fmt.Errorf("%w: no free cell for agent %d", config.ErrInvalid, i)
}

func (s *Simulation) drawPosition() agent.Position {
	fw, fh := float64(s.width), float64(s.height)
	if s.cfg.Agents.Spawn != config.SpawnDisk {
		return agent.Position{X: s.rng.Float64() * fw, Y: s.rng.Float64() * fh}
	}

	radius := s.cfg.Agents.SpawnRadius * math.Min(fw, fh) / 2
	r := radius * math.Sqrt(s.rng.Float64())
	sin, cos := math.Sincos(s.rng.Float64() * 2 * math.Pi)
	pos, _ := agent.Confine(agent.Position{X: fw/2 + r*cos, Y: fh/2 + r*sin}, s.width, s.height, s.boundary)
	return pos
}

// Reset discards all state and respawns the population from seed.
func (s *Simulation) Reset(seed int64) error {
	if err := s.populate(seed); err != nil {
		return err
	}
	slog.Info("simulation reset", "seed", seed)
	return nil
}

// Close stops worker goroutines. The simulation must not be stepped after.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}

// Field returns a read-only view of the trail field.
func (s *Simulation) Field() field.Reader { return s.field }

// Occupancy returns the occupancy map, or nil when collisions are off.
func (s *Simulation) Occupancy() *field.Occupancy { return s.occ }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 { return s.tick }

// Seed returns the seed of the current run.
func (s *Simulation) Seed() int64 { return s.seed }

// AgentCount returns the population size.
func (s *Simulation) AgentCount() int { return len(s.entities) }

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

// LastStep returns the counters of the most recent step.
func (s *Simulation) LastStep() StepStats { return s.last }

// Agents appends a copy of every agent's state to dst in creation order.
func (s *Simulation) Agents(dst []agent.State) []agent.State {
	dst = dst[:0]
	query := s.agentFilter.Query()
	for query.Next() {
		pos, head, _, sensors, _, id := query.Get()
		dst = append(dst, agent.State{
			Index:   id.Index,
			Pos:     *pos,
			Heading: head.Angle,
			Sensors: *sensors,
		})
	}
	return dst
}

// SetPolicy replaces the steering policy.
func (s *Simulation) SetPolicy(p agent.SteeringPolicy) { s.policy = p }

// SetTimer installs a phase timer; nil disables timing.
func (s *Simulation) SetTimer(t PhaseTimer) {
	if t == nil {
		t = noopTimer{}
	}
	s.timer = t
}

// SetDecay changes the per-step decay rate. Negative values are ignored.
func (s *Simulation) SetDecay(rate float64) {
	if rate >= 0 {
		s.proc.DecayRate = rate
	}
}

// SetDiffusion changes the diffusion blend, clamped to [0,1].
func (s *Simulation) SetDiffusion(rate float64) {
	s.proc.DiffusionRate = math.Max(0, math.Min(rate, 1))
}

// Decay returns the current decay rate.
func (s *Simulation) Decay() float64 { return s.proc.DecayRate }

// Diffusion returns the current diffusion blend.
func (s *Simulation) Diffusion() float64 { return s.proc.DiffusionRate }
