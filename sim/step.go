package sim

import (
	"log/slog"

	"github.com/pthm-cable/physarum/agent"
)

// StepStats counts what happened during one step.
type StepStats struct {
	Tick        int64
	Moves       int // committed moves
	Deposits    int
	Bounces     int // clamped-boundary hits
	Collisions  int // moves rejected by occupancy
	Straight    int
	TurnsLeft   int
	TurnsRight  int
	TurnsRandom int
}

func (s *StepStats) countTurn(t agent.Turn) {
	switch t {
	case agent.TurnLeft:
		s.TurnsLeft++
	case agent.TurnRight:
		s.TurnsRight++
	case agent.TurnRandom:
		s.TurnsRandom++
	default:
		s.Straight++
	}
}

// LogValue implements slog.LogValuer.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Int("moves", s.Moves),
		slog.Int("deposits", s.Deposits),
		slog.Int("bounces", s.Bounces),
		slog.Int("collisions", s.Collisions),
		slog.Int("turns_left", s.TurnsLeft),
		slog.Int("turns_right", s.TurnsRight),
		slog.Int("turns_random", s.TurnsRandom),
	)
}

// Step advances the simulation by one tick: every agent moves, deposits,
// senses and steers, then the field is decayed and diffused once.
func (s *Simulation) Step() {
	stats := StepStats{Tick: s.tick}

	s.timer.StartPhase(PhaseAgents)
	if s.deferred {
		s.stepDeferred(&stats)
	} else {
		s.stepSequential(&stats)
	}

	s.timer.StartPhase(PhaseField)
	s.proc.Process(s.field)

	s.tick++
	s.last = stats
}

// stepSequential processes agents in creation order with immediate
// deposits, so later agents sense earlier agents' trail within the step.
func (s *Simulation) stepSequential(stats *StepStats) {
	query := s.agentFilter.Query()
	for query.Next() {
		pos, head, traits, sensors, stream, id := query.Get()

		old := *pos
		bounced := s.move(pos, head, traits, stream)
		suppressed := bounced
		if bounced {
			stats.Bounces++
		}

		if s.occ != nil && !s.commitCell(old, pos, head, stream, id.Index, bounced) {
			stats.Collisions++
			suppressed = true
		} else {
			stats.Moves++
		}

		if !suppressed {
			c := pos.Cell()
			s.field.Add(c.X, c.Y, traits.Deposit)
			stats.Deposits++
		}

		*sensors = agent.SensorCells(*pos, head.Angle, *traits, s.width, s.height, s.boundary)
		if suppressed {
			stats.Straight++
			continue
		}
		stats.countTurn(s.steer(head, traits, sensors, stream))
	}
}

// move advances pos along the pre-move heading and resolves the boundary.
// A clamped-boundary hit randomizes the heading and reports true.
func (s *Simulation) move(pos *agent.Position, head *agent.Heading, traits *agent.Traits, stream *agent.Stream) bool {
	next, bounced := agent.Confine(pos.Advance(head.Angle, traits.StepSize), s.width, s.height, s.boundary)
	*pos = next
	if bounced {
		head.Angle = stream.Angle()
	}
	return bounced
}

// commitCell moves the agent's occupancy claim from old to pos. If the
// target cell belongs to another agent the move is rejected: pos reverts
// to old and, unless it already bounced, the heading is randomized.
func (s *Simulation) commitCell(old agent.Position, pos *agent.Position, head *agent.Heading, stream *agent.Stream, index int, bounced bool) bool {
	from, to := old.Cell(), pos.Cell()
	if s.occ.Move(from.X, from.Y, to.X, to.Y, index) {
		return true
	}
	*pos = old
	if !bounced {
		head.Angle = stream.Angle()
	}
	return false
}

// steer reads the field at the sensor cells and applies the policy.
func (s *Simulation) steer(head *agent.Heading, traits *agent.Traits, sensors *agent.Sensors, stream *agent.Stream) agent.Turn {
	readings := agent.Sense(s.field, *sensors)
	delta, turn := s.policy.Steer(readings, traits.RotationAngle, stream)
	head.Angle += delta
	return turn
}
