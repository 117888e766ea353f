package sim

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/field"
)

// Snapshot is a complete, restorable copy of the simulation state.
type Snapshot struct {
	Version int             `json:"version"`
	Tick    int64           `json:"tick"`
	Seed    int64           `json:"seed"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Field   []float64       `json:"field"`
	Agents  []AgentSnapshot `json:"agents"`
}

// AgentSnapshot stores the mutable state of one agent.
type AgentSnapshot struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Stream  []byte  `json:"stream"`
}

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Capture copies the current state.
func (s *Simulation) Capture() (*Snapshot, error) {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Tick:    s.tick,
		Seed:    s.seed,
		Width:   s.width,
		Height:  s.height,
		Field:   append([]float64(nil), s.field.Values()...),
		Agents:  make([]AgentSnapshot, 0, len(s.entities)),
	}

	query := s.agentFilter.Query()
	for query.Next() {
		pos, head, _, _, stream, _ := query.Get()
		state, err := stream.MarshalBinary()
		if err != nil {
			query.Close()
			return nil, fmt.Errorf("encoding agent stream: %w", err)
		}
		snap.Agents = append(snap.Agents, AgentSnapshot{
			X:       pos.X,
			Y:       pos.Y,
			Heading: head.Angle,
			Stream:  state,
		})
	}
	return snap, nil
}

// Restore replaces the current state with snap. The snapshot must match
// the grid size and population of the running simulation.
func (s *Simulation) Restore(snap *Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Width != s.width || snap.Height != s.height {
		return fmt.Errorf("snapshot grid %dx%d does not match %dx%d", snap.Width, snap.Height, s.width, s.height)
	}
	if len(snap.Agents) != len(s.entities) {
		return fmt.Errorf("snapshot has %d agents, simulation has %d", len(snap.Agents), len(s.entities))
	}

	if len(snap.Field) != s.width*s.height {
		return fmt.Errorf("snapshot field has %d values, grid has %d", len(snap.Field), s.width*s.height)
	}
	streams := make([]agent.Stream, len(snap.Agents))
	for i, a := range snap.Agents {
		if err := streams[i].UnmarshalBinary(a.Stream); err != nil {
			return fmt.Errorf("decoding stream of agent %d: %w", i, err)
		}
	}

	// Claim cells on a scratch map; nothing is modified until all checks pass
	var occ *field.Occupancy
	if s.occ != nil {
		occ = field.NewOccupancy(s.width, s.height, s.boundary)
		for i, a := range snap.Agents {
			c := agent.Position{X: a.X, Y: a.Y}.Cell()
			if !occ.Claim(c.X, c.Y, i) {
				return fmt.Errorf("snapshot places two agents in cell (%d,%d)", c.X, c.Y)
			}
		}
	}

	if err := s.field.CopyFrom(snap.Field); err != nil {
		return fmt.Errorf("restoring field: %w", err)
	}
	s.occ = occ
	for i, e := range s.entities {
		a := snap.Agents[i]
		pos, head, traits, sensors, stream, _ := s.agentMapper.Get(e)
		*pos = agent.Position{X: a.X, Y: a.Y}
		head.Angle = a.Heading
		*stream = streams[i]
		*sensors = agent.SensorCells(*pos, head.Angle, *traits, s.width, s.height, s.boundary)
	}

	s.tick = snap.Tick
	s.seed = snap.Seed
	s.last = StepStats{}
	slog.Info("simulation restored", "tick", snap.Tick, "seed", snap.Seed)
	return nil
}
