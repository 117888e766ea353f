package sim

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
)

// testConfig returns a small, inert world: no decay, no diffusion.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 10, 10
	cfg.Agents.Count = 1
	cfg.Agents.StepSize = 1
	cfg.Agents.SensorOffset = 1
	cfg.Agents.SensorAngleDeg = 45
	cfg.Agents.RotationAngleDeg = 45
	cfg.Agents.Deposit = 5
	cfg.Field.DecayRate = 0
	cfg.Field.DiffusionRate = 0
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, seed int64) *Simulation {
	t.Helper()
	s, err := New(cfg, seed)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

type pose struct{ x, y, angle float64 }

// place sets agents 0..len(poses)-1 and rebuilds occupancy from scratch.
func place(t *testing.T, s *Simulation, poses ...pose) {
	t.Helper()
	for i, p := range poses {
		pos, head, traits, sensors, _, _ := s.agentMapper.Get(s.entities[i])
		*pos = agent.Position{X: p.x, Y: p.y}
		head.Angle = p.angle
		*sensors = agent.SensorCells(*pos, p.angle, *traits, s.width, s.height, s.boundary)
	}
	if s.occ == nil {
		return
	}
	s.occ.Reset()
	for i, e := range s.entities {
		pos, _, _, _, _, _ := s.agentMapper.Get(e)
		c := pos.Cell()
		if !s.occ.Claim(c.X, c.Y, i) {
			t.Fatalf("place: cell (%d,%d) already held", c.X, c.Y)
		}
	}
}

func snapshot(t *testing.T, s *Simulation) *Snapshot {
	t.Helper()
	snap, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	return snap
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Agents.Count = 0
	if _, err := New(cfg, 1); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New with zero agents = %v, want ErrInvalid", err)
	}

	cfg = testConfig()
	cfg.World.Width = -1
	if _, err := New(cfg, 1); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New with negative width = %v, want ErrInvalid", err)
	}
}

func TestSingleAgentStep(t *testing.T) {
	run := func() (*Simulation, []agent.State) {
		s := newSim(t, testConfig(), 7)
		place(t, s, pose{5, 5, 0})
		s.Step()
		return s, s.Agents(nil)
	}

	s, states := run()
	a := states[0]
	if a.Pos != (agent.Position{X: 6, Y: 5}) {
		t.Fatalf("position = %+v, want {6 5}", a.Pos)
	}
	if got := s.Field().Get(6, 5); got != 5 {
		t.Errorf("deposit at (6,5) = %v, want 5", got)
	}
	if got := s.Field().Total(); got != 5 {
		t.Errorf("field total = %v, want 5", got)
	}

	// Left sensor sits on the fresh deposit; front and right see nothing.
	want := agent.Sensors{Front: agent.Cell{X: 7, Y: 5}, Left: agent.Cell{X: 6, Y: 5}, Right: agent.Cell{X: 6, Y: 4}}
	if a.Sensors != want {
		t.Errorf("sensors = %+v, want %+v", a.Sensors, want)
	}
	if a.Heading != s.Config().Agents.RotationAngleRad() {
		t.Errorf("heading = %v, want %v", a.Heading, s.Config().Agents.RotationAngleRad())
	}

	stats := s.LastStep()
	if stats.Moves != 1 || stats.Deposits != 1 || stats.TurnsLeft != 1 || stats.Tick != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if s.Tick() != 1 {
		t.Errorf("tick = %d, want 1", s.Tick())
	}

	// Bit-for-bit repeatable
	_, again := run()
	if !reflect.DeepEqual(states, again) {
		t.Errorf("repeat run differs: %+v vs %+v", states, again)
	}
}

func TestZeroOffsetSensorsTie(t *testing.T) {
	cfg := testConfig()
	cfg.Agents.SensorOffset = 0
	s := newSim(t, cfg, 1)
	place(t, s, pose{5, 5, 0})
	s.Step()

	a := s.Agents(nil)[0]
	if a.Heading != 0 {
		t.Errorf("heading = %v, want 0 when all sensors read the same cell", a.Heading)
	}
	if s.LastStep().Straight != 1 {
		t.Errorf("stats = %+v, want one straight step", s.LastStep())
	}
}

func TestClampedBounce(t *testing.T) {
	cfg := testConfig()
	cfg.World.Boundary = config.BoundaryClamped
	const seed = 11
	s := newSim(t, cfg, seed)
	place(t, s, pose{9.5, 5.5, 0})
	s.Step()

	a := s.Agents(nil)[0]
	if a.Pos != (agent.Position{X: 9, Y: 5.5}) {
		t.Errorf("position = %+v, want {9 5.5}", a.Pos)
	}
	if s.Field().Total() != 0 {
		t.Errorf("bounce deposited %v", s.Field().Total())
	}

	// Heading is the agent's first random draw, untouched by steering
	stream := agent.NewStream(seed, 0)
	if want := stream.Angle(); a.Heading != want {
		t.Errorf("heading = %v, want fresh random %v", a.Heading, want)
	}
	if a.Heading < 0 || a.Heading >= 2*math.Pi {
		t.Errorf("heading %v outside [0, 2π)", a.Heading)
	}

	stats := s.LastStep()
	if stats.Bounces != 1 || stats.Deposits != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCollisionRejectsMove(t *testing.T) {
	cfg := testConfig()
	cfg.World.Collision = true
	cfg.Agents.Count = 2
	const seed = 5
	s := newSim(t, cfg, seed)

	place(t, s, pose{5.5, 5.5, 0}, pose{6.5, 5.5, math.Pi / 2})
	s.Step()

	states := s.Agents(nil)
	if states[0].Pos != (agent.Position{X: 5.5, Y: 5.5}) {
		t.Errorf("blocked agent moved to %+v", states[0].Pos)
	}
	stream := agent.NewStream(seed, 0)
	if want := stream.Angle(); states[0].Heading != want {
		t.Errorf("blocked heading = %v, want random %v", states[0].Heading, want)
	}
	if states[1].Pos.Cell() != (agent.Cell{X: 6, Y: 6}) {
		t.Errorf("free agent at %+v, want cell (6,6)", states[1].Pos)
	}

	occ := s.Occupancy()
	if id, ok := occ.Owner(5, 5); !ok || id != 0 {
		t.Errorf("owner(5,5) = (%d,%v), want agent 0", id, ok)
	}
	if id, ok := occ.Owner(6, 6); !ok || id != 1 {
		t.Errorf("owner(6,6) = (%d,%v), want agent 1", id, ok)
	}
	if occ.Occupied(6, 5) {
		t.Error("vacated cell (6,5) still occupied")
	}

	if s.Field().Get(5, 5) != 0 || s.Field().Get(6, 6) != 5 {
		t.Errorf("deposits: (5,5)=%v (6,6)=%v", s.Field().Get(5, 5), s.Field().Get(6, 6))
	}
	stats := s.LastStep()
	if stats.Collisions != 1 || stats.Deposits != 1 || stats.Moves != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestInvariantsHoldOverManySteps(t *testing.T) {
	for _, b := range []config.Boundary{config.BoundaryToroidal, config.BoundaryClamped} {
		t.Run(string(b), func(t *testing.T) {
			cfg := config.Default()
			cfg.World.Width, cfg.World.Height = 40, 30
			cfg.World.Boundary = b
			cfg.World.Collision = true
			cfg.Agents.Count = 300
			cfg.Agents.StepSize = 1.5
			s := newSim(t, cfg, 3)

			var states []agent.State
			for range 50 {
				s.Step()
				states = s.Agents(states)
				for _, a := range states {
					if a.Pos.X < 0 || a.Pos.X >= 40 || a.Pos.Y < 0 || a.Pos.Y >= 30 {
						t.Fatalf("tick %d: agent %d at %+v out of bounds", s.Tick(), a.Index, a.Pos)
					}
				}
				for i, v := range s.Field().Values() {
					if v < 0 {
						t.Fatalf("tick %d: cell %d negative %v", s.Tick(), i, v)
					}
				}
				if s.Occupancy().Count() != 300 {
					t.Fatalf("tick %d: occupancy count %d, want 300", s.Tick(), s.Occupancy().Count())
				}
			}
		})
	}
}

func TestSequentialRunsAreReproducible(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 50, 50
	cfg.Agents.Count = 500

	a := newSim(t, cfg, 99)
	b := newSim(t, cfg, 99)
	c := newSim(t, cfg, 100)
	for range 20 {
		a.Step()
		b.Step()
		c.Step()
	}

	sa, sb, sc := snapshot(t, a), snapshot(t, b), snapshot(t, c)
	if !reflect.DeepEqual(sa, sb) {
		t.Error("same seed produced different states")
	}
	if reflect.DeepEqual(sa.Field, sc.Field) {
		t.Error("different seeds produced identical fields")
	}
}

func TestDeferredIndependentOfWorkers(t *testing.T) {
	for _, collision := range []bool{false, true} {
		cfg := config.Default()
		cfg.World.Width, cfg.World.Height = 64, 64
		cfg.World.Collision = collision
		cfg.Agents.Count = 2000
		cfg.Simulation.Deposit = config.DepositDeferred
		cfg.Simulation.ParallelThreshold = 1

		single := *cfg
		single.Simulation.Workers = 1
		multi := *cfg
		multi.Simulation.Workers = 4

		a := newSim(t, &single, 21)
		b := newSim(t, &multi, 21)
		for range 15 {
			a.Step()
			b.Step()
		}
		if !reflect.DeepEqual(snapshot(t, a), snapshot(t, b)) {
			t.Errorf("collision=%v: worker count changed the outcome", collision)
		}
		if a.LastStep() != b.LastStep() {
			t.Errorf("collision=%v: stats differ %+v vs %+v", collision, a.LastStep(), b.LastStep())
		}
	}
}

func TestDeferredSensesStartOfStepField(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Deposit = config.DepositDeferred
	s := newSim(t, cfg, 7)
	place(t, s, pose{5, 5, 0})
	s.Step()

	// The agent's own deposit lands after sensing, so it sees an empty
	// field and goes straight.
	a := s.Agents(nil)[0]
	if a.Heading != 0 {
		t.Errorf("heading = %v, want 0", a.Heading)
	}
	if s.Field().Get(6, 5) != 5 {
		t.Errorf("deferred deposit missing: %v", s.Field().Get(6, 5))
	}
}

func TestCaptureRestore(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 40, 40
	cfg.World.Collision = true
	cfg.Agents.Count = 200

	a := newSim(t, cfg, 1)
	for range 5 {
		a.Step()
	}
	mid := snapshot(t, a)
	for range 5 {
		a.Step()
	}
	want := snapshot(t, a)

	b := newSim(t, cfg, 2)
	if err := b.Restore(mid); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if b.Tick() != 5 || b.Seed() != 1 {
		t.Errorf("restored tick/seed = %d/%d, want 5/1", b.Tick(), b.Seed())
	}
	for range 5 {
		b.Step()
	}
	if got := snapshot(t, b); !reflect.DeepEqual(got, want) {
		t.Error("restored run diverged from original")
	}
}

func TestRestoreRejectsMismatch(t *testing.T) {
	cfg := testConfig()
	s := newSim(t, cfg, 1)
	snap := snapshot(t, s)

	bad := *snap
	bad.Width = 11
	if err := s.Restore(&bad); err == nil {
		t.Error("expected error for grid mismatch")
	}
	bad = *snap
	bad.Agents = nil
	if err := s.Restore(&bad); err == nil {
		t.Error("expected error for population mismatch")
	}
	bad = *snap
	bad.Version = 99
	if err := s.Restore(&bad); err == nil {
		t.Error("expected error for unknown version")
	}
}

func TestRestoreRejectedLeavesStateIntact(t *testing.T) {
	cfg := testConfig()
	cfg.World.Collision = true
	cfg.Agents.Count = 3
	s := newSim(t, cfg, 1)
	place(t, s, pose{2.5, 1.5, 0}, pose{5.5, 5.5, 0}, pose{7.5, 2.5, 0})
	before := snapshot(t, s)

	bad := snapshot(t, s)
	bad.Field[0] = 99
	bad.Agents[0].X, bad.Agents[0].Y = 3.5, 3.5
	bad.Agents[1].X, bad.Agents[1].Y = 3.5, 3.5
	if err := s.Restore(bad); err == nil {
		t.Fatal("expected error for two agents in one cell")
	}

	if got := snapshot(t, s); !reflect.DeepEqual(got, before) {
		t.Error("rejected restore modified the simulation")
	}
	if n := s.Occupancy().Count(); n != 3 {
		t.Errorf("occupancy count = %d, want 3", n)
	}
	if owner, ok := s.Occupancy().Owner(2, 1); !ok || owner != 0 {
		t.Errorf("cell (2,1) owner = %d, %v; want agent 0", owner, ok)
	}

	short := snapshot(t, s)
	short.Field = short.Field[:10]
	if err := s.Restore(short); err == nil {
		t.Error("expected error for short field")
	}
}

func TestSpawnFillsCrowdedGrid(t *testing.T) {
	cfg := testConfig()
	cfg.World.Width, cfg.World.Height = 4, 4
	cfg.World.Collision = true
	cfg.Agents.Count = 16
	s := newSim(t, cfg, 4)
	if s.Occupancy().Count() != 16 {
		t.Errorf("occupied cells = %d, want 16", s.Occupancy().Count())
	}
}

func TestDiskSpawn(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 100, 100
	cfg.Agents.Count = 500
	cfg.Agents.Spawn = config.SpawnDisk
	cfg.Agents.SpawnRadius = 0.2
	s := newSim(t, cfg, 8)

	for _, a := range s.Agents(nil) {
		if d := math.Hypot(a.Pos.X-50, a.Pos.Y-50); d > 10+1e-9 {
			t.Fatalf("agent %d at distance %v, want <= 10", a.Index, d)
		}
	}
}

func TestResetRespawns(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 30, 30
	cfg.Agents.Count = 50
	s := newSim(t, cfg, 1)
	initial := s.Agents(nil)
	for range 3 {
		s.Step()
	}
	if err := s.Reset(1); err != nil {
		t.Fatal(err)
	}
	if s.Tick() != 0 || s.Field().Total() != 0 {
		t.Errorf("after reset tick=%d total=%v", s.Tick(), s.Field().Total())
	}
	if !reflect.DeepEqual(s.Agents(nil), initial) {
		t.Error("reset with same seed did not reproduce the initial population")
	}
}

func TestLiveTuning(t *testing.T) {
	s := newSim(t, testConfig(), 1)
	s.SetDiffusion(2)
	if s.Diffusion() != 1 {
		t.Errorf("diffusion = %v, want clamp to 1", s.Diffusion())
	}
	s.SetDecay(-1)
	if s.Decay() != 0 {
		t.Errorf("negative decay accepted: %v", s.Decay())
	}
	s.SetDecay(0.3)
	if s.Decay() != 0.3 {
		t.Errorf("decay = %v, want 0.3", s.Decay())
	}
}

type recordingTimer struct{ phases []string }

func (r *recordingTimer) StartPhase(name string) { r.phases = append(r.phases, name) }

func TestPhaseTimer(t *testing.T) {
	s := newSim(t, testConfig(), 1)
	rec := &recordingTimer{}
	s.SetTimer(rec)
	s.Step()
	if !reflect.DeepEqual(rec.phases, []string{PhaseAgents, PhaseField}) {
		t.Errorf("phases = %v", rec.phases)
	}
}

func BenchmarkStep(b *testing.B) {
	for _, mode := range []config.DepositMode{config.DepositSequential, config.DepositDeferred} {
		b.Run(string(mode), func(b *testing.B) {
			cfg := config.Default()
			cfg.Simulation.Deposit = mode
			s, err := New(cfg, 1)
			if err != nil {
				b.Fatal(err)
			}
			defer s.Close()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Step()
			}
		})
	}
}
