// Package game drives a simulation run: it steps the simulation, collects
// telemetry windows, writes run output and publishes frames to viewers.
// It has no graphics dependency so the same loop serves headless runs,
// the terminal viewer and the raylib window.
package game

import (
	"log/slog"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/field"
	"github.com/pthm-cable/physarum/sim"
	"github.com/pthm-cable/physarum/telemetry"
)

// MaxStepsPerUpdate bounds the speed multiplier.
const MaxStepsPerUpdate = 64

// FrameSink receives the trail field every few ticks.
type FrameSink interface {
	Publish(tick int64, f field.Reader)
}

// Options configures a game instance.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindow    int    // ticks per stats window (0 = use config)
	SnapshotDir    string // directory for snapshot files (empty = none)
	SnapshotEvery  int64  // ticks between periodic snapshots (0 = bookmarks only)
	OutputDir      string // directory for CSV output (empty = none)
	StepsPerUpdate int    // simulation ticks per update call

	// Sink, if set, is published to every FrameInterval ticks.
	Sink          FrameSink
	FrameInterval int

	// StatsCallback is called after every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the simulation and its telemetry plumbing.
type Game struct {
	cfg *config.Config
	sim *sim.Simulation

	paused         bool
	stepsPerUpdate int

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	snapshotEvery    int64
	statsCallback    func(telemetry.WindowStats)
	lastStats        telemetry.WindowStats

	sink          FrameSink
	frameInterval int64
}

// NewGameWithOptions creates a game for cfg. Output files are opened
// immediately and the effective config is written alongside them.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	s, err := sim.New(cfg, opts.Seed)
	if err != nil {
		return nil, err
	}

	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		window = opts.StatsWindow
	}
	frameInterval := opts.FrameInterval
	if frameInterval <= 0 {
		frameInterval = max(1, cfg.Stream.FrameInterval)
	}

	g := &Game{
		cfg:              cfg,
		sim:              s,
		stepsPerUpdate:   1,
		collector:        telemetry.NewCollector(window, cfg.Telemetry.CoverageThreshold),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		snapshotEvery:    opts.SnapshotEvery,
		statsCallback:    opts.StatsCallback,
		sink:             opts.Sink,
		frameInterval:    int64(frameInterval),
	}
	g.SetSpeed(opts.StepsPerUpdate)
	s.SetTimer(g.perfCollector)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	return g, nil
}

// Update runs StepsPerUpdate ticks unless paused.
func (g *Game) Update() {
	if g.paused {
		return
	}
	g.UpdateHeadless()
}

// UpdateHeadless runs StepsPerUpdate ticks regardless of the pause state.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// StepOnce runs exactly one tick; used for single-stepping while paused.
func (g *Game) StepOnce() {
	g.step()
}

func (g *Game) step() {
	g.perfCollector.StartTick()
	g.sim.Step()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.Record(g.sim.LastStep())
	tick := g.sim.Tick()
	g.flushTelemetry(tick)
	if g.snapshotEvery > 0 && g.snapshotDir != "" && tick%g.snapshotEvery == 0 {
		g.saveSnapshot(nil)
	}

	if g.sink != nil && tick%g.frameInterval == 0 {
		g.perfCollector.StartPhase(telemetry.PhaseStream)
		g.sink.Publish(tick, g.sim.Field())
	}
	g.perfCollector.EndTick()
}

// Reset respawns the population with a new seed and clears the trail.
// Telemetry windows and bookmarks start over.
func (g *Game) Reset(seed int64) error {
	if err := g.sim.Reset(seed); err != nil {
		return err
	}
	g.resetTelemetry()
	return nil
}

// resetTelemetry starts a fresh window at the current tick.
func (g *Game) resetTelemetry() {
	g.collector.Reset(g.sim.Tick())
	g.bookmarkDetector.Reset()
	g.lastStats = telemetry.WindowStats{}
}

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool { return g.paused }

// SetPaused suspends or resumes Update.
func (g *Game) SetPaused(p bool) { g.paused = p }

// TogglePause flips the pause state.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Speed returns the number of ticks per update.
func (g *Game) Speed() int { return g.stepsPerUpdate }

// SetSpeed sets ticks per update, clamped to [1, MaxStepsPerUpdate].
func (g *Game) SetSpeed(n int) {
	g.stepsPerUpdate = min(max(n, 1), MaxStepsPerUpdate)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int64 { return g.sim.Tick() }

// Sim exposes the simulation for renderers and live controls.
func (g *Game) Sim() *sim.Simulation { return g.sim }

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// LastStats returns the most recently flushed window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// Perf returns the rolling performance statistics.
func (g *Game) Perf() telemetry.PerfStats { return g.perfCollector.Stats() }

// RecordFrame records frame timing for graphics mode.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }

// Unload stops the simulation workers and closes output files.
func (g *Game) Unload() {
	g.sim.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
