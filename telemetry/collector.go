package telemetry

import (
	"github.com/pthm-cable/physarum/field"
	"github.com/pthm-cable/physarum/sim"
)

// Collector accumulates step counters within tick windows and produces
// WindowStats.
type Collector struct {
	windowDurationTicks int64
	coverageThreshold   float64

	// Current window tracking
	windowStartTick int64
	acc             sim.StepStats
	steps           int

	scratch []float64
}

// NewCollector creates a collector that flushes every windowTicks ticks.
// Cells above coverageThreshold count toward coverage.
func NewCollector(windowTicks int, coverageThreshold float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int64(windowTicks),
		coverageThreshold:   coverageThreshold,
	}
}

// Record adds one step's counters to the current window.
func (c *Collector) Record(s sim.StepStats) {
	c.steps++
	c.acc.Moves += s.Moves
	c.acc.Deposits += s.Deposits
	c.acc.Bounces += s.Bounces
	c.acc.Collisions += s.Collisions
	c.acc.Straight += s.Straight
	c.acc.TurnsLeft += s.TurnsLeft
	c.acc.TurnsRight += s.TurnsRight
	c.acc.TurnsRandom += s.TurnsRandom
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the accumulated counters and the
// current field, then resets counters for the next window.
func (c *Collector) Flush(currentTick int64, f field.Reader, agents int) WindowStats {
	var fs FieldStats
	fs, c.scratch = ComputeFieldStats(f.Values(), c.coverageThreshold, c.scratch)

	turns := c.acc.TurnsLeft + c.acc.TurnsRight + c.acc.TurnsRandom
	var turnRate float64
	if decisions := turns + c.acc.Straight; decisions > 0 {
		turnRate = float64(turns) / float64(decisions)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Agents:          agents,
		Steps:           c.steps,

		Moves:      c.acc.Moves,
		Deposits:   c.acc.Deposits,
		Bounces:    c.acc.Bounces,
		Collisions: c.acc.Collisions,

		Straight:    c.acc.Straight,
		TurnsLeft:   c.acc.TurnsLeft,
		TurnsRight:  c.acc.TurnsRight,
		TurnsRandom: c.acc.TurnsRandom,
		TurnRate:    turnRate,

		FieldTotal:     fs.Total,
		FieldMax:       fs.Max,
		FieldMean:      fs.Mean,
		FieldStd:       fs.Std,
		FieldP50:       fs.P50,
		FieldP90:       fs.P90,
		FieldP99:       fs.P99,
		Coverage:       fs.Coverage,
		TopDecileShare: fs.TopDecileShare,
	}

	c.Reset(currentTick)
	return stats
}

// Reset discards the current window and starts a new one at tick.
func (c *Collector) Reset(tick int64) {
	c.windowStartTick = tick
	c.acc = sim.StepStats{}
	c.steps = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
