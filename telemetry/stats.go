// Package telemetry provides trail-network statistics, performance timing,
// bookmarks and snapshot files for simulation runs.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats summarizes the distribution of trail intensity over all cells.
type FieldStats struct {
	Total float64
	Max   float64
	Mean  float64
	Std   float64
	P50   float64
	P90   float64
	P99   float64

	// Coverage is the fraction of cells strictly above the coverage threshold.
	Coverage float64
	// TopDecileShare is the fraction of total trail held by the brightest
	// 10% of cells. Near 0.1 for a uniform haze, near 1 for thin networks.
	TopDecileShare float64
}

// ComputeFieldStats calculates FieldStats from raw field values. scratch is
// reused for the sorted copy when large enough; the grown buffer is returned.
func ComputeFieldStats(values []float64, threshold float64, scratch []float64) (FieldStats, []float64) {
	n := len(values)
	if n == 0 {
		return FieldStats{}, scratch
	}

	sorted := append(scratch[:0], values...)
	sort.Float64s(sorted)

	var fs FieldStats
	fs.Total = floats.Sum(sorted)
	fs.Max = sorted[n-1]
	if n > 1 {
		fs.Mean, fs.Std = stat.PopMeanStdDev(sorted, nil)
	} else {
		fs.Mean = sorted[0]
	}
	fs.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	fs.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	fs.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)

	above := sort.Search(n, func(i int) bool { return sorted[i] > threshold })
	fs.Coverage = float64(n-above) / float64(n)

	if fs.Total > 0 {
		k := max(1, n/10)
		fs.TopDecileShare = floats.Sum(sorted[n-k:]) / fs.Total
	}

	return fs, sorted
}

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`
	Agents          int   `csv:"agents"`
	Steps           int   `csv:"steps"`

	// Agent events summed over the window
	Moves      int `csv:"moves"`
	Deposits   int `csv:"deposits"`
	Bounces    int `csv:"bounces"`
	Collisions int `csv:"collisions"`

	// Steering decisions summed over the window
	Straight    int     `csv:"straight"`
	TurnsLeft   int     `csv:"turns_left"`
	TurnsRight  int     `csv:"turns_right"`
	TurnsRandom int     `csv:"turns_random"`
	TurnRate    float64 `csv:"turn_rate"` // turns per agent-step

	// Trail field sampled at window end
	FieldTotal     float64 `csv:"field_total"`
	FieldMax       float64 `csv:"field_max"`
	FieldMean      float64 `csv:"field_mean"`
	FieldStd       float64 `csv:"field_std"`
	FieldP50       float64 `csv:"field_p50"`
	FieldP90       float64 `csv:"field_p90"`
	FieldP99       float64 `csv:"field_p99"`
	Coverage       float64 `csv:"coverage"`
	TopDecileShare float64 `csv:"top_decile_share"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("agents", s.Agents),
		slog.Int("steps", s.Steps),
		slog.Int("deposits", s.Deposits),
		slog.Int("bounces", s.Bounces),
		slog.Int("collisions", s.Collisions),
		slog.Float64("turn_rate", s.TurnRate),
		slog.Float64("field_total", s.FieldTotal),
		slog.Float64("field_max", s.FieldMax),
		slog.Float64("field_mean", s.FieldMean),
		slog.Float64("field_p90", s.FieldP90),
		slog.Float64("coverage", s.Coverage),
		slog.Float64("top_decile_share", s.TopDecileShare),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"agents", s.Agents,
		"moves", s.Moves,
		"deposits", s.Deposits,
		"bounces", s.Bounces,
		"collisions", s.Collisions,
		"turns_left", s.TurnsLeft,
		"turns_right", s.TurnsRight,
		"turns_random", s.TurnsRandom,
		"turn_rate", s.TurnRate,
		"field_total", s.FieldTotal,
		"field_max", s.FieldMax,
		"field_mean", s.FieldMean,
		"field_std", s.FieldStd,
		"field_p50", s.FieldP50,
		"field_p90", s.FieldP90,
		"field_p99", s.FieldP99,
		"coverage", s.Coverage,
		"top_decile_share", s.TopDecileShare,
	)
}
