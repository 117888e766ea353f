package game

import (
	"log/slog"

	"github.com/pthm-cable/physarum/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry(tick int64) {
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.sim.Field(), g.sim.AgentCount())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// SaveSnapshot writes the current state to the snapshot directory, or to
// ./snapshots when none was configured.
func (g *Game) SaveSnapshot() (string, error) {
	snap, err := g.sim.Capture()
	if err != nil {
		return "", err
	}
	dir := g.snapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	return telemetry.SaveSnapshot(snap, nil, dir)
}

// LoadSnapshot replaces the running state with a snapshot file.
func (g *Game) LoadSnapshot(path string) error {
	file, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if err := g.sim.Restore(file.Snapshot); err != nil {
		return err
	}
	g.resetTelemetry()
	return nil
}

// saveSnapshot captures and saves a snapshot, logging failures.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snap, err := g.sim.Capture()
	if err != nil {
		slog.Error("failed to capture snapshot", "error", err)
		return
	}

	path, err := telemetry.SaveSnapshot(snap, bookmark, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", snap.Tick)
}
