package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/stream"
	"github.com/pthm-cable/physarum/term"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args and runs the selected mode. Deferred cleanup (output
// files, workers) completes before main exits with the returned code.
func run(args []string) int {
	// CLI flags
	fs := flag.NewFlagSet("physarum", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := fs.Bool("headless", false, "Run without graphics")
	termView := fs.Bool("term", false, "Render the trail in the terminal")
	serveAddr := fs.String("serve", "", "Broadcast frames over websocket on this address (e.g. :8080)")
	logStats := fs.Bool("log-stats", false, "Output stats via slog")
	statsWindow := fs.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := fs.String("snapshot-dir", "", "Directory for snapshot files")
	snapshotEvery := fs.Int64("snapshot-every", 0, "Write a snapshot every N ticks (0 = bookmarks only)")
	loadSnapshot := fs.String("load-snapshot", "", "Resume from a snapshot file")
	outputDir := fs.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := fs.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := fs.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := fs.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster runs)")
	paletteName := fs.String("palette", "amber", "Trail palette: amber | grayscale")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Set up slog (JSON to stdout for structured logging). The terminal
	// viewer owns stdout, so its logs go to stderr.
	logOut := os.Stdout
	if *termView {
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		SnapshotDir:    *snapshotDir,
		SnapshotEvery:  *snapshotEvery,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	}

	var hub *stream.Hub
	if *serveAddr != "" {
		hub = stream.NewHub(cfg.World.Width, cfg.World.Height, cfg.Stream.Downsample)
		opts.Sink = hub
		opts.FrameInterval = cfg.Stream.FrameInterval
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer g.Unload()

	if *loadSnapshot != "" {
		if err := g.LoadSnapshot(*loadSnapshot); err != nil {
			slog.Error("failed to load snapshot", "path", *loadSnapshot, "error", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frame := time.Second / time.Duration(max(1, cfg.Screen.TargetFPS))

	switch {
	case hub != nil:
		slog.Info("serving frames", "addr", *serveAddr, "seed", rngSeed)
		if err := runServer(ctx, *serveAddr, g, hub, frame, *maxTicks); err != nil {
			slog.Error("server stopped", "error", err)
			return 1
		}
	case *termView:
		screen, err := tcell.NewScreen()
		if err != nil {
			slog.Error("failed to open terminal", "error", err)
			return 1
		}
		if err := term.Run(ctx, screen, g, frame, *maxTicks); err != nil {
			slog.Error("terminal viewer stopped", "error", err)
			return 1
		}
	case *headless:
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"agents", cfg.Agents.Count,
			"max_ticks", *maxTicks,
			"steps_per_update", g.Speed(),
		)
		runHeadless(ctx, g, *maxTicks)
	default:
		runWindow(cfg, g, *paletteName, *maxTicks)
	}
	return 0
}

// runHeadless steps g until maxTicks (0 = unlimited) or ctx is cancelled.
func runHeadless(ctx context.Context, g *game.Game, maxTicks int64) {
	for ctx.Err() == nil {
		g.UpdateHeadless()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
}
