package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/stream"
)

// runServer steps g on a frame ticker while hub broadcasts to clients on
// /ws. Client commands are applied between updates so the game is only
// touched from this goroutine.
func runServer(ctx context.Context, addr string, g *game.Game, hub *stream.Hub, frame time.Duration, maxTicks int64) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	defer func() {
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case cmd := <-hub.Commands():
			if err := applyCommand(g, cmd); err != nil {
				slog.Warn("command failed", "type", cmd.Type, "error", err)
			}
		case <-ticker.C:
			g.Update()
			if maxTicks > 0 && g.Tick() >= maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return nil
			}
		}
	}
}

// applyCommand executes a client control message. Unknown types are logged
// and ignored.
func applyCommand(g *game.Game, cmd stream.Command) error {
	switch cmd.Type {
	case "pause":
		g.SetPaused(true)
	case "resume":
		g.SetPaused(false)
	case "reset":
		return g.Reset(time.Now().UnixNano())
	case "speed":
		g.SetSpeed(int(cmd.Value))
	default:
		slog.Debug("unknown command", "type", cmd.Type)
	}
	return nil
}
