package term

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/physarum/game"
)

// Run drives g in the terminal until the user quits, ctx is cancelled or
// maxTicks is reached (0 = unlimited). The screen is finalized on return.
func Run(ctx context.Context, screen tcell.Screen, g *game.Game, frame time.Duration, maxTicks int64) error {
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	view := NewView(screen)
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go pumpEvents(screen, events, done)

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch HandleEvent(ev) {
			case CommandQuit:
				return nil
			case CommandTogglePause:
				g.TogglePause()
			case CommandFaster:
				g.SetSpeed(g.Speed() * 2)
			case CommandSlower:
				g.SetSpeed(g.Speed() / 2)
			case CommandReset:
				if err := g.Reset(time.Now().UnixNano()); err != nil {
					return err
				}
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
		case <-ticker.C:
			g.Update()
			g.RecordFrame()
			view.Draw(g.Sim().Field(), Status(g.Tick(), g.Speed(), g.Paused(), g.Sim().Field().Total()))
			if maxTicks > 0 && g.Tick() >= maxTicks {
				return nil
			}
		}
	}
}

// pumpEvents forwards screen events to events until the screen is
// finalized or done is closed.
func pumpEvents(screen tcell.Screen, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}
