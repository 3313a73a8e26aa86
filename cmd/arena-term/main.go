package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Chicken-Arena/internal/ai"
	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/termview"
)

func main() {
	red := flag.String("red", "hunter", "red strategy ("+strings.Join(ai.Names(), "|")+")")
	blue := flag.String("blue", "random", "blue strategy")
	redCount := flag.Int("red-count", 3, "red chickens")
	blueCount := flag.Int("blue-count", 3, "blue chickens")
	width := flag.Int("width", 16, "board width in cells")
	height := flag.Int("height", 12, "board height in cells")
	seed := flag.Int64("seed", 1, "engine seed")
	ticks := flag.Int("ticks", 0, "stop after this many ticks (0 = until elimination)")
	sound := flag.Bool("sound", false, "play hit and death tones")
	flag.Parse()

	if err := run(*red, *blue, *redCount, *blueCount, *width, *height, *seed, *ticks, *sound); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(red, blue string, redCount, blueCount, width, height int, seed int64, ticks int, sound bool) error {
	redTeam, err := ai.Team(red, redCount)
	if err != nil {
		return err
	}
	blueTeam, err := ai.Team(blue, blueCount)
	if err != nil {
		return err
	}
	data, err := game.NewGameEngineData(width, height)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	var cue *termview.Cue
	if sound {
		// A Cue that failed to open stays silent.
		cue, _ = termview.NewCue()
		defer cue.Close()
	}
	term := termview.New(screen, data, cue)

	simLog := game.NewSimLog(false)
	e, err := game.NewEngine(redTeam, blueTeam,
		game.WithBoardSize(width, height),
		game.WithSeed(seed),
		game.WithSimLog(simLog),
		game.WithLogger(slog.New(slog.DiscardHandler)),
		game.WithRenderer(term.Renderer()),
	)
	if err != nil {
		return err
	}
	term.Render(e.Snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paused := make(chan struct{}, 1)
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					cancel()
					return
				}
				if ev.Rune() == 'p' || ev.Rune() == ' ' {
					select {
					case paused <- struct{}{}:
					default:
					}
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(time.Duration(data.StepDelta * float64(time.Second)))
	defer ticker.Stop()
	hold := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-paused:
			hold = !hold
		case <-ticker.C:
			if hold {
				continue
			}
			snap, err := e.Step(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if snap.Alive(game.TeamRed) == 0 || snap.Alive(game.TeamBlue) == 0 || (ticks > 0 && snap.Tick >= ticks) {
				screen.Fini()
				fmt.Print(simLog.Summary(snap, e.Roster()))
				out := e.Outcome()
				fmt.Printf("Outcome: %s (%s)\n", out.Outcome, out.Description)
				return nil
			}
		}
	}
}
