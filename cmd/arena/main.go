package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Chicken-Arena/internal/ai"
	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/record"
	"github.com/Garsondee/Chicken-Arena/internal/viewer"
)

func main() {
	red := flag.String("red", "hunter", "red strategy ("+strings.Join(ai.Names(), "|")+")")
	blue := flag.String("blue", "random", "blue strategy")
	redCount := flag.Int("red-count", 4, "red chickens")
	blueCount := flag.Int("blue-count", 4, "blue chickens")
	width := flag.Int("width", 16, "board width in cells")
	height := flag.Int("height", 12, "board height in cells")
	seed := flag.Int64("seed", 1, "engine seed")
	lines := flag.Bool("lines", false, "start teams in facing lines instead of random cells")
	ticks := flag.Int("ticks", 0, "stop after this many ticks (0 = until elimination)")
	replay := flag.String("replay", "", "play back a recorded parquet match instead of simulating")
	recordDir := flag.String("record", "", "record the live match into this directory")
	verbose := flag.Bool("v", false, "log engine events")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.Background()

	var (
		g      *viewer.Game
		writer *record.MatchWriter
	)
	if *replay != "" {
		meta, frames, err := record.ReadMatch(*replay)
		if err != nil {
			log.Fatal(err)
		}
		src, err := viewer.NewReplaySource(meta.MatchID, frames)
		if err != nil {
			log.Fatal(err)
		}
		data, err := game.DataForBoard(frames[0].Width, frames[0].Height)
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("replay loaded", "match", meta.MatchID, "red", meta.Red, "blue", meta.Blue, "frames", len(frames))
		g = viewer.New(ctx, src, data)
	} else {
		redTeam, err := ai.Team(*red, *redCount)
		if err != nil {
			log.Fatal(err)
		}
		blueTeam, err := ai.Team(*blue, *blueCount)
		if err != nil {
			log.Fatal(err)
		}
		opts := []game.Option{
			game.WithBoardSize(*width, *height),
			game.WithSeed(*seed),
			game.WithLogger(logger),
			game.WithSimLog(game.NewSimLog(false)),
		}
		if *lines {
			opts = append(opts, game.WithPositioner(game.FacingLines))
		}
		if *recordDir != "" {
			if writer, err = record.NewMatchWriter(*recordDir, record.NewMatchMeta(*red, *blue, *seed)); err != nil {
				log.Fatal(err)
			}
			opts = append(opts, game.WithRenderer(writer.Renderer()))
		}
		e, err := game.NewEngine(redTeam, blueTeam, opts...)
		if err != nil {
			log.Fatal(err)
		}
		if writer != nil {
			if err := writer.Write(e.Snapshot()); err != nil {
				log.Fatal(err)
			}
		}
		g = viewer.New(ctx, viewer.NewLiveSource(e, *ticks), e.Data())
	}

	ebiten.SetWindowTitle("Chicken Arena")
	ebiten.SetWindowSize(g.WindowSize())
	runErr := ebiten.RunGame(g)
	if writer != nil {
		path, frames, err := writer.Finalize()
		if err != nil {
			logger.Error("finalize replay", "err", err)
		} else {
			logger.Info("replay written", "path", path, "frames", frames)
		}
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
