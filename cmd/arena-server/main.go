package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Garsondee/Chicken-Arena/internal/ai"
	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/record"
	"github.com/Garsondee/Chicken-Arena/internal/stream"
)

type config struct {
	addr          string
	red, blue     string
	redCount      int
	blueCount     int
	width, height int
	seed          int64
	ticks         int
	speed         float64
	recordDir     string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.addr, "addr", ":8080", "listen address")
	flag.StringVar(&cfg.red, "red", "hunter", "red strategy ("+strings.Join(ai.Names(), "|")+")")
	flag.StringVar(&cfg.blue, "blue", "hunter", "blue strategy")
	flag.IntVar(&cfg.redCount, "red-count", 4, "red chickens")
	flag.IntVar(&cfg.blueCount, "blue-count", 4, "blue chickens")
	flag.IntVar(&cfg.width, "width", 16, "board width in cells")
	flag.IntVar(&cfg.height, "height", 12, "board height in cells")
	flag.Int64Var(&cfg.seed, "seed", 1, "engine seed")
	flag.IntVar(&cfg.ticks, "ticks", 0, "stop simulating after this many ticks (0 = until elimination)")
	flag.Float64Var(&cfg.speed, "speed", 1, "simulation speed multiplier")
	flag.StringVar(&cfg.recordDir, "record", "", "record the match into this directory")
	flag.Parse()
	if raw := os.Getenv("ARENA_ADDR"); raw != "" {
		cfg.addr = raw
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	if cfg.speed <= 0 {
		return fmt.Errorf("speed must be > 0, got %v", cfg.speed)
	}
	red, err := ai.Team(cfg.red, cfg.redCount)
	if err != nil {
		return err
	}
	blue, err := ai.Team(cfg.blue, cfg.blueCount)
	if err != nil {
		return err
	}

	meta := record.MatchMeta{MatchID: uuid.NewString(), Red: cfg.red, Blue: cfg.blue, Seed: cfg.seed}
	logger = logger.With("match", meta.MatchID)
	hub := stream.NewHub(meta.MatchID, logger)
	defer hub.Close()

	opts := []game.Option{
		game.WithBoardSize(cfg.width, cfg.height),
		game.WithSeed(cfg.seed),
		game.WithLogger(logger),
		game.WithRenderer(hub.Renderer()),
	}
	var writer *record.MatchWriter
	if cfg.recordDir != "" {
		if writer, err = record.NewMatchWriter(cfg.recordDir, meta); err != nil {
			return err
		}
		opts = append(opts, game.WithRenderer(writer.Renderer()))
	}
	e, err := game.NewEngine(red, blue, opts...)
	if err != nil {
		return err
	}
	first := e.Snapshot()
	if err := hub.Broadcast(first); err != nil {
		return err
	}
	if writer != nil {
		if err := writer.Write(first); err != nil {
			return err
		}
	}

	srv := &http.Server{Addr: cfg.addr, Handler: hub.Handler()}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serveErr)
	}()

	simErr := simulate(ctx, e, cfg, logger)
	if writer != nil {
		if path, frames, err := writer.Finalize(); err != nil {
			logger.Error("finalize replay", "err", err)
		} else {
			logger.Info("replay written", "path", path, "frames", frames)
		}
	}
	if simErr != nil && !errors.Is(simErr, context.Canceled) {
		return simErr
	}

	// Keep serving the final frame until shutdown.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// simulate steps e in real time until the match ends or ctx is done.
func simulate(ctx context.Context, e *game.Engine, cfg config, logger *slog.Logger) error {
	interval := time.Duration(e.Data().StepDelta / cfg.speed * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		snap, err := e.Step(ctx)
		if err != nil {
			return err
		}
		if snap.Alive(game.TeamRed) == 0 || snap.Alive(game.TeamBlue) == 0 || (cfg.ticks > 0 && snap.Tick >= cfg.ticks) {
			out := e.Outcome()
			logger.Info("match over", "tick", snap.Tick, "outcome", out.Outcome.String(), "reason", out.Description)
			return nil
		}
	}
}
