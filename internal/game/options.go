package game

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Garsondee/Chicken-Arena/internal/collision"
)

// DefaultDecisionTimeout bounds one Decide call.
const DefaultDecisionTimeout = 100 * time.Millisecond

// Renderer receives every snapshot the engine produces, on the stepping
// goroutine.
type Renderer func(Snapshot)

type config struct {
	width, height int
	seed          int64
	renderers     []Renderer
	positioner    Positioner
	timeout       time.Duration
	workers       int
	observer      collision.Observer
	logger        *slog.Logger
	simLog        *SimLog
}

func defaultConfig() config {
	return config{
		width:      16,
		height:     12,
		seed:       1,
		positioner: RandomCells,
		timeout:    DefaultDecisionTimeout,
		workers:    runtime.GOMAXPROCS(0),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// Option configures an Engine during construction.
type Option func(*config)

// WithBoardSize sets the nominal board dimensions in cells.
func WithBoardSize(w, h int) Option {
	return func(c *config) {
		c.width = w
		c.height = h
	}
}

// WithSeed sets the RNG seed for placement and per-chicken logic seeds.
func WithSeed(seed int64) Option {
	return func(c *config) { c.seed = seed }
}

// WithRenderer adds a snapshot consumer. May be given more than once.
func WithRenderer(r Renderer) Option {
	return func(c *config) {
		if r != nil {
			c.renderers = append(c.renderers, r)
		}
	}
}

// WithPositioner replaces the random initial placement.
func WithPositioner(p Positioner) Option {
	return func(c *config) {
		if p != nil {
			c.positioner = p
		}
	}
}

// WithDecisionTimeout bounds each Decide call. Zero or negative disables the
// bound.
func WithDecisionTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithDecisionWorkers caps how many Decide calls run at once.
func WithDecisionWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCollisionObserver attaches an observer to the engine's detector.
func WithCollisionObserver(obs collision.Observer) Option {
	return func(c *config) { c.observer = obs }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSimLog records every event into sl.
func WithSimLog(sl *SimLog) Option {
	return func(c *config) { c.simLog = sl }
}
