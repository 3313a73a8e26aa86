package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// TestArena is a headless harness that builds an Engine from hand-placed
// chickens with per-chicken logic and structured logging.
type TestArena struct {
	Engine *Engine
	SimLog *SimLog

	width, height int
	seed          int64
	engineOpts    []Option
	red, blue     []arenaChicken
}

type arenaChicken struct {
	place Placement
	logic Logic
}

// arenaOptionKind controls the pass in which an option is applied.
type arenaOptionKind int

const (
	arenaOptInfra   arenaOptionKind = iota // board size, seed, verbose, engine options
	arenaOptChicken                        // chickens, in the order given
)

// ArenaOption is a builder function applied to a TestArena during construction.
type ArenaOption struct {
	kind arenaOptionKind
	fn   func(*TestArena)
}

// WithArenaSize sets the nominal board size in cells.
func WithArenaSize(w, h int) ArenaOption {
	return ArenaOption{arenaOptInfra, func(ta *TestArena) {
		ta.width = w
		ta.height = h
	}}
}

// WithArenaSeed sets the engine seed.
func WithArenaSeed(seed int64) ArenaOption {
	return ArenaOption{arenaOptInfra, func(ta *TestArena) { ta.seed = seed }}
}

// WithVerbose enables per-tick pose logging.
func WithVerbose(v bool) ArenaOption {
	return ArenaOption{arenaOptInfra, func(ta *TestArena) { ta.SimLog = NewSimLog(v) }}
}

// WithEngineOption forwards an option to NewEngine.
func WithEngineOption(o Option) ArenaOption {
	return ArenaOption{arenaOptInfra, func(ta *TestArena) { ta.engineOpts = append(ta.engineOpts, o) }}
}

// WithRedChicken adds a red chicken at (x,y) with its beak at beakDeg.
func WithRedChicken(x, y, beakDeg float64, logic Logic) ArenaOption {
	return ArenaOption{arenaOptChicken, func(ta *TestArena) {
		ta.red = append(ta.red, arenaChicken{Placement{geom.V(x, y), geom.Wrap(beakDeg)}, logic})
	}}
}

// WithBlueChicken adds a blue chicken at (x,y) with its beak at beakDeg.
func WithBlueChicken(x, y, beakDeg float64, logic Logic) ArenaOption {
	return ArenaOption{arenaOptChicken, func(ta *TestArena) {
		ta.blue = append(ta.blue, arenaChicken{Placement{geom.V(x, y), geom.Wrap(beakDeg)}, logic})
	}}
}

// NewTestArena constructs a TestArena in two ordered passes:
//  1. Infrastructure (board size, seed, verbose, engine options)
//  2. Chickens
func NewTestArena(opts ...ArenaOption) (*TestArena, error) {
	ta := &TestArena{
		width:  16,
		height: 12,
		seed:   1,
		SimLog: NewSimLog(false),
	}
	for _, o := range opts {
		if o.kind == arenaOptInfra {
			o.fn(ta)
		}
	}
	for _, o := range opts {
		if o.kind == arenaOptChicken {
			o.fn(ta)
		}
	}

	engineOpts := append([]Option{
		WithBoardSize(ta.width, ta.height),
		WithSeed(ta.seed),
		WithSimLog(ta.SimLog),
		WithPositioner(ta.positions),
	}, ta.engineOpts...)
	e, err := NewEngine(
		TeamSpec{Name: "red", Count: len(ta.red), Logic: sequence(ta.red)},
		TeamSpec{Name: "blue", Count: len(ta.blue), Logic: sequence(ta.blue)},
		engineOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("test arena: %w", err)
	}
	ta.Engine = e
	return ta, nil
}

func (ta *TestArena) positions(_ GameEngineData, red, blue int, _ *rand.Rand) ([]Placement, []Placement, error) {
	rp := make([]Placement, 0, red)
	for _, c := range ta.red {
		rp = append(rp, c.place)
	}
	bp := make([]Placement, 0, blue)
	for _, c := range ta.blue {
		bp = append(bp, c.place)
	}
	return rp, bp, nil
}

// sequence hands out each chicken's logic in roster order.
func sequence(cs []arenaChicken) LogicFactory {
	next := 0
	return func(int64) Logic {
		if next >= len(cs) {
			return nil
		}
		l := cs[next].logic
		next++
		return l
	}
}

// Step advances one tick with a background context.
func (ta *TestArena) Step() (Snapshot, error) {
	return ta.Engine.Step(context.Background())
}

// RunTicks advances n ticks, stopping at the first error.
func (ta *TestArena) RunTicks(n int) (Snapshot, error) {
	snap := ta.Engine.Snapshot()
	for i := 0; i < n; i++ {
		var err error
		if snap, err = ta.Step(); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// RunUntil steps until cond holds or maxTicks ticks pass. It reports whether
// cond was met.
func (ta *TestArena) RunUntil(maxTicks int, cond func(Snapshot) bool) (Snapshot, bool, error) {
	snap := ta.Engine.Snapshot()
	for i := 0; i < maxTicks; i++ {
		var err error
		if snap, err = ta.Step(); err != nil {
			return snap, false, err
		}
		if cond(snap) {
			return snap, true, nil
		}
	}
	return snap, false, nil
}

// CurrentTick returns the number of completed ticks.
func (ta *TestArena) CurrentTick() int { return ta.Engine.Tick() }

// Idle never acts.
func Idle() Logic {
	return LogicFunc(func(context.Context, Self, ViewInfo) (Decision, error) { return NoOp, nil })
}

// Scripted always returns d.
func Scripted(d Decision) Logic {
	return LogicFunc(func(context.Context, Self, ViewInfo) (Decision, error) { return d, nil })
}
