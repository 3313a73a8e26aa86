package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Chicken-Arena/internal/collision"
)

var (
	ErrTeamSpec  = errors.New("game: invalid team spec")
	ErrAIPanic   = errors.New("game: logic panicked")
	ErrAITimeout = errors.New("game: logic timed out")
	ErrAIBusy    = errors.New("game: previous decision still running")
)

// Engine owns every chicken and shot and advances them in fixed steps. Step
// and the accessors may be called from different goroutines.
type Engine struct {
	mu sync.Mutex

	cfg      config
	data     GameEngineData
	detector *collision.Detector
	boundary []collision.LineSegment
	rng      *rand.Rand
	log      *slog.Logger

	chickens []*ChickenUnit // indexed by id
	busy     []atomic.Bool  // per chicken, set while a Decide call is in flight
	shots    []*ShotUnit    // ascending id
	nextShot int
	tick     int
	last     Snapshot
}

// NewEngine validates both rosters, places every chicken and builds one Logic
// per chicken. Red chickens get ids 0..red.Count-1 and blue follow.
func NewEngine(red, blue TeamSpec, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	data, err := NewGameEngineData(cfg.width, cfg.height)
	if err != nil {
		return nil, err
	}
	specs := [2]TeamSpec{red, blue}
	for _, ts := range specs {
		if err := ValidateTeamSize(ts.Count); err != nil {
			return nil, fmt.Errorf("team %q: %w", ts.Name, err)
		}
		if ts.Logic == nil {
			return nil, fmt.Errorf("%w: team %q has no logic", ErrTeamSpec, ts.Name)
		}
	}
	if total := red.Count + blue.Count; total > data.Cells() {
		return nil, fmt.Errorf("%w: %d chickens on %d cells", ErrUnitCount, total, data.Cells())
	}

	e := &Engine{
		cfg:      cfg,
		data:     data,
		detector: collision.NewDetector(cfg.observer),
		boundary: data.BoundaryLines(),
		rng:      rand.New(rand.NewSource(cfg.seed)), // #nosec G404 -- deterministic simulation
		log:      cfg.logger,
	}

	redPos, bluePos, err := cfg.positioner(data, red.Count, blue.Count, e.rng)
	if err != nil {
		return nil, fmt.Errorf("positioning: %w", err)
	}
	if len(redPos) != red.Count || len(bluePos) != blue.Count {
		return nil, fmt.Errorf("%w: got %d+%d placements for %d+%d chickens",
			ErrPlacement, len(redPos), len(bluePos), red.Count, blue.Count)
	}
	all := append(append([]Placement(nil), redPos...), bluePos...)
	if err := validatePlacements(collision.NewDetector(nil), data, all); err != nil {
		return nil, err
	}

	placements := [2][]Placement{redPos, bluePos}
	for ti, team := range Teams() {
		spec := specs[ti]
		for i := 0; i < spec.Count; i++ {
			logic := spec.Logic(e.rng.Int63())
			if logic == nil {
				return nil, fmt.Errorf("%w: team %q factory returned nil", ErrTeamSpec, spec.Name)
			}
			id := len(e.chickens)
			e.chickens = append(e.chickens, newChicken(id, team, i, placements[ti][i], data.MaxHitPoints, logic))
		}
	}
	e.busy = make([]atomic.Bool, len(e.chickens))
	e.last = e.snapshot(nil)

	e.log.Info("engine ready",
		"board", fmt.Sprintf("%dx%d", data.NominalWidth, data.NominalHeight),
		"red", red.Name, "red_count", red.Count,
		"blue", blue.Name, "blue_count", blue.Count,
		"seed", cfg.seed)
	return e, nil
}

// Data returns the game constants.
func (e *Engine) Data() GameEngineData { return e.data }

// Tick returns the number of completed ticks.
func (e *Engine) Tick() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Snapshot returns the state after the last completed tick.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Log returns the SimLog passed via WithSimLog, or nil.
func (e *Engine) Log() *SimLog { return e.cfg.simLog }

// Roster returns per-chicken statistics for every chicken, dead or alive.
func (e *Engine) Roster() []UnitStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]UnitStats, len(e.chickens))
	for i, c := range e.chickens {
		out[i] = c.stats()
	}
	return out
}

// Outcome classifies the current state of the match.
func (e *Engine) Outcome() OutcomeReason { return DetermineOutcome(e.Roster()) }

// Step runs one tick: decisions, kinematics, shot spawning, collisions and
// the death sweep, in that order. If ctx is cancelled before the decision
// phase completes the tick is abandoned and no state changes.
func (e *Engine) Step(ctx context.Context) (Snapshot, error) {
	snap, err := e.step(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for _, r := range e.cfg.renderers {
		r(snap)
	}
	return snap, nil
}

// Run steps until maxTicks ticks have run in this call, at most one team has
// chickens left, or ctx is done.
func (e *Engine) Run(ctx context.Context, maxTicks int) (Snapshot, error) {
	snap := e.Snapshot()
	for i := 0; i < maxTicks; i++ {
		if snap.Alive(TeamRed) == 0 || snap.Alive(TeamBlue) == 0 {
			break
		}
		var err error
		if snap, err = e.Step(ctx); err != nil {
			return e.Snapshot(), err
		}
	}
	return snap, nil
}

func (e *Engine) step(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	tick := e.tick + 1
	f := e.captureFrame(tick)
	decisions, events := e.decide(ctx, f)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("tick %d abandoned: %w", tick, err)
	}
	e.tick = tick

	prev := e.applyKinematics(f, decisions)
	fresh, fired := e.spawnShots(f, decisions)
	events = append(events, fired...)
	events = append(events, e.resolveMovement(prev, fresh)...)
	events = append(events, e.resolveHits()...)
	events = append(events, e.sweepDead()...)

	e.last = e.snapshot(events)
	e.recordEvents(events)
	return e.last, nil
}

// --- Phase 1: decisions ---

func (e *Engine) decide(ctx context.Context, f frame) ([]Decision, []Event) {
	decisions := make([]Decision, len(f.chickens))
	failures := make([]error, len(f.chickens))

	var g errgroup.Group
	g.SetLimit(e.cfg.workers)
	for i, fc := range f.chickens {
		g.Go(func() error {
			view := f.viewFor(e.data, fc)
			decisions[i], failures[i] = e.invoke(ctx, fc.id, fc.self, view)
			return nil
		})
	}
	_ = g.Wait()

	var events []Event
	for i, err := range failures {
		if err == nil {
			continue
		}
		decisions[i] = NoOp
		id := f.chickens[i].id
		kind := failureKind(err)
		e.log.Warn("decision failed", "tick", f.tick, "chicken", e.chickens[id].label, "kind", kind.String(), "err", err)
		events = append(events, Event{Tick: f.tick, Kind: kind, ChickenID: id, OtherID: -1, Detail: err.Error()})
	}
	return decisions, events
}

// invoke calls the chicken's logic under the decision deadline. A call that
// overruns keeps its goroutine; the chicken gets NoOp until it returns.
func (e *Engine) invoke(ctx context.Context, id int, self Self, view ViewInfo) (Decision, error) {
	busy := &e.busy[id]
	if !busy.CompareAndSwap(false, true) {
		return NoOp, ErrAIBusy
	}
	logic := e.chickens[id].logic
	if e.cfg.timeout <= 0 {
		defer busy.Store(false)
		return callLogic(ctx, logic, self, view)
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()
	type result struct {
		d   Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer busy.Store(false)
		d, err := callLogic(cctx, logic, self, view)
		done <- result{d, err}
	}()
	select {
	case r := <-done:
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return NoOp, fmt.Errorf("%w after %s", ErrAITimeout, e.cfg.timeout)
		}
		return r.d, r.err
	case <-cctx.Done():
		return NoOp, fmt.Errorf("%w after %s", ErrAITimeout, e.cfg.timeout)
	}
}

func callLogic(ctx context.Context, logic Logic, self Self, view ViewInfo) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = NoOp, fmt.Errorf("%w: %v", ErrAIPanic, r)
		}
	}()
	return logic.Decide(ctx, self, view)
}

func failureKind(err error) EventKind {
	switch {
	case errors.Is(err, ErrAIPanic):
		return EventAIPanic
	case errors.Is(err, ErrAITimeout), errors.Is(err, ErrAIBusy), errors.Is(err, context.DeadlineExceeded):
		return EventAITimeout
	default:
		return EventAIError
	}
}

// --- Phase 2: kinematics ---

// applyKinematics turns and moves every living chicken and advances every
// existing shot. It returns the pre-tick pose of each chicken by id.
func (e *Engine) applyKinematics(f frame, decisions []Decision) map[int]Placement {
	prev := make(map[int]Placement, len(f.chickens))
	for i, fc := range f.chickens {
		c := e.chickens[fc.id]
		d := decisions[i]
		prev[c.id] = Placement{Position: c.position, Beak: c.beak}
		c.beak = c.beak.AddDegrees(d.Turn.Value() * e.data.MaxTurnStep())
		if off, ok := d.Move.Offset(); ok {
			c.position = c.position.Add(c.beak.Add(off).Direction().Scale(e.data.MoveStep()))
		}
	}

	kept := e.shots[:0]
	for _, s := range e.shots {
		s.advance(e.data.ShotStep())
		if !s.expired(e.data) {
			kept = append(kept, s)
		}
	}
	clear(e.shots[len(kept):])
	e.shots = kept
	return prev
}

// --- Phase 3: shot spawning ---

func (e *Engine) spawnShots(f frame, decisions []Decision) ([]*ShotUnit, []Event) {
	var fresh []*ShotUnit
	var events []Event
	for i, fc := range f.chickens {
		c := e.chickens[fc.id]
		if !decisions[i].Fire || c.cooldown > 0 {
			if c.cooldown > 0 {
				c.cooldown--
			}
			continue
		}
		e.nextShot++
		s := &ShotUnit{
			id:        e.nextShot,
			ownerID:   c.id,
			ownerTeam: c.team,
			position:  BeakTip(e.data, c.position, c.beak),
			angle:     c.beak,
			bornAt:    e.tick,
		}
		e.shots = append(e.shots, s)
		fresh = append(fresh, s)
		c.cooldown = e.data.FireCooldownTicks
		c.shotsFired++
		events = append(events, Event{Tick: e.tick, Kind: EventShotFired, ChickenID: c.id, OtherID: -1, ShotID: s.id})
	}
	return fresh, events
}

// --- Phase 4: collisions ---

// resolveMovement reverts every chicken whose new pose leaves the board or
// overlaps another chicken, repeating until no pose changes. Reverted poses
// were valid together before the tick, so this settles in at most one pass
// per chicken.
func (e *Engine) resolveMovement(prev map[int]Placement, fresh []*ShotUnit) []Event {
	var events []Event
	blocked := make(map[int]bool)
	living := e.living()
	for {
		elems := make([]collision.Compound, len(living))
		for i, c := range living {
			elems[i] = ChickenElement(e.data, c.position, c.beak)
		}
		var revert []*ChickenUnit
		for i, c := range living {
			p := prev[c.id]
			if c.position == p.Position && c.beak == p.Beak {
				continue
			}
			if !e.poseValid(i, living, elems) {
				revert = append(revert, c)
			}
		}
		if len(revert) == 0 {
			break
		}
		for _, c := range revert {
			p := prev[c.id]
			c.position, c.beak = p.Position, p.Beak
			if !blocked[c.id] {
				blocked[c.id] = true
				events = append(events, Event{Tick: e.tick, Kind: EventMoveBlocked, ChickenID: c.id, OtherID: -1})
			}
		}
	}

	for _, s := range fresh {
		if !blocked[s.ownerID] {
			continue
		}
		c := e.chickens[s.ownerID]
		s.position = BeakTip(e.data, c.position, c.beak)
		s.angle = c.beak
	}
	return events
}

func (e *Engine) poseValid(i int, living []*ChickenUnit, elems []collision.Compound) bool {
	c := living[i]
	if !e.data.InBounds(c.position) {
		return false
	}
	for _, l := range e.boundary {
		if e.detector.CollidePrimitive(l, elems[i]) {
			return false
		}
	}
	for j := range living {
		if j != i && e.detector.CollideElements(elems[i], elems[j]) {
			return false
		}
	}
	return true
}

// resolveHits lets each shot strike at most one chicken other than its owner.
// Shots are processed by ascending id and victims by ascending id.
func (e *Engine) resolveHits() []Event {
	living := e.living()
	elems := make([]collision.Compound, len(living))
	for i, c := range living {
		elems[i] = ChickenElement(e.data, c.position, c.beak)
	}

	var events []Event
	kept := e.shots[:0]
	for _, s := range e.shots {
		shot := ShotElement(e.data, s.position)
		var victim *ChickenUnit
		for i, c := range living {
			if c.id != s.ownerID && e.detector.CollideElements(shot, elems[i]) {
				victim = c
				break
			}
		}
		if victim == nil {
			kept = append(kept, s)
			continue
		}
		victim.takeHit(e.data.ShotDamage)
		e.chickens[s.ownerID].hitsLanded++
		events = append(events, Event{
			Tick:      e.tick,
			Kind:      EventHit,
			ChickenID: victim.id,
			OtherID:   s.ownerID,
			ShotID:    s.id,
			Detail:    fmt.Sprintf("hp=%d", victim.hitPoints),
		})
	}
	clear(e.shots[len(kept):])
	e.shots = kept
	return events
}

// --- Phase 5: death sweep ---

func (e *Engine) sweepDead() []Event {
	var events []Event
	for _, c := range e.chickens {
		if !c.alive || c.hitPoints > 0 {
			continue
		}
		c.alive = false
		c.diedAt = e.tick
		events = append(events, Event{Tick: e.tick, Kind: EventDeath, ChickenID: c.id, OtherID: -1})
		e.log.Info("chicken died", "tick", e.tick, "chicken", c.label, "team", c.team.String())
	}
	return events
}

func (e *Engine) living() []*ChickenUnit {
	out := make([]*ChickenUnit, 0, len(e.chickens))
	for _, c := range e.chickens {
		if c.alive {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) recordEvents(events []Event) {
	for _, ev := range events {
		e.log.Debug("event", "tick", ev.Tick, "kind", ev.Kind.String(), "chicken", ev.ChickenID, "other", ev.OtherID, "shot", ev.ShotID)
	}
	sl := e.cfg.simLog
	if sl == nil {
		return
	}
	for _, ev := range events {
		c := e.chickens[ev.ChickenID]
		sl.Add(ev.Tick, c.label, c.team.String(), ev.Kind.Category(), ev.Kind.String(), ev.describe(e.chickens), float64(ev.OtherID))
	}
	for _, c := range e.chickens {
		if c.alive {
			sl.AddVerbose(e.tick, c.label, c.team.String(), "move", "pose",
				fmt.Sprintf("%v %v", c.position, c.beak), float64(c.hitPoints))
		}
	}
}
