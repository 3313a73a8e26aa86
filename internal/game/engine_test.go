package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// viewRecorder keeps the last view a chicken received.
type viewRecorder struct {
	mu   sync.Mutex
	last ViewInfo
	self Self
	d    Decision
}

func (r *viewRecorder) Decide(_ context.Context, self Self, view ViewInfo) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last, r.self = view, self
	return r.d, nil
}

func (r *viewRecorder) view() ViewInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// fireOnce shoots on the first tick only.
func fireOnce() Logic {
	return LogicFunc(func(_ context.Context, self Self, _ ViewInfo) (Decision, error) {
		return Decision{Fire: self.Tick == 1}, nil
	})
}

func newArena(t *testing.T, opts ...ArenaOption) *TestArena {
	t.Helper()
	ta, err := NewTestArena(opts...)
	if err != nil {
		t.Fatalf("NewTestArena: %v", err)
	}
	return ta
}

func dumpLog(t *testing.T, ta *TestArena) {
	t.Helper()
	for _, e := range ta.SimLog.Entries() {
		t.Log(e.String())
	}
}

// --- Scenario: one shot, one hit ---

func TestEngine_HitDecrementsOnceAndConsumesShot(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, fireOnce()),
		WithBlueChicken(300, 240, 180, Idle()),
	)
	snap, ok, err := ta.RunUntil(60, func(s Snapshot) bool { return len(s.EventsOf(EventHit)) > 0 })
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		dumpLog(t, ta)
		t.Fatal("shot never hit the blue chicken")
	}
	hit := snap.EventsOf(EventHit)[0]
	if hit.ChickenID != 1 || hit.OtherID != 0 {
		t.Fatalf("expected blue (1) hit by red (0), got %+v", hit)
	}
	blue, _ := snap.Chicken(1)
	if blue.HitPoints != ta.Engine.Data().MaxHitPoints-1 {
		t.Fatalf("expected exactly one point of damage, hp=%d", blue.HitPoints)
	}
	if len(snap.Shots) != 0 {
		t.Fatalf("hitting shot should be removed, %d remain", len(snap.Shots))
	}
	if n := ta.SimLog.CountCategory("combat", "hit"); n != 1 {
		t.Fatalf("expected one hit entry in SimLog, got %d", n)
	}
}

func TestEngine_ShotNeverHitsItsOwner(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Fire: true, Move: MoveForward})),
		WithBlueChicken(600, 40, 90, Idle()),
	)
	snap, err := ta.RunTicks(40)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(snap.EventsOf(EventHit)); n != 0 {
		t.Fatalf("owner walking behind its own shots should never be hit, got %d hits", n)
	}
	red, _ := snap.Chicken(0)
	if red.HitPoints != ta.Engine.Data().MaxHitPoints {
		t.Fatalf("red took damage: hp=%d", red.HitPoints)
	}
}

func TestEngine_FriendlyFire(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, fireOnce()),
		WithRedChicken(200, 240, 90, Idle()),
		WithBlueChicken(600, 40, 90, Idle()),
	)
	snap, ok, err := ta.RunUntil(30, func(s Snapshot) bool { return len(s.EventsOf(EventHit)) > 0 })
	if err != nil || !ok {
		t.Fatalf("expected the teammate to be hit (ok=%v err=%v)", ok, err)
	}
	if hit := snap.EventsOf(EventHit)[0]; hit.ChickenID != 1 {
		t.Fatalf("expected teammate 1 to be hit, got %+v", hit)
	}
}

// --- Scenario: vision ---

func TestEngine_ViewExcludesEnemyBehindAndSelf(t *testing.T) {
	obs := &viewRecorder{}
	ta := newArena(t,
		WithRedChicken(300, 240, 0, obs),
		WithRedChicken(300, 80, 180, Idle()), // teammate, outside the cone
		WithBlueChicken(200, 240, 0, Idle()), // directly behind
		WithBlueChicken(450, 250, 0, Idle()), // ahead
	)
	if _, err := ta.Step(); err != nil {
		t.Fatal(err)
	}
	view := obs.view()
	seen := map[int]bool{}
	for _, c := range view.Chickens {
		seen[c.ID] = true
	}
	if seen[0] {
		t.Fatal("a chicken must not see itself")
	}
	if !seen[1] {
		t.Fatal("teammates are always visible")
	}
	if seen[2] {
		t.Fatal("enemy directly behind should not be visible")
	}
	if !seen[3] {
		t.Fatal("enemy ahead should be visible")
	}
	if len(view.Enemies()) != 1 || len(view.Teammates()) != 1 {
		t.Fatalf("unexpected split: %d enemies, %d teammates", len(view.Enemies()), len(view.Teammates()))
	}
}

func TestEngine_ViewRangeLimit(t *testing.T) {
	obs := &viewRecorder{}
	ta := newArena(t,
		WithArenaSize(32, 12),
		WithRedChicken(60, 240, 0, obs),
		WithBlueChicken(1200, 240, 180, Idle()), // beyond 12 cells
	)
	if _, err := ta.Step(); err != nil {
		t.Fatal(err)
	}
	if n := len(obs.view().Enemies()); n != 0 {
		t.Fatalf("enemy beyond view distance should not be visible, saw %d", n)
	}
}

func TestEngine_DeadChickenVanishes(t *testing.T) {
	obs := &viewRecorder{d: Decision{Fire: true}}
	ta := newArena(t,
		WithRedChicken(100, 240, 0, obs),
		WithBlueChicken(250, 240, 180, Idle()),
		WithBlueChicken(600, 400, 90, Idle()),
	)
	snap, ok, err := ta.RunUntil(200, func(s Snapshot) bool { return len(s.EventsOf(EventDeath)) > 0 })
	if err != nil || !ok {
		dumpLog(t, ta)
		t.Fatalf("blue chicken should die (ok=%v err=%v)", ok, err)
	}
	if _, alive := snap.Chicken(1); alive {
		t.Fatal("dead chicken still in the snapshot of its death tick")
	}
	deaths := snap.Tick

	snap, err = ta.RunTicks(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, alive := snap.Chicken(1); alive {
		t.Fatal("dead chicken reappeared in a later snapshot")
	}
	for _, c := range obs.view().Chickens {
		if c.ID == 1 {
			t.Fatal("dead chicken present in a later view")
		}
	}
	for _, u := range ta.Engine.Roster() {
		if u.ID == 1 && (u.Alive || u.DiedAt != deaths) {
			t.Fatalf("roster should keep the dead chicken with its death tick: %+v", u)
		}
	}
}

// --- Scenario: logic failures ---

func TestEngine_LogicErrorBecomesNoOp(t *testing.T) {
	boom := LogicFunc(func(context.Context, Self, ViewInfo) (Decision, error) {
		return Decision{Move: MoveForward, Fire: true}, errors.New("boom")
	})
	ta := newArena(t,
		WithRedChicken(100, 240, 0, boom),
		WithBlueChicken(500, 240, 180, Idle()),
	)
	snap, err := ta.Step()
	if err != nil {
		t.Fatalf("a failing logic must not fail the tick: %v", err)
	}
	if n := len(snap.EventsOf(EventAIError)); n != 1 {
		t.Fatalf("expected one ai_error event, got %d", n)
	}
	red, _ := snap.Chicken(0)
	if !red.Position.Equal(geom.V(100, 240)) || len(snap.Shots) != 0 {
		t.Fatal("failed decision should behave as a no-op")
	}
}

func TestEngine_LogicPanicIsContained(t *testing.T) {
	panicky := LogicFunc(func(context.Context, Self, ViewInfo) (Decision, error) {
		panic("chicken exploded")
	})
	ta := newArena(t,
		WithRedChicken(100, 240, 0, panicky),
		WithBlueChicken(500, 240, 180, Scripted(Decision{Move: MoveForward})),
	)
	snap, err := ta.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(snap.EventsOf(EventAIPanic)); n != 1 {
		t.Fatalf("expected one ai_panic event, got %d", n)
	}
	blue, _ := snap.Chicken(1)
	if blue.Position.Equal(geom.V(500, 240)) {
		t.Fatal("other chickens should still act")
	}
}

func TestEngine_LogicTimeout(t *testing.T) {
	slow := LogicFunc(func(ctx context.Context, _ Self, _ ViewInfo) (Decision, error) {
		<-ctx.Done()
		return Decision{Fire: true}, nil
	})
	ta := newArena(t,
		WithEngineOption(WithDecisionTimeout(10*time.Millisecond)),
		WithRedChicken(100, 240, 0, slow),
		WithBlueChicken(500, 240, 180, Idle()),
	)
	snap, err := ta.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(snap.EventsOf(EventAITimeout)); n != 1 {
		t.Fatalf("expected one ai_timeout event, got %d", n)
	}
	if len(snap.Shots) != 0 {
		t.Fatal("timed-out decision must not fire")
	}
}

func TestEngine_OverrunningLogicIsNotReentered(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	free := func() { once.Do(func() { close(release) }) }
	t.Cleanup(free)

	var entries, active atomic.Int32
	var overlapped atomic.Bool
	stuck := LogicFunc(func(_ context.Context, _ Self, _ ViewInfo) (Decision, error) {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer active.Add(-1)
		if entries.Add(1) == 1 {
			<-release
			return NoOp, nil
		}
		return Decision{Fire: true}, nil
	})
	ta := newArena(t,
		WithEngineOption(WithDecisionTimeout(5*time.Millisecond)),
		WithRedChicken(100, 240, 0, stuck),
		WithBlueChicken(500, 240, 180, Idle()),
	)

	start := time.Now()
	for i := 0; i < 5; i++ {
		snap, err := ta.Step()
		if err != nil {
			t.Fatal(err)
		}
		if n := len(snap.EventsOf(EventAITimeout)); n != 1 {
			t.Fatalf("tick %d: expected one ai_timeout event, got %d", snap.Tick, n)
		}
		if len(snap.Shots) != 0 {
			t.Fatalf("tick %d: a stuck logic must not fire", snap.Tick)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("five ticks with a stuck logic took %s", elapsed)
	}
	if n := entries.Load(); n != 1 {
		t.Fatalf("logic entered %d times while still running", n)
	}

	free()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := ta.Step()
		if err != nil {
			t.Fatal(err)
		}
		if len(snap.Shots) > 0 {
			break
		}
		if time.Now().After(deadline) {
			dumpLog(t, ta)
			t.Fatal("released logic never fired")
		}
		time.Sleep(time.Millisecond)
	}
	if overlapped.Load() {
		t.Fatal("logic was entered while a previous call was still running")
	}
}

// vandal scribbles over every slice it is handed.
func vandal() Logic {
	return LogicFunc(func(_ context.Context, _ Self, view ViewInfo) (Decision, error) {
		for i := range view.Chickens {
			view.Chickens[i].Position = geom.V(-1, -1)
			view.Chickens[i].ID = -1
		}
		for i := range view.Shots {
			view.Shots[i].Position = geom.V(-1, -1)
		}
		if len(view.Chickens) > 0 {
			_ = append(view.Chickens[:0], ChickenView{ID: 99})
		}
		return NoOp, nil
	})
}

func TestEngine_ViewMutationDoesNotLeak(t *testing.T) {
	run := func(first Logic) ([]Snapshot, ViewInfo, ViewInfo) {
		mate := &viewRecorder{}
		blue := &viewRecorder{d: Decision{Fire: true}}
		ta := newArena(t,
			WithRedChicken(100, 240, 0, first),
			WithRedChicken(100, 400, 0, mate),
			WithBlueChicken(300, 240, 180, blue),
		)
		var snaps []Snapshot
		for i := 0; i < 3; i++ {
			snap, err := ta.Step()
			if err != nil {
				t.Fatal(err)
			}
			snaps = append(snaps, snap)
		}
		return snaps, mate.view(), blue.view()
	}

	clean, cleanMate, cleanBlue := run(Idle())
	dirty, dirtyMate, dirtyBlue := run(vandal())

	if len(clean[1].Shots) == 0 {
		t.Fatal("expected a shot in flight for the logic to see")
	}
	for i := range clean {
		if !reflect.DeepEqual(clean[i], dirty[i]) {
			t.Fatalf("tick %d snapshot changed by a logic mutating its view:\nclean %+v\ndirty %+v", i+1, clean[i], dirty[i])
		}
	}
	if !reflect.DeepEqual(cleanMate, dirtyMate) {
		t.Fatalf("teammate view changed:\nclean %+v\ndirty %+v", cleanMate, dirtyMate)
	}
	if !reflect.DeepEqual(cleanBlue, dirtyBlue) {
		t.Fatalf("enemy view changed:\nclean %+v\ndirty %+v", cleanBlue, dirtyBlue)
	}
}

func TestEngine_CancelledContextChangesNothing(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Move: MoveForward})),
		WithBlueChicken(500, 240, 180, Idle()),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ta.Engine.Step(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ta.CurrentTick() != 0 {
		t.Fatalf("cancelled step advanced the tick to %d", ta.CurrentTick())
	}
}

// --- Scenario: movement ---

func TestEngine_MoveAndTurn(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Move: MoveForward, Turn: geom.NewBeakTurn(1)})),
		WithBlueChicken(500, 240, 180, Scripted(Decision{Move: MoveStrafeLeft})),
	)
	snap, err := ta.Step()
	if err != nil {
		t.Fatal(err)
	}
	d := ta.Engine.Data()
	red, _ := snap.Chicken(0)
	if !red.Beak.Equal(geom.Wrap(d.MaxTurnStep())) {
		t.Fatalf("full turn should rotate by %v, got %v", d.MaxTurnStep(), red.Beak)
	}
	if got := red.Position.Dist(geom.V(100, 240)); !geom.NearlyEqual(got, d.MoveStep()) {
		t.Fatalf("expected move of %v, got %v", d.MoveStep(), got)
	}
	blue, _ := snap.Chicken(1)
	// Strafe left of a beak facing 180 is heading 270, i.e. -90.
	want := geom.V(500, 240-d.MoveStep())
	if !blue.Position.Equal(want) {
		t.Fatalf("strafe left: expected %v, got %v", want, blue.Position)
	}
}

func TestEngine_ChickensBlockEachOther(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Move: MoveForward})),
		WithBlueChicken(134, 240, 180, Scripted(Decision{Move: MoveForward})),
	)
	snap, err := ta.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(snap.EventsOf(EventMoveBlocked)); n != 2 {
		t.Fatalf("both chickens should be blocked, got %d events", n)
	}
	red, _ := snap.Chicken(0)
	blue, _ := snap.Chicken(1)
	if !red.Position.Equal(geom.V(100, 240)) || !blue.Position.Equal(geom.V(134, 240)) {
		t.Fatalf("blocked chickens should keep their pre-tick poses: %v %v", red.Position, blue.Position)
	}
}

func TestEngine_BoundaryBlocks(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(17, 240, 180, Scripted(Decision{Move: MoveForward})),
		WithBlueChicken(500, 240, 180, Idle()),
	)
	snap, err := ta.RunTicks(5)
	if err != nil {
		t.Fatal(err)
	}
	red, _ := snap.Chicken(0)
	if !red.Position.Equal(geom.V(17, 240)) {
		t.Fatalf("chicken walked through the wall: %v", red.Position)
	}
	if n := ta.SimLog.CountCategory("move", "move_blocked"); n != 5 {
		t.Fatalf("expected a block every tick, got %d", n)
	}
}

// --- Scenario: shots ---

func TestEngine_FireCooldown(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Fire: true})),
		WithBlueChicken(600, 40, 90, Idle()),
	)
	if _, err := ta.RunTicks(40); err != nil {
		t.Fatal(err)
	}
	fired := ta.SimLog.Filter("combat", "shot_fired")
	if len(fired) != 3 {
		t.Fatalf("expected shots on ticks 1, 17 and 33, got %d", len(fired))
	}
	want := []int{1, 17, 33}
	for i, e := range fired {
		if e.Tick != want[i] {
			t.Fatalf("shot %d fired on tick %d, want %d", i, e.Tick, want[i])
		}
	}
}

func TestEngine_ShotExpires(t *testing.T) {
	ta := newArena(t,
		WithArenaSize(64, 12),
		WithRedChicken(30, 240, 0, fireOnce()),
		WithBlueChicken(2000, 40, 90, Idle()),
	)
	life := ta.Engine.Data().ShotLifetimeTicks
	snap, err := ta.RunTicks(life + 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Shots) != 1 {
		t.Fatalf("shot should survive %d advances, got %d shots", life, len(snap.Shots))
	}
	snap, err = ta.Step()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Shots) != 0 {
		t.Fatal("shot should be removed once past its lifetime")
	}
}

func TestEngine_ShotLeavesBoard(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(600, 240, 0, fireOnce()),
		WithBlueChicken(100, 40, 90, Idle()),
	)
	snap, err := ta.RunTicks(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Shots) != 0 {
		t.Fatal("shot past the board edge should be removed")
	}
}

// --- Construction ---

func TestNewEngine_Rejects(t *testing.T) {
	idle := func(int64) Logic { return Idle() }
	one := TeamSpec{Name: "a", Count: 1, Logic: idle}

	if _, err := NewEngine(one, one, WithBoardSize(3, 8)); !errors.Is(err, ErrBoardSize) {
		t.Fatalf("small board: expected ErrBoardSize, got %v", err)
	}
	if _, err := NewEngine(TeamSpec{Name: "a", Count: 0, Logic: idle}, one); !errors.Is(err, ErrUnitCount) {
		t.Fatalf("empty team: expected ErrUnitCount, got %v", err)
	}
	big := TeamSpec{Name: "a", Count: 9, Logic: idle}
	if _, err := NewEngine(big, big, WithBoardSize(4, 4)); !errors.Is(err, ErrUnitCount) {
		t.Fatalf("18 chickens on 16 cells: expected ErrUnitCount, got %v", err)
	}
	if _, err := NewEngine(TeamSpec{Name: "a", Count: 1}, one); !errors.Is(err, ErrTeamSpec) {
		t.Fatalf("nil logic: expected ErrTeamSpec, got %v", err)
	}
	_, err := NewTestArena(
		WithRedChicken(100, 240, 0, Idle()),
		WithBlueChicken(105, 240, 0, Idle()),
	)
	if !errors.Is(err, ErrPlacement) {
		t.Fatalf("overlapping placement: expected ErrPlacement, got %v", err)
	}

	fixed := func(red, blue Placement) Positioner {
		return func(GameEngineData, int, int, *rand.Rand) ([]Placement, []Placement, error) {
			return []Placement{red}, []Placement{blue}, nil
		}
	}
	blue := Placement{Position: geom.V(500, 240), Beak: geom.Wrap(180)}
	nanPos := Placement{Position: geom.V(math.NaN(), 240)}
	if _, err := NewEngine(one, one, WithPositioner(fixed(nanPos, blue))); !errors.Is(err, ErrPlacement) {
		t.Fatalf("NaN position: expected ErrPlacement, got %v", err)
	}
	nanBeak := Placement{Position: geom.V(100, 240), Beak: geom.Wrap(math.NaN())}
	e, err := NewEngine(one, one, WithPositioner(fixed(nanBeak, blue)))
	if err != nil {
		t.Fatalf("wrapped NaN beak: %v", err)
	}
	if b := e.Snapshot().Chickens[0].Beak; b.Degrees() != 0 {
		t.Fatalf("wrapped NaN beak should face 0, got %v", b.Degrees())
	}
}

func TestRandomCells_NonOverlapping(t *testing.T) {
	data, err := NewGameEngineData(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(3)) // #nosec G404 -- test data
	red, blue, err := RandomCells(data, 8, 8, rng)
	if err != nil {
		t.Fatal(err)
	}
	all := append(red, blue...)
	seen := map[geom.Point]bool{}
	for _, p := range all {
		if seen[p.Position] {
			t.Fatalf("two chickens share cell centre %v", p.Position)
		}
		seen[p.Position] = true
	}
}

// --- Determinism ---

type seededWalker struct{ rng *rand.Rand }

func (w *seededWalker) Decide(_ context.Context, _ Self, _ ViewInfo) (Decision, error) {
	return Decision{
		Move: MoveDirection(w.rng.Intn(5)),
		Turn: geom.NewBeakTurn(w.rng.Float64()*2 - 1),
		Fire: w.rng.Intn(4) == 0,
	}, nil
}

func walkerTeam(name string, n int) TeamSpec {
	return TeamSpec{Name: name, Count: n, Logic: func(seed int64) Logic {
		return &seededWalker{rng: rand.New(rand.NewSource(seed))} // #nosec G404 -- test data
	}}
}

func TestEngine_Deterministic(t *testing.T) {
	run := func() []Snapshot {
		var snaps []Snapshot
		e, err := NewEngine(walkerTeam("red", 6), walkerTeam("blue", 6),
			WithBoardSize(10, 8), WithSeed(99), WithDecisionWorkers(4),
			WithRenderer(func(s Snapshot) { snaps = append(snaps, s) }))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 150; i++ {
			if _, err := e.Step(context.Background()); err != nil {
				t.Fatal(err)
			}
		}
		return snaps
	}
	a, b := run(), run()
	if len(a) != 150 {
		t.Fatalf("renderer should see every tick, got %d", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed and logic should give identical snapshots")
	}
}

func TestEngine_RunStopsOnElimination(t *testing.T) {
	ta := newArena(t,
		WithRedChicken(100, 240, 0, Scripted(Decision{Fire: true})),
		WithBlueChicken(250, 240, 180, Idle()),
	)
	snap, err := ta.Engine.Run(context.Background(), 500)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Alive(TeamBlue) != 0 {
		t.Fatal("blue should be eliminated")
	}
	if snap.Tick >= 500 {
		t.Fatal("Run should stop once a team is eliminated")
	}
	if o := ta.Engine.Outcome(); o.Outcome != OutcomeRedVictory {
		t.Fatalf("expected red victory, got %s", o.Outcome)
	}
	t.Log(ta.SimLog.Summary(snap, ta.Engine.Roster()))
}
