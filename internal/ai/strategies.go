package ai

import (
	"context"
	"math"
	"math/rand"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// Idle never acts.
type Idle struct{}

func (Idle) Decide(context.Context, game.Self, game.ViewInfo) (game.Decision, error) {
	return game.NoOp, nil
}

// Spinner turns counter-clockwise at full speed and fires whenever it can.
type Spinner struct{}

func (Spinner) Decide(context.Context, game.Self, game.ViewInfo) (game.Decision, error) {
	return game.Decision{Turn: geom.NewBeakTurn(geom.MaxBeakTurn), Fire: true}, nil
}

// Random picks a move and turn from its own seeded source and holds each
// choice for a few ticks so the walk is not pure jitter.
type Random struct {
	rng  *rand.Rand
	hold int
	cur  game.Decision
}

// NewRandom is the LogicFactory for Random.
func NewRandom(seed int64) game.Logic {
	return &Random{rng: rand.New(rand.NewSource(seed))} // #nosec G404 -- simulation
}

func (r *Random) Decide(_ context.Context, _ game.Self, _ game.ViewInfo) (game.Decision, error) {
	if r.hold <= 0 {
		r.cur = game.Decision{
			Move: game.MoveDirection(r.rng.Intn(int(game.MoveStrafeRight) + 1)),
			Turn: geom.NewBeakTurn(r.rng.Float64()*2 - 1),
		}
		r.hold = 5 + r.rng.Intn(20)
	}
	r.hold--
	d := r.cur
	d.Fire = r.rng.Intn(10) == 0
	return d, nil
}

// --- Hunter ---

const (
	hunterAimTolerance = 4.0 // degrees either side of the target bearing
	hunterCloseCells   = 2.0
	hunterFarCells     = 6.0
	hunterWallCells    = 1.5
	hunterDodgeFactor  = 2.5 // body radii a shot may pass within before dodging
)

// Hunter turns toward the nearest visible enemy, fires when aligned, closes
// distance when far and backs off when close. Without a target it sweeps.
type Hunter struct {
	rng      *rand.Rand
	sweepDir float64
	strafe   game.MoveDirection
}

// NewHunter is the LogicFactory for Hunter.
func NewHunter(seed int64) game.Logic {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation
	h := &Hunter{rng: rng, sweepDir: 1, strafe: game.MoveStrafeLeft}
	if rng.Intn(2) == 0 {
		h.sweepDir = -1
		h.strafe = game.MoveStrafeRight
	}
	return h
}

func (h *Hunter) Decide(ctx context.Context, self game.Self, view game.ViewInfo) (game.Decision, error) {
	if err := ctx.Err(); err != nil {
		return game.NoOp, err
	}
	data := self.Data

	if shotIncoming(self, view.Shots) {
		return game.Decision{Move: h.strafe, Fire: self.CanFire() && aimingAtEnemy(self, view)}, nil
	}

	target, ok := game.Nearest(self.Position, view.Enemies())
	if !ok {
		d := game.Decision{Turn: geom.NewBeakTurn(h.sweepDir)}
		if h.clearAhead(self) {
			d.Move = game.MoveForward
		}
		return d, nil
	}

	bearing := geom.AngleOf(target.Position.Sub(self.Position))
	off := math.Abs(bearing.Sub(self.Beak).Degrees())
	d := game.Decision{
		Turn: geom.TurnToward(self.Beak, bearing, data.MaxTurnStep()),
		Fire: self.CanFire() && off <= hunterAimTolerance && !teammateInLine(self, view),
	}
	dist := self.Position.Dist(target.Position)
	switch {
	case dist > hunterFarCells*data.CellSize && h.clearAhead(self):
		d.Move = game.MoveForward
	case dist < hunterCloseCells*data.CellSize:
		d.Move = game.MoveBackward
	}
	return d, nil
}

// clearAhead reports whether a short walk along the beak stays on the board.
func (h *Hunter) clearAhead(self game.Self) bool {
	probe := self.Position.Add(self.Beak.Direction().Scale(hunterWallCells * self.Data.CellSize))
	if self.Data.InBounds(probe) {
		return true
	}
	if h.rng.Intn(8) == 0 {
		h.sweepDir = -h.sweepDir
	}
	return false
}

// shotIncoming reports whether an enemy shot is heading to pass close by.
func shotIncoming(self game.Self, shots []game.ShotView) bool {
	danger := hunterDodgeFactor * self.Data.BodyRadius
	for _, s := range shots {
		if s.OwnerTeam == self.Team {
			continue
		}
		dir := s.Angle.Direction()
		rel := self.Position.Sub(s.Position)
		along := rel.Dot(dir)
		if !geom.IsPositive(along) {
			continue
		}
		if math.Abs(rel.Cross(dir)) <= danger {
			return true
		}
	}
	return false
}

func aimingAtEnemy(self game.Self, view game.ViewInfo) bool {
	for _, e := range view.Enemies() {
		bearing := geom.AngleOf(e.Position.Sub(self.Position))
		if math.Abs(bearing.Sub(self.Beak).Degrees()) <= hunterAimTolerance {
			return true
		}
	}
	return false
}

// teammateInLine reports whether a teammate sits in the firing lane.
func teammateInLine(self game.Self, view game.ViewInfo) bool {
	dir := self.Beak.Direction()
	for _, m := range view.Teammates() {
		rel := m.Position.Sub(self.Position)
		if !geom.IsPositive(rel.Dot(dir)) {
			continue
		}
		if math.Abs(rel.Cross(dir)) <= self.Data.BodyRadius+self.Data.ShotRadius {
			return true
		}
	}
	return false
}
