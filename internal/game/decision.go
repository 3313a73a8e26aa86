package game

import (
	"context"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// MoveDirection is a movement intention relative to the beak.
type MoveDirection int

const (
	MoveNone MoveDirection = iota
	MoveForward
	MoveBackward
	MoveStrafeLeft
	MoveStrafeRight
)

var moveNames = [...]string{"none", "forward", "backward", "strafe_left", "strafe_right"}

func (m MoveDirection) String() string {
	if m < 0 || int(m) >= len(moveNames) {
		return "invalid"
	}
	return moveNames[m]
}

// Offset returns the heading offset from the beak, or false for MoveNone and
// out-of-range values.
func (m MoveDirection) Offset() (geom.Angle, bool) {
	switch m {
	case MoveForward:
		return geom.Wrap(0), true
	case MoveBackward:
		return geom.Wrap(180), true
	case MoveStrafeLeft:
		return geom.Wrap(90), true
	case MoveStrafeRight:
		return geom.Wrap(-90), true
	default:
		return geom.Angle{}, false
	}
}

// Decision is what a chicken intends to do this tick.
type Decision struct {
	Move MoveDirection
	Turn geom.BeakTurn
	Fire bool
}

// NoOp is the decision used when a logic fails or runs out of time.
var NoOp = Decision{}

// Self is a chicken's read-only knowledge of itself.
type Self struct {
	ID        int
	Team      Team
	Position  geom.Point
	Beak      geom.Angle
	HitPoints int
	Cooldown  int // ticks until Fire is honoured
	Tick      int
	Data      GameEngineData
}

// CanFire reports whether a Fire decision would spawn a shot this tick.
func (s Self) CanFire() bool { return s.Cooldown == 0 }

// Logic decides a chicken's action from its own state and filtered view. The
// engine calls Decide once per living chicken per tick, possibly on several
// goroutines at once, but never concurrently for the same instance.
type Logic interface {
	Decide(ctx context.Context, self Self, view ViewInfo) (Decision, error)
}

// LogicFunc adapts a plain function to Logic.
type LogicFunc func(ctx context.Context, self Self, view ViewInfo) (Decision, error)

func (f LogicFunc) Decide(ctx context.Context, self Self, view ViewInfo) (Decision, error) {
	return f(ctx, self, view)
}

// LogicFactory builds one Logic instance per chicken. seed is derived from the
// engine seed so randomised logics stay reproducible.
type LogicFactory func(seed int64) Logic

// TeamSpec describes one side's roster.
type TeamSpec struct {
	Name  string
	Count int
	Logic LogicFactory
}
