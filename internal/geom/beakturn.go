package geom

import "math"

const (
	MinBeakTurn = -1.0
	MaxBeakTurn = 1.0
)

// BeakTurn is the fraction of the maximum per-step angular speed a chicken
// asks for. Positive values turn counter-clockwise.
type BeakTurn struct {
	v float64
}

// NoTurn keeps the beak still.
var NoTurn = BeakTurn{}

// NewBeakTurn clamps v into [MinBeakTurn, MaxBeakTurn]. NaN becomes NoTurn.
func NewBeakTurn(v float64) BeakTurn {
	if math.IsNaN(v) {
		return NoTurn
	}
	return BeakTurn{v: math.Max(MinBeakTurn, math.Min(MaxBeakTurn, v))}
}

// TurnToward returns the turn that rotates from toward target, saturating at
// maxStep degrees per step.
func TurnToward(from, target Angle, maxStep float64) BeakTurn {
	if !IsPositive(maxStep) {
		return NoTurn
	}
	return NewBeakTurn(target.Sub(from).Degrees() / maxStep)
}

func (t BeakTurn) Value() float64 { return t.v }
