// Package geom holds the 2D value types shared by the collision kernel and the
// simulation: vectors, normalized angles and beak turn fractions.
package geom

import (
	"fmt"
	"math"
)

// Epsilon is the single tolerance used for every sign and zero decision.
// Collision outcomes depend on it, so nothing else should compare floats
// against zero directly.
const Epsilon = 1e-9

// IsZero reports whether v is within Epsilon of zero.
func IsZero(v float64) bool { return math.Abs(v) <= Epsilon }

// IsPositive reports whether v is greater than Epsilon.
func IsPositive(v float64) bool { return v > Epsilon }

// IsNegative reports whether v is less than -Epsilon.
func IsNegative(v float64) bool { return v < -Epsilon }

// NearlyEqual reports whether a and b differ by at most Epsilon.
func NearlyEqual(a, b float64) bool { return IsZero(a - b) }

// Vec2 is an immutable 2D vector. It doubles as a point.
type Vec2 struct {
	X, Y float64
}

// Point is a position in world space.
type Point = Vec2

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }
func (a Vec2) LenSq() float64 { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Len() float64 { return math.Hypot(a.X, a.Y) }
func (a Vec2) DistSq(b Vec2) float64 { return a.Sub(b).LenSq() }
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Len() }
func (a Vec2) Neg() Vec2 { return Vec2{-a.X, -a.Y} }
func (a Vec2) Perp() Vec2 { return Vec2{-a.Y, a.X} }
func (a Vec2) Equal(b Vec2) bool { return NearlyEqual(a.X, b.X) && NearlyEqual(a.Y, b.Y) }
func (a Vec2) String() string { return fmt.Sprintf("(%.2f,%.2f)", a.X, a.Y) }
func (a Vec2) IsFinite() bool { return isFinite(a.X) && isFinite(a.Y) }

// Cross is the 2D perp-dot product a.X*b.Y - a.Y*b.X. Its sign tells which
// side of a the vector b points to.
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// Normalize returns the unit vector in the direction of a, or the zero vector
// when a has no length.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if IsZero(l) {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Rotate turns a counter-clockwise by angle.
func (a Vec2) Rotate(angle Angle) Vec2 {
	sin, cos := math.Sincos(angle.Radians())
	return Vec2{a.X*cos - a.Y*sin, a.X*sin + a.Y*cos}
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
