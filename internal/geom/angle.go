package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrAngleDomain is returned for degree values outside (-180, 180] or not finite.
var ErrAngleDomain = errors.New("angle outside (-180, 180]")

// Angle is a direction in degrees, always normalized to (-180, 180].
// 0 points along +X and positive values turn counter-clockwise.
type Angle struct {
	deg float64
}

// NewAngle builds an angle from a value that is already normalized.
func NewAngle(deg float64) (Angle, error) {
	if !isFinite(deg) || deg <= -180 || deg > 180 {
		return Angle{}, fmt.Errorf("%w: %v", ErrAngleDomain, deg)
	}
	return Angle{deg: deg}, nil
}

// Wrap normalizes any finite degree value into (-180, 180]. NaN and
// infinities map to 0.
func Wrap(deg float64) Angle {
	if !isFinite(deg) {
		return Angle{}
	}
	return Angle{deg: NormalizeDegrees(deg)}
}

// FromRadians wraps a radian value.
func FromRadians(rad float64) Angle {
	return Wrap(rad * 180 / math.Pi)
}

// AngleOf returns the direction of v. The zero vector yields 0.
func AngleOf(v Vec2) Angle {
	if IsZero(v.X) && IsZero(v.Y) {
		return Angle{}
	}
	return FromRadians(math.Atan2(v.Y, v.X))
}

// NormalizeDegrees maps deg into (-180, 180]. Applying it twice gives the
// same result as applying it once.
func NormalizeDegrees(deg float64) float64 {
	if !isFinite(deg) {
		return deg
	}
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

func (a Angle) Degrees() float64 { return a.deg }
func (a Angle) IsFinite() bool { return isFinite(a.deg) }
func (a Angle) Radians() float64 { return a.deg * math.Pi / 180 }

// Add returns a+b re-normalized.
func (a Angle) Add(b Angle) Angle { return Wrap(a.deg + b.deg) }

// AddDegrees returns a+deg re-normalized.
func (a Angle) AddDegrees(deg float64) Angle { return Wrap(a.deg + deg) }

// Sub returns the signed shortest rotation from b to a.
func (a Angle) Sub(b Angle) Angle { return Wrap(a.deg - b.deg) }

// Equal compares within Epsilon, treating 180 and -180+ε as neighbours.
func (a Angle) Equal(b Angle) bool { return IsZero(a.Sub(b).deg) }

// Direction is the unit vector a points along.
func (a Angle) Direction() Vec2 {
	sin, cos := math.Sincos(a.Radians())
	return Vec2{cos, sin}
}

func (a Angle) String() string { return fmt.Sprintf("%.1f°", a.deg) }
