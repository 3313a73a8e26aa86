package collision

import (
	"fmt"
	"math"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// Circle is a disk with a strictly positive radius.
type Circle struct {
	center geom.Point
	radius float64
}

// NewCircle validates the radius and centre.
func NewCircle(center geom.Point, radius float64) (Circle, error) {
	if !center.IsFinite() {
		return Circle{}, fmt.Errorf("%w: centre %v", ErrNonFinite, center)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || !geom.IsPositive(radius) {
		return Circle{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return Circle{center: center, radius: radius}, nil
}

// MustCircle is NewCircle for values known to be valid at compile time.
func MustCircle(center geom.Point, radius float64) Circle {
	c, err := NewCircle(center, radius)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Circle) Center() geom.Point { return c.center }
func (c Circle) Radius() float64    { return c.radius }
func (c Circle) Kind() Kind         { return KindCircle }
func (Circle) primitive()           {}
func (c Circle) valid() bool        { return geom.IsPositive(c.radius) }

func (c Circle) Bounds() Rect {
	r := geom.V(c.radius, c.radius)
	return Rect{Min: c.center.Sub(r), Max: c.center.Add(r)}
}

// Contains reports whether p lies inside or on the circle.
func (c Circle) Contains(p geom.Point) bool {
	return !geom.IsPositive(c.center.DistSq(p) - c.radius*c.radius)
}

func (c Circle) String() string {
	return fmt.Sprintf("circle{c=%v r=%.2f}", c.center, c.radius)
}
