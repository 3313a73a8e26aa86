package collision

import (
	"fmt"
	"math"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// LineSegment is a finite segment with distinct endpoints.
type LineSegment struct {
	start, end geom.Point
}

// NewLineSegment rejects non-finite or coincident endpoints.
func NewLineSegment(start, end geom.Point) (LineSegment, error) {
	if !start.IsFinite() || !end.IsFinite() {
		return LineSegment{}, fmt.Errorf("%w: %v-%v", ErrNonFinite, start, end)
	}
	if start.Equal(end) {
		return LineSegment{}, fmt.Errorf("%w: %v", ErrDegenerateLine, start)
	}
	return LineSegment{start: start, end: end}, nil
}

// MustLineSegment panics on invalid input.
func MustLineSegment(start, end geom.Point) LineSegment {
	l, err := NewLineSegment(start, end)
	if err != nil {
		panic(err)
	}
	return l
}

func (l LineSegment) Start() geom.Point { return l.start }
func (l LineSegment) End() geom.Point   { return l.end }
func (l LineSegment) Kind() Kind        { return KindLine }
func (LineSegment) primitive()          {}
func (l LineSegment) valid() bool       { return !l.start.Equal(l.end) }

// Direction is end minus start.
func (l LineSegment) Direction() geom.Vec2 { return l.end.Sub(l.start) }

func (l LineSegment) Bounds() Rect {
	return Rect{
		Min: geom.V(math.Min(l.start.X, l.end.X), math.Min(l.start.Y, l.end.Y)),
		Max: geom.V(math.Max(l.start.X, l.end.X), math.Max(l.start.Y, l.end.Y)),
	}
}

func (l LineSegment) String() string {
	return fmt.Sprintf("line{%v-%v}", l.start, l.end)
}
