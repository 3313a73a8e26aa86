package collision

import (
	"fmt"
	"math"
	"strings"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// ConvexPolygon is a convex polygon with counter-clockwise vertices.
type ConvexPolygon struct {
	vertices []geom.Point
}

// NewConvexPolygon copies vertices, reverses clockwise input and rejects
// concave, self-intersecting or zero-area outlines.
func NewConvexPolygon(vertices ...geom.Point) (ConvexPolygon, error) {
	if len(vertices) < 3 {
		return ConvexPolygon{}, fmt.Errorf("%w: got %d", ErrTooFewVertices, len(vertices))
	}
	vs := make([]geom.Point, len(vertices))
	copy(vs, vertices)
	for i, v := range vs {
		if !v.IsFinite() {
			return ConvexPolygon{}, fmt.Errorf("%w: vertex %d %v", ErrNonFinite, i, v)
		}
		if v.Equal(vs[(i+1)%len(vs)]) {
			return ConvexPolygon{}, fmt.Errorf("%w: vertex %d repeats", ErrDegeneratePolygon, i)
		}
	}

	area := signedArea(vs)
	if geom.IsZero(area) {
		return ConvexPolygon{}, ErrDegeneratePolygon
	}
	if geom.IsNegative(area) {
		for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
			vs[i], vs[j] = vs[j], vs[i]
		}
	}
	if !convexCCW(vs) {
		return ConvexPolygon{}, ErrNotConvex
	}
	return ConvexPolygon{vertices: vs}, nil
}

// MustConvexPolygon panics on invalid input.
func MustConvexPolygon(vertices ...geom.Point) ConvexPolygon {
	p, err := NewConvexPolygon(vertices...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p ConvexPolygon) Kind() Kind { return KindPolygon }
func (ConvexPolygon) primitive()   {}
func (p ConvexPolygon) valid() bool { return len(p.vertices) >= 3 }

// Vertices returns a copy of the CCW vertex list.
func (p ConvexPolygon) Vertices() []geom.Point {
	out := make([]geom.Point, len(p.vertices))
	copy(out, p.vertices)
	return out
}

func (p ConvexPolygon) Len() int { return len(p.vertices) }

// IsConvex re-checks the invariant established by the constructor.
func (p ConvexPolygon) IsConvex() bool {
	return len(p.vertices) >= 3 && geom.IsPositive(signedArea(p.vertices)) && convexCCW(p.vertices)
}

// Edge returns the i-th edge as its start and end vertex.
func (p ConvexPolygon) Edge(i int) (geom.Point, geom.Point) {
	n := len(p.vertices)
	return p.vertices[i%n], p.vertices[(i+1)%n]
}

// Contains reports whether q lies inside or on the boundary.
func (p ConvexPolygon) Contains(q geom.Point) bool {
	for i := range p.vertices {
		a, b := p.Edge(i)
		if geom.IsNegative(b.Sub(a).Cross(q.Sub(a))) {
			return false
		}
	}
	return true
}

func (p ConvexPolygon) Bounds() Rect {
	r := Rect{
		Min: geom.V(math.Inf(1), math.Inf(1)),
		Max: geom.V(math.Inf(-1), math.Inf(-1)),
	}
	for _, v := range p.vertices {
		r.Min.X = math.Min(r.Min.X, v.X)
		r.Min.Y = math.Min(r.Min.Y, v.Y)
		r.Max.X = math.Max(r.Max.X, v.X)
		r.Max.Y = math.Max(r.Max.Y, v.Y)
	}
	return r
}

func (p ConvexPolygon) String() string {
	parts := make([]string, len(p.vertices))
	for i, v := range p.vertices {
		parts[i] = v.String()
	}
	return "polygon{" + strings.Join(parts, " ") + "}"
}

// signedArea is positive for counter-clockwise outlines (shoelace formula).
func signedArea(vs []geom.Point) float64 {
	sum := 0.0
	for i, a := range vs {
		b := vs[(i+1)%len(vs)]
		sum += a.Cross(b)
	}
	return sum / 2
}

// convexCCW requires every vertex to sit on or left of every edge. This also
// rejects star-shaped outlines whose turns all share a sign.
func convexCCW(vs []geom.Point) bool {
	n := len(vs)
	for i := 0; i < n; i++ {
		a, b := vs[i], vs[(i+1)%n]
		edge := b.Sub(a)
		for j := 0; j < n; j++ {
			if j == i || j == (i+1)%n {
				continue
			}
			if geom.IsNegative(edge.Cross(vs[j].Sub(a))) {
				return false
			}
		}
	}
	return true
}
