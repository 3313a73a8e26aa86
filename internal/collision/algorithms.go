package collision

import (
	"math"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// CircleCircle reports whether the disks touch: squared centre distance at
// most the squared radius sum.
func CircleCircle(a, b Circle) bool {
	rr := a.radius + b.radius
	return !geom.IsPositive(a.center.DistSq(b.center) - rr*rr)
}

// CircleLine clips against the finite segment. The perpendicular distance to
// the infinite line rejects first; the projection parameter or an endpoint
// inside the circle then decides.
func CircleLine(c Circle, l LineSegment) bool {
	d := l.Direction()
	lenSq := d.LenSq()
	rel := c.center.Sub(l.start)

	// |cross| / |d| is the distance to the infinite line; compare squared.
	cross := d.Cross(rel)
	if geom.IsPositive(cross*cross/lenSq - c.radius*c.radius) {
		return false
	}
	t := rel.Dot(d) / lenSq
	if !geom.IsNegative(t) && !geom.IsPositive(t-1) {
		return true
	}
	return c.Contains(l.start) || c.Contains(l.end)
}

// LineLine is the orientation test applied in both directions. Collinear
// segments collide only when their projections overlap.
func LineLine(a, b LineSegment) bool {
	return segmentsIntersect(a.start, a.end, b.start, b.end)
}

// CirclePolygon holds when the centre is inside the polygon or the nearest
// edge is within the radius.
func CirclePolygon(c Circle, p ConvexPolygon) bool {
	if p.Contains(c.center) {
		return true
	}
	rr := c.radius * c.radius
	for i := range p.vertices {
		a, b := p.Edge(i)
		if !geom.IsPositive(pointSegmentDistSq(c.center, a, b) - rr) {
			return true
		}
	}
	return false
}

// LinePolygon holds when either endpoint is inside the polygon or the segment
// crosses an edge.
func LinePolygon(l LineSegment, p ConvexPolygon) bool {
	if p.Contains(l.start) || p.Contains(l.end) {
		return true
	}
	for i := range p.vertices {
		a, b := p.Edge(i)
		if segmentsIntersect(l.start, l.end, a, b) {
			return true
		}
	}
	return false
}

// PolygonPolygon applies the separating axis theorem over the edge normals of
// both polygons. Touching intervals count as a collision.
func PolygonPolygon(a, b ConvexPolygon) bool {
	_, separated := SeparatingAxis(a, b)
	return !separated
}

// SeparatingAxis returns the first unit edge normal of a or b that separates
// the two polygons, and false when none exists.
func SeparatingAxis(a, b ConvexPolygon) (geom.Vec2, bool) {
	for _, src := range [2]ConvexPolygon{a, b} {
		for i := range src.vertices {
			if axis, ok := separatesOn(src, i, a, b); ok {
				return axis, true
			}
		}
	}
	return geom.Vec2{}, false
}

func separatesOn(src ConvexPolygon, edge int, a, b ConvexPolygon) (geom.Vec2, bool) {
	s, e := src.Edge(edge)
	axis := e.Sub(s).Perp().Normalize()
	minA, maxA := project(a.vertices, axis)
	minB, maxB := project(b.vertices, axis)
	if geom.IsNegative(maxA-minB) || geom.IsNegative(maxB-minA) {
		return axis, true
	}
	return geom.Vec2{}, false
}

func project(vs []geom.Point, axis geom.Vec2) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

func sign(v float64) int {
	switch {
	case geom.IsPositive(v):
		return 1
	case geom.IsNegative(v):
		return -1
	default:
		return 0
	}
}

func segmentsIntersect(a, b, c, d geom.Point) bool {
	ab := b.Sub(a)
	cd := d.Sub(c)
	o1 := sign(ab.Cross(c.Sub(a)))
	o2 := sign(ab.Cross(d.Sub(a)))
	o3 := sign(cd.Cross(a.Sub(c)))
	o4 := sign(cd.Cross(b.Sub(c)))

	if o1 == 0 && o2 == 0 {
		// Collinear: overlap of the projections onto ab.
		lenSq := ab.LenSq()
		t0 := c.Sub(a).Dot(ab) / lenSq
		t1 := d.Sub(a).Dot(ab) / lenSq
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		return !geom.IsPositive(lo-1) && !geom.IsNegative(hi)
	}
	return o1*o2 <= 0 && o3*o4 <= 0
}

func pointSegmentDistSq(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	t := p.Sub(a).Dot(ab) / ab.LenSq()
	t = math.Max(0, math.Min(1, t))
	return p.DistSq(a.Add(ab.Scale(t)))
}
