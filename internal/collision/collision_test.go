package collision

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

func circle(x, y, r float64) Circle { return MustCircle(geom.V(x, y), r) }

func line(x1, y1, x2, y2 float64) LineSegment {
	return MustLineSegment(geom.V(x1, y1), geom.V(x2, y2))
}

func square(cx, cy, half float64) ConvexPolygon {
	return MustConvexPolygon(
		geom.V(cx-half, cy-half), geom.V(cx+half, cy-half),
		geom.V(cx+half, cy+half), geom.V(cx-half, cy+half),
	)
}

func TestCircleCircle_Scenarios(t *testing.T) {
	a := circle(0, 0, 1)
	if !CircleCircle(a, circle(1.5, 0, 1)) {
		t.Fatal("distance 1.5 < radius sum 2: expected collision")
	}
	if CircleCircle(a, circle(3, 0, 1)) {
		t.Fatal("distance 3 > radius sum 2: expected no collision")
	}
	if !CircleCircle(a, circle(2, 0, 1)) {
		t.Fatal("tangent circles should count as touching")
	}
}

func TestCircleCircle_SymmetricAndReflexive(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test data
	for i := 0; i < 500; i++ {
		a := circle(rng.Float64()*20-10, rng.Float64()*20-10, 0.1+rng.Float64()*3)
		b := circle(rng.Float64()*20-10, rng.Float64()*20-10, 0.1+rng.Float64()*3)
		if CircleCircle(a, b) != CircleCircle(b, a) {
			t.Fatalf("asymmetric result for %v and %v", a, b)
		}
		if !CircleCircle(a, a) {
			t.Fatalf("circle %v should collide with itself", a)
		}
	}
}

func TestLineLine_Scenarios(t *testing.T) {
	base := line(0, 0, 10, 0)
	if !LineLine(base, line(5, -5, 5, 5)) {
		t.Fatal("segments crossing at (5,0) should collide")
	}
	if LineLine(base, line(5, 1, 5, 5)) {
		t.Fatal("segment above the base should not collide")
	}
	if !LineLine(base, line(10, 0, 12, 3)) {
		t.Fatal("segments sharing an endpoint should collide")
	}
}

func TestLineLine_Collinear(t *testing.T) {
	base := line(0, 0, 10, 0)
	if !LineLine(base, line(8, 0, 15, 0)) {
		t.Fatal("overlapping collinear segments should collide")
	}
	if LineLine(base, line(11, 0, 15, 0)) {
		t.Fatal("disjoint collinear segments should not collide")
	}
	if LineLine(line(11, 0, 15, 0), base) {
		t.Fatal("disjoint collinear segments should not collide (swapped)")
	}
}

func TestCircleLine_ClipsToSegment(t *testing.T) {
	seg := line(0, 0, 10, 0)
	if !CircleLine(circle(5, 0.5, 1), seg) {
		t.Fatal("circle over the middle of the segment should collide")
	}
	if CircleLine(circle(5, 2, 1), seg) {
		t.Fatal("circle 2 above the segment with radius 1 should not collide")
	}
	// Near the infinite line but beyond the end.
	if CircleLine(circle(12, 0.2, 1), seg) {
		t.Fatal("circle past the segment end should not collide")
	}
	if !CircleLine(circle(10.5, 0.2, 1), seg) {
		t.Fatal("circle overlapping the endpoint should collide")
	}
}

func TestNewConvexPolygon_OrientsCCW(t *testing.T) {
	cw := []geom.Point{geom.V(0, 0), geom.V(0, 1), geom.V(1, 1), geom.V(1, 0)}
	p, err := NewConvexPolygon(cw...)
	if err != nil {
		t.Fatalf("clockwise square should be accepted: %v", err)
	}
	if !p.IsConvex() {
		t.Fatal("adjusted polygon should report convex")
	}
	if a := signedArea(p.Vertices()); a <= 0 {
		t.Fatalf("expected CCW vertices (positive area), got %v", a)
	}
}

func TestNewConvexPolygon_Rejections(t *testing.T) {
	cases := []struct {
		name string
		vs   []geom.Point
		want error
	}{
		{"two vertices", []geom.Point{geom.V(0, 0), geom.V(1, 0)}, ErrTooFewVertices},
		{"collinear", []geom.Point{geom.V(0, 0), geom.V(1, 0), geom.V(2, 0)}, ErrDegeneratePolygon},
		{"repeated", []geom.Point{geom.V(0, 0), geom.V(0, 0), geom.V(1, 1)}, ErrDegeneratePolygon},
		{"concave", []geom.Point{geom.V(0, 0), geom.V(4, 0), geom.V(2, 1), geom.V(4, 4), geom.V(0, 4)}, ErrNotConvex},
		{"pentagram", []geom.Point{
			geom.V(0, 10), geom.V(5.9, -8.1), geom.V(-9.5, 3.1), geom.V(9.5, 3.1), geom.V(-5.9, -8.1),
		}, ErrNotConvex},
	}
	for _, tc := range cases {
		if _, err := NewConvexPolygon(tc.vs...); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestConstructors_Reject(t *testing.T) {
	if _, err := NewCircle(geom.V(0, 0), 0); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("zero radius: expected ErrInvalidRadius, got %v", err)
	}
	if _, err := NewCircle(geom.V(0, 0), -2); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("negative radius: expected ErrInvalidRadius, got %v", err)
	}
	if _, err := NewLineSegment(geom.V(1, 1), geom.V(1, 1)); !errors.Is(err, ErrDegenerateLine) {
		t.Fatalf("degenerate line: expected ErrDegenerateLine, got %v", err)
	}
}

func TestPolygonPolygon_SAT(t *testing.T) {
	a := square(0, 0, 1)
	b := square(1.5, 0.5, 1)
	if !PolygonPolygon(a, b) {
		t.Fatal("overlapping squares should collide")
	}
	if _, ok := SeparatingAxis(a, b); ok {
		t.Fatal("overlapping squares should have no separating axis")
	}

	tri := MustConvexPolygon(geom.V(3, -1), geom.V(5, -1), geom.V(3, 1))
	if PolygonPolygon(a, tri) {
		t.Fatal("triangle to the right of the square should not collide")
	}
	axis, ok := SeparatingAxis(a, tri)
	if !ok {
		t.Fatal("expected a separating axis")
	}
	if geom.IsZero(axis.LenSq()) {
		t.Fatal("separating axis should be non-zero")
	}
	if PolygonPolygon(tri, a) != PolygonPolygon(a, tri) {
		t.Fatal("SAT result should be symmetric")
	}
}

func TestPolygonPolygon_DiagonalGap(t *testing.T) {
	// Bounding boxes overlap but a diagonal edge separates the shapes.
	a := MustConvexPolygon(geom.V(0, 0), geom.V(2, 0), geom.V(0, 2))
	b := MustConvexPolygon(geom.V(2, 2), geom.V(1.2, 2), geom.V(2, 1.2))
	if PolygonPolygon(a, b) {
		t.Fatal("triangles separated by the hypotenuse should not collide")
	}
}

func TestPolygonPolygon_GapOnShortEdges(t *testing.T) {
	// Every edge is 0.01 long; the gap is above Epsilon in world units.
	a := square(0.005, 0.005, 0.005)
	b := square(0.015+1e-8, 0.005, 0.005)
	axis, separated := SeparatingAxis(a, b)
	if !separated || PolygonPolygon(a, b) {
		t.Fatal("squares 1e-8 apart should not collide")
	}
	if l := axis.Len(); math.Abs(l-1) > 1e-12 {
		t.Fatalf("separating axis should be unit length, got %v", l)
	}
	if !PolygonPolygon(a, square(0.015, 0.005, 0.005)) {
		t.Fatal("squares sharing an edge should collide")
	}
}

func TestConvexPolygon_IsConvexUsesTolerance(t *testing.T) {
	sliver := ConvexPolygon{vertices: []geom.Point{geom.V(0, 0), geom.V(1e-6, 0), geom.V(0, 1e-6)}}
	if sliver.IsConvex() {
		t.Fatal("a polygon with area below Epsilon should not report convex")
	}
	if (ConvexPolygon{}).IsConvex() {
		t.Fatal("zero polygon should not report convex")
	}
}

func TestCirclePolygon(t *testing.T) {
	sq := square(0, 0, 1)
	if !CirclePolygon(circle(0, 0, 0.1), sq) {
		t.Fatal("circle inside square should collide")
	}
	if !CirclePolygon(circle(1.5, 0, 0.6), sq) {
		t.Fatal("circle overlapping an edge should collide")
	}
	if CirclePolygon(circle(1.8, 1.8, 1), sq) {
		t.Fatal("circle near the corner but outside should not collide")
	}
}

func TestLinePolygon(t *testing.T) {
	sq := square(0, 0, 1)
	if !LinePolygon(line(-5, 0, 5, 0), sq) {
		t.Fatal("segment through the square should collide")
	}
	if !LinePolygon(line(0, 0, 0.5, 0.5), sq) {
		t.Fatal("segment inside the square should collide")
	}
	if LinePolygon(line(-5, 3, 5, 3), sq) {
		t.Fatal("segment above the square should not collide")
	}
}

func TestDetector_EveryPairIsDispatched(t *testing.T) {
	samples := map[Kind]Primitive{
		KindCircle:  circle(0, 0, 1),
		KindLine:    line(-1, 0, 1, 0),
		KindPolygon: square(0, 0, 1),
	}
	d := NewDetector(nil)
	for _, ka := range Kinds() {
		for _, kb := range Kinds() {
			if pairTable[ka][kb] == nil {
				t.Fatalf("no algorithm for %s vs %s", ka, kb)
			}
			hit, err := d.Check(samples[ka], samples[kb])
			if err != nil {
				t.Fatalf("%s vs %s: %v", ka, kb, err)
			}
			if !hit {
				t.Fatalf("%s vs %s: overlapping samples should collide", ka, kb)
			}
		}
	}
}

func TestDetector_SymmetricAcrossKinds(t *testing.T) {
	shapes := []Primitive{
		circle(0, 0, 1), circle(4, 0, 0.5), line(-2, 2, 2, 2), line(0.5, -3, 0.5, 3),
		square(3, 1, 1), MustConvexPolygon(geom.V(-3, -3), geom.V(-1, -3), geom.V(-2, -1)),
	}
	d := NewDetector(nil)
	for _, a := range shapes {
		for _, b := range shapes {
			if d.Collide(a, b) != d.Collide(b, a) {
				t.Fatalf("asymmetric result for %v and %v", a, b)
			}
		}
	}
}

func TestDetector_FailsFast(t *testing.T) {
	d := NewDetector(nil)
	if _, err := d.Check(nil, circle(0, 0, 1)); !errors.Is(err, ErrNilShape) {
		t.Fatalf("expected ErrNilShape, got %v", err)
	}
	if _, err := d.Check(Circle{}, circle(0, 0, 1)); !errors.Is(err, ErrZeroShape) {
		t.Fatalf("expected ErrZeroShape, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Collide with a nil shape should panic")
		}
	}()
	d.Collide(circle(0, 0, 1), nil)
}

func TestDetector_RoughEarlyOut(t *testing.T) {
	checks := 0
	d := NewDetector(ObserverFunc(func(_, _ Primitive, _ bool) { checks++ }))

	far := NewCompound(circle(100, 0, 2), circle(100, 0, 1), square(101, 0, 0.5))
	near := NewCompound(circle(0, 0, 2), circle(0, 0, 1), square(1, 0, 0.5))
	if d.CollideElements(near, far) {
		t.Fatal("distant elements should not collide")
	}
	if checks != 1 {
		t.Fatalf("rough miss should stop after one check, got %d", checks)
	}

	checks = 0
	touching := NewCompound(circle(3, 0, 2), circle(3, 0, 1), square(2, 0, 0.5))
	if !d.CollideElements(near, touching) {
		t.Fatal("beak squares overlap: expected collision")
	}
	if checks < 2 {
		t.Fatalf("rough hit should fall through to exact tests, got %d checks", checks)
	}
}

func TestDetector_RoughHitExactMiss(t *testing.T) {
	d := NewDetector(nil)
	a := NewCompound(circle(0, 0, 3), circle(0, 0, 1))
	b := NewCompound(circle(4, 0, 3), circle(4, 0, 1))
	if d.CollideElements(a, b) {
		t.Fatal("rough circles overlap but bodies do not: expected no collision")
	}
}

func TestDetector_PrimitiveVsElement(t *testing.T) {
	d := NewDetector(nil)
	e := NewCompound(nil, circle(0, 0, 1), square(2, 0, 0.5))
	if !d.CollidePrimitive(circle(2.6, 0, 0.2), e) {
		t.Fatal("shot touching the square part should collide")
	}
	if d.CollidePrimitive(line(-5, 5, 5, 5), e) {
		t.Fatal("distant line should not collide")
	}
}
