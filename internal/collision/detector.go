package collision

import "fmt"

// Observer is told about every primitive test a Detector runs. It exists for
// diagnostics recording and must not retain the primitives past the call
// unless it copies them.
type Observer interface {
	OnCheck(a, b Primitive, hit bool)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a, b Primitive, hit bool)

func (f ObserverFunc) OnCheck(a, b Primitive, hit bool) { f(a, b, hit) }

type pairFunc func(a, b Primitive) bool

// pairTable is indexed by [a.Kind()][b.Kind()]; every cell must be filled.
var pairTable = [kindCount][kindCount]pairFunc{
	KindCircle: {
		KindCircle:  func(a, b Primitive) bool { return CircleCircle(a.(Circle), b.(Circle)) },
		KindLine:    func(a, b Primitive) bool { return CircleLine(a.(Circle), b.(LineSegment)) },
		KindPolygon: func(a, b Primitive) bool { return CirclePolygon(a.(Circle), b.(ConvexPolygon)) },
	},
	KindLine: {
		KindCircle:  func(a, b Primitive) bool { return CircleLine(b.(Circle), a.(LineSegment)) },
		KindLine:    func(a, b Primitive) bool { return LineLine(a.(LineSegment), b.(LineSegment)) },
		KindPolygon: func(a, b Primitive) bool { return LinePolygon(a.(LineSegment), b.(ConvexPolygon)) },
	},
	KindPolygon: {
		KindCircle:  func(a, b Primitive) bool { return CirclePolygon(b.(Circle), a.(ConvexPolygon)) },
		KindLine:    func(a, b Primitive) bool { return LinePolygon(b.(LineSegment), a.(ConvexPolygon)) },
		KindPolygon: func(a, b Primitive) bool { return PolygonPolygon(a.(ConvexPolygon), b.(ConvexPolygon)) },
	},
}

// Detector runs collision tests and reports each one to its Observer. The
// zero value is ready to use and observes nothing.
type Detector struct {
	observer Observer
}

// NewDetector returns a detector reporting to obs, which may be nil.
func NewDetector(obs Observer) *Detector {
	return &Detector{observer: obs}
}

// Check tests two primitives. Nil, zero-value or unknown shapes are errors.
func (d *Detector) Check(a, b Primitive) (bool, error) {
	if a == nil || b == nil {
		return false, ErrNilShape
	}
	if !a.valid() || !b.valid() {
		return false, fmt.Errorf("%w: %s vs %s", ErrZeroShape, a.Kind(), b.Kind())
	}
	ka, kb := a.Kind(), b.Kind()
	if ka >= kindCount || kb >= kindCount || pairTable[ka][kb] == nil {
		return false, fmt.Errorf("%w: %s vs %s", ErrUnsupportedPair, ka, kb)
	}
	hit := pairTable[ka][kb](a, b)
	if d != nil && d.observer != nil {
		d.observer.OnCheck(a, b, hit)
	}
	return hit, nil
}

// Collide is Check for callers that only ever pass constructed shapes. Any
// error is a programming mistake and panics.
func (d *Detector) Collide(a, b Primitive) bool {
	hit, err := d.Check(a, b)
	if err != nil {
		panic(err)
	}
	return hit
}

// CollidePrimitive tests a bare primitive against an element, using the
// element's rough primitive as an early out.
func (d *Detector) CollidePrimitive(p Primitive, e Element) bool {
	if e == nil {
		panic(ErrNilShape)
	}
	if rough := e.Rough(); rough != nil && !d.Collide(p, rough) {
		return false
	}
	return d.anyHit(p, e.Primitives())
}

// CollideElements reports whether any primitive of a touches any primitive
// of b. Rough primitives are tested first and a miss there ends the test.
func (d *Detector) CollideElements(a, b Element) bool {
	if a == nil || b == nil {
		panic(ErrNilShape)
	}
	ra, rb := a.Rough(), b.Rough()
	switch {
	case ra != nil && rb != nil:
		if !d.Collide(ra, rb) {
			return false
		}
	case ra != nil:
		if !d.anyHit(ra, b.Primitives()) {
			return false
		}
	case rb != nil:
		if !d.anyHit(rb, a.Primitives()) {
			return false
		}
	}
	for _, pa := range a.Primitives() {
		if d.anyHit(pa, b.Primitives()) {
			return true
		}
	}
	return false
}

func (d *Detector) anyHit(p Primitive, others []Primitive) bool {
	for _, o := range others {
		if d.Collide(p, o) {
			return true
		}
	}
	return false
}
