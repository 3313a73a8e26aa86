// Package collision implements the discrete collision kernel: the primitive
// shapes, every pairwise test between them and a detector that dispatches
// over the closed set of shape kinds.
package collision

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

var (
	ErrInvalidRadius     = errors.New("collision: radius must be finite and positive")
	ErrDegenerateLine    = errors.New("collision: line endpoints must differ")
	ErrTooFewVertices    = errors.New("collision: polygon needs at least 3 vertices")
	ErrDegeneratePolygon = errors.New("collision: polygon has no area or repeated vertices")
	ErrNotConvex         = errors.New("collision: polygon is not convex")
	ErrNonFinite         = errors.New("collision: coordinates must be finite")
	ErrNilShape          = errors.New("collision: nil shape")
	ErrZeroShape         = errors.New("collision: shape was not built by its constructor")
	ErrUnsupportedPair   = errors.New("collision: unsupported shape pair")
)

// Kind enumerates the primitive shapes. The set is closed: Primitive has an
// unexported method so only the types in this package implement it.
type Kind uint8

const (
	KindCircle Kind = iota
	KindLine
	KindPolygon

	kindCount
)

// Kinds lists every primitive kind in dispatch order.
func Kinds() []Kind { return []Kind{KindCircle, KindLine, KindPolygon} }

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max geom.Point
}

// Overlaps reports whether the boxes touch or intersect.
func (r Rect) Overlaps(o Rect) bool {
	return !geom.IsNegative(r.Max.X-o.Min.X) && !geom.IsNegative(o.Max.X-r.Min.X) &&
		!geom.IsNegative(r.Max.Y-o.Min.Y) && !geom.IsNegative(o.Max.Y-r.Min.Y)
}

// Primitive is one of Circle, LineSegment or ConvexPolygon. Values are
// immutable once constructed.
type Primitive interface {
	Kind() Kind
	Bounds() Rect
	String() string

	primitive()
	valid() bool
}
