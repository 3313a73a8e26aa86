package collision

// Element is a composite collidable built from primitives. Rough returns a
// cheap bounding primitive, or nil when the element has none.
type Element interface {
	Primitives() []Primitive
	Rough() Primitive
}

// Compound is the stock Element implementation.
type Compound struct {
	rough Primitive
	parts []Primitive
}

// NewCompound builds an element from parts; rough may be nil.
func NewCompound(rough Primitive, parts ...Primitive) Compound {
	ps := make([]Primitive, len(parts))
	copy(ps, parts)
	return Compound{rough: rough, parts: ps}
}

func (c Compound) Primitives() []Primitive { return c.parts }
func (c Compound) Rough() Primitive        { return c.rough }
