package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Garsondee/Chicken-Arena/internal/collision"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

var ErrPlacement = errors.New("game: invalid initial placement")

// Placement is the starting pose of one chicken.
type Placement struct {
	Position geom.Point
	Beak     geom.Angle
}

// Positioner chooses starting poses. It returns red placements then blue,
// each slice exactly as long as the requested count.
type Positioner func(data GameEngineData, red, blue int, rng *rand.Rand) (redPos, bluePos []Placement, err error)

// RandomCells puts every chicken at the centre of a distinct random cell with
// a random beak heading.
func RandomCells(data GameEngineData, red, blue int, rng *rand.Rand) ([]Placement, []Placement, error) {
	total := red + blue
	if total > data.Cells() {
		return nil, nil, fmt.Errorf("%w: %d chickens on %d cells", ErrUnitCount, total, data.Cells())
	}
	cells := rng.Perm(data.Cells())[:total]
	out := make([]Placement, total)
	for i, cell := range cells {
		out[i] = Placement{
			Position: data.CellCenter(cell%data.NominalWidth, cell/data.NominalWidth),
			Beak:     geom.Wrap(rng.Float64()*360 - 180),
		}
	}
	return out[:red], out[red:], nil
}

// FacingLines lines red up along the left column facing right and blue along
// the right column facing left, wrapping into further columns when a team
// outgrows one.
func FacingLines(data GameEngineData, red, blue int, _ *rand.Rand) ([]Placement, []Placement, error) {
	h := data.NominalHeight
	if (red+h-1)/h+(blue+h-1)/h > data.NominalWidth {
		return nil, nil, fmt.Errorf("%w: %d+%d chickens do not fit in facing lines", ErrUnitCount, red, blue)
	}
	line := func(n int, col func(int) int, beak geom.Angle) []Placement {
		out := make([]Placement, n)
		for i := range out {
			out[i] = Placement{Position: data.CellCenter(col(i/h), i%h), Beak: beak}
		}
		return out
	}
	return line(red, func(c int) int { return c }, geom.Wrap(0)),
		line(blue, func(c int) int { return data.NominalWidth - 1 - c }, geom.Wrap(180)),
		nil
}

// validatePlacements rejects out-of-bounds and mutually overlapping poses.
func validatePlacements(d *collision.Detector, data GameEngineData, ps []Placement) error {
	elems := make([]collision.Compound, len(ps))
	for i, p := range ps {
		if !p.Position.IsFinite() || !data.InBounds(p.Position) {
			return fmt.Errorf("%w: chicken %d at %v is off the board", ErrPlacement, i, p.Position)
		}
		if !p.Beak.IsFinite() {
			return fmt.Errorf("%w: chicken %d has a non-finite beak", ErrPlacement, i)
		}
		elems[i] = ChickenElement(data, p.Position, p.Beak)
		if touchesBoundary(d, data, elems[i]) {
			return fmt.Errorf("%w: chicken %d at %v touches the boundary", ErrPlacement, i, p.Position)
		}
		for j := 0; j < i; j++ {
			if d.CollideElements(elems[i], elems[j]) {
				return fmt.Errorf("%w: chickens %d and %d overlap", ErrPlacement, j, i)
			}
		}
	}
	return nil
}

func touchesBoundary(d *collision.Detector, data GameEngineData, e collision.Element) bool {
	for _, l := range data.BoundaryLines() {
		if d.CollidePrimitive(l, e) {
			return true
		}
	}
	return false
}
