package game

import (
	"github.com/Garsondee/Chicken-Arena/internal/collision"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// ChickenElement is the body circle plus the beak triangle, with a bounding
// circle reaching the beak tip as its rough primitive.
func ChickenElement(data GameEngineData, pos geom.Point, beak geom.Angle) collision.Compound {
	body := collision.MustCircle(pos, data.BodyRadius)
	return collision.NewCompound(
		collision.MustCircle(pos, data.BeakTipOffset),
		body,
		beakPolygon(data, pos, beak),
	)
}

// ShotElement is a single disk. It is already as cheap as a rough test, so it
// carries no rough primitive.
func ShotElement(data GameEngineData, pos geom.Point) collision.Compound {
	return collision.NewCompound(nil, collision.MustCircle(pos, data.ShotRadius))
}

// BeakTip is where shots spawn.
func BeakTip(data GameEngineData, pos geom.Point, beak geom.Angle) geom.Point {
	return pos.Add(beak.Direction().Scale(data.BeakTipOffset))
}

// BeakOutline returns the beak triangle vertices in world space.
func BeakOutline(data GameEngineData, pos geom.Point, beak geom.Angle) [3]geom.Point {
	fwd := beak.Direction()
	side := fwd.Perp().Scale(data.BeakHalfWidth)
	base := pos.Add(fwd.Scale(data.BeakBaseOffset))
	return [3]geom.Point{
		BeakTip(data, pos, beak),
		base.Add(side),
		base.Sub(side),
	}
}

func beakPolygon(data GameEngineData, pos geom.Point, beak geom.Angle) collision.ConvexPolygon {
	v := BeakOutline(data, pos, beak)
	return collision.MustConvexPolygon(v[0], v[1], v[2])
}
