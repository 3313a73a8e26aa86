package game

import (
	"math"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// VisionCone is the sight envelope of a chicken: a sector of FOV degrees
// centred on the beak, out to MaxRange world units.
type VisionCone struct {
	FOV      float64 // degrees, total arc width
	MaxRange float64
}

// InCone returns true if target is within the cone of an observer at origin
// looking along heading. The observer's own position is never in its cone.
func (v VisionCone) InCone(origin geom.Point, heading geom.Angle, target geom.Point) bool {
	d := target.Sub(origin)
	distSq := d.LenSq()
	if distSq > v.MaxRange*v.MaxRange || geom.IsZero(distSq) {
		return false
	}
	diff := math.Abs(geom.AngleOf(d).Sub(heading).Degrees())
	return diff <= v.FOV/2+geom.Epsilon
}

// CanSee reports whether the chicken at pos with the given beak sees target.
func CanSee(data GameEngineData, pos geom.Point, beak geom.Angle, target geom.Point) bool {
	return data.Vision().InCone(pos, beak, target)
}

// ChickenView is what one chicken knows about another.
type ChickenView struct {
	ID       int
	Team     Team
	Position geom.Point
	Beak     geom.Angle
	Teammate bool
}

// ShotView is what a chicken knows about a shot in flight.
type ShotView struct {
	ID        int
	OwnerTeam Team
	Position  geom.Point
	Angle     geom.Angle
}

// ViewInfo is the per-chicken filtered view of the world at the start of a
// tick. Teammates are always present; enemies and shots only when seen.
type ViewInfo struct {
	Tick     int
	Width    float64
	Height   float64
	Chickens []ChickenView
	Shots    []ShotView
}

// Enemies returns the visible opposing chickens.
func (v ViewInfo) Enemies() []ChickenView {
	var out []ChickenView
	for _, c := range v.Chickens {
		if !c.Teammate {
			out = append(out, c)
		}
	}
	return out
}

// Teammates returns the living teammates, excluding the observer.
func (v ViewInfo) Teammates() []ChickenView {
	var out []ChickenView
	for _, c := range v.Chickens {
		if c.Teammate {
			out = append(out, c)
		}
	}
	return out
}

// Nearest returns the visible entry closest to p.
func Nearest(p geom.Point, cs []ChickenView) (ChickenView, bool) {
	best, bestDist, found := ChickenView{}, 0.0, false
	for _, c := range cs {
		d := p.DistSq(c.Position)
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

// frame is the frozen pre-tick world every view is built from.
type frame struct {
	tick     int
	chickens []chickenFrame
	shots    []ShotView
}

type chickenFrame struct {
	id       int
	team     Team
	position geom.Point
	beak     geom.Angle
	self     Self
}

func (e *Engine) captureFrame(tick int) frame {
	f := frame{tick: tick}
	for _, c := range e.chickens {
		if !c.alive {
			continue
		}
		s := c.self(tick)
		s.Data = e.data
		f.chickens = append(f.chickens, chickenFrame{
			id:       c.id,
			team:     c.team,
			position: c.position,
			beak:     c.beak,
			self:     s,
		})
	}
	for _, s := range e.shots {
		f.shots = append(f.shots, ShotView{
			ID:        s.id,
			OwnerTeam: s.ownerTeam,
			Position:  s.position,
			Angle:     s.angle,
		})
	}
	return f
}

// viewFor filters the frame down to what observer may know.
func (f frame) viewFor(data GameEngineData, observer chickenFrame) ViewInfo {
	cone := data.Vision()
	view := ViewInfo{Tick: f.tick, Width: data.RealWidth(), Height: data.RealHeight()}
	for _, c := range f.chickens {
		if c.id == observer.id {
			continue
		}
		mate := c.team == observer.team
		if !mate && !cone.InCone(observer.position, observer.beak, c.position) {
			continue
		}
		view.Chickens = append(view.Chickens, ChickenView{
			ID:       c.id,
			Team:     c.team,
			Position: c.position,
			Beak:     c.beak,
			Teammate: mate,
		})
	}
	for _, s := range f.shots {
		if cone.InCone(observer.position, observer.beak, s.Position) {
			view.Shots = append(view.Shots, s)
		}
	}
	return view
}
