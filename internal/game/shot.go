package game

import "github.com/Garsondee/Chicken-Arena/internal/geom"

// ShotUnit is a projectile in flight. The owner is referenced by id only, so a
// shot never keeps its chicken around.
type ShotUnit struct {
	id        int
	ownerID   int
	ownerTeam Team
	position  geom.Point
	angle     geom.Angle
	age       int
	bornAt    int
}

func (s *ShotUnit) ID() int              { return s.id }
func (s *ShotUnit) OwnerID() int         { return s.ownerID }
func (s *ShotUnit) Position() geom.Point { return s.position }
func (s *ShotUnit) Angle() geom.Angle    { return s.angle }
func (s *ShotUnit) Age() int             { return s.age }

// advance moves the shot one tick along its heading and ages it.
func (s *ShotUnit) advance(step float64) {
	s.position = s.position.Add(s.angle.Direction().Scale(step))
	s.age++
}

// expired reports whether the shot outlived its lifetime or left the board.
func (s *ShotUnit) expired(data GameEngineData) bool {
	return s.age > data.ShotLifetimeTicks || !data.InBounds(s.position)
}

func (s *ShotUnit) record() ShotRecord {
	return ShotRecord{
		ID:        s.id,
		OwnerID:   s.ownerID,
		OwnerTeam: s.ownerTeam,
		Position:  s.position,
		Angle:     s.angle,
	}
}
