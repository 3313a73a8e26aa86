package game

import (
	"fmt"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// Team distinguishes the two sides.
type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Teams lists both sides in roster order.
func Teams() [2]Team { return [2]Team{TeamRed, TeamBlue} }

// ChickenUnit is one autonomous chicken. Only the engine mutates it.
type ChickenUnit struct {
	id    int
	team  Team
	label string

	position geom.Point
	beak     geom.Angle

	hitPoints int
	alive     bool
	diedAt    int

	logic    Logic
	cooldown int // ticks until the next shot is allowed

	shotsFired int
	hitsLanded int
	hitsTaken  int
}

func newChicken(id int, team Team, index int, p Placement, hp int, logic Logic) *ChickenUnit {
	prefix := "R"
	if team == TeamBlue {
		prefix = "B"
	}
	return &ChickenUnit{
		id:        id,
		team:      team,
		label:     fmt.Sprintf("%s%d", prefix, index),
		position:  p.Position,
		beak:      p.Beak,
		hitPoints: hp,
		alive:     true,
		diedAt:    -1,
		logic:     logic,
	}
}

func (c *ChickenUnit) ID() int              { return c.id }
func (c *ChickenUnit) Team() Team           { return c.team }
func (c *ChickenUnit) Label() string        { return c.label }
func (c *ChickenUnit) Position() geom.Point { return c.position }
func (c *ChickenUnit) Beak() geom.Angle     { return c.beak }
func (c *ChickenUnit) HitPoints() int       { return c.hitPoints }
func (c *ChickenUnit) Alive() bool          { return c.alive }

// takeHit applies damage and reports whether hit points are exhausted.
func (c *ChickenUnit) takeHit(damage int) bool {
	c.hitPoints -= damage
	if c.hitPoints < 0 {
		c.hitPoints = 0
	}
	c.hitsTaken++
	return c.hitPoints == 0
}

func (c *ChickenUnit) self(tick int) Self {
	return Self{
		ID:        c.id,
		Team:      c.team,
		Position:  c.position,
		Beak:      c.beak,
		HitPoints: c.hitPoints,
		Cooldown:  c.cooldown,
		Tick:      tick,
	}
}

func (c *ChickenUnit) record() ChickenRecord {
	return ChickenRecord{
		ID:        c.id,
		Label:     c.label,
		Team:      c.team,
		Position:  c.position,
		Beak:      c.beak,
		HitPoints: c.hitPoints,
	}
}

func (c *ChickenUnit) stats() UnitStats {
	return UnitStats{
		ID:         c.id,
		Label:      c.label,
		Team:       c.team,
		Alive:      c.alive,
		DiedAt:     c.diedAt,
		HitPoints:  c.hitPoints,
		ShotsFired: c.shotsFired,
		HitsLanded: c.hitsLanded,
		HitsTaken:  c.hitsTaken,
	}
}

// UnitStats is the historical record of one chicken, dead or alive.
type UnitStats struct {
	ID         int
	Label      string
	Team       Team
	Alive      bool
	DiedAt     int // tick of death, -1 while alive
	HitPoints  int
	ShotsFired int
	HitsLanded int
	HitsTaken  int
}
