package game

import (
	"fmt"

	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// EventKind classifies what happened during a tick.
type EventKind int

const (
	EventShotFired EventKind = iota
	EventHit
	EventDeath
	EventMoveBlocked
	EventAIError
	EventAITimeout
	EventAIPanic
)

var eventNames = [...]string{"shot_fired", "hit", "death", "move_blocked", "ai_error", "ai_timeout", "ai_panic"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Category groups event kinds the way SimLog entries are grouped.
func (k EventKind) Category() string {
	switch k {
	case EventShotFired, EventHit, EventDeath:
		return "combat"
	case EventMoveBlocked:
		return "move"
	default:
		return "ai"
	}
}

// Event is one thing that happened during a tick. For hits ChickenID is the
// victim and OtherID the shooter; OtherID is -1 when no second chicken is
// involved and ShotID is 0 when no shot is.
type Event struct {
	Tick      int
	Kind      EventKind
	ChickenID int
	OtherID   int
	ShotID    int
	Detail    string
}

func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-12s chicken=%d other=%d shot=%d %s",
		e.Tick, e.Kind, e.ChickenID, e.OtherID, e.ShotID, e.Detail)
}

func (e Event) describe(chickens []*ChickenUnit) string {
	switch e.Kind {
	case EventShotFired:
		return fmt.Sprintf("shot #%d", e.ShotID)
	case EventHit:
		return fmt.Sprintf("hit by %s (shot #%d) %s", chickens[e.OtherID].label, e.ShotID, e.Detail)
	case EventDeath:
		return "eliminated"
	case EventMoveBlocked:
		return "pose reverted"
	default:
		return e.Detail
	}
}

// ChickenRecord is an immutable copy of a living chicken at the end of a tick.
type ChickenRecord struct {
	ID        int
	Label     string
	Team      Team
	Position  geom.Point
	Beak      geom.Angle
	HitPoints int
}

// ShotRecord is an immutable copy of a shot at the end of a tick.
type ShotRecord struct {
	ID        int
	OwnerID   int
	OwnerTeam Team
	Position  geom.Point
	Angle     geom.Angle
}

// Snapshot is the world state after a tick. It shares no memory with the
// engine, so renderers may keep it.
type Snapshot struct {
	Tick     int
	Width    float64
	Height   float64
	Chickens []ChickenRecord
	Shots    []ShotRecord
	Events   []Event
}

// Alive counts the living chickens of team.
func (s Snapshot) Alive(team Team) int {
	n := 0
	for _, c := range s.Chickens {
		if c.Team == team {
			n++
		}
	}
	return n
}

// Chicken finds a living chicken by id.
func (s Snapshot) Chicken(id int) (ChickenRecord, bool) {
	for _, c := range s.Chickens {
		if c.ID == id {
			return c, true
		}
	}
	return ChickenRecord{}, false
}

// EventsOf returns the events of one kind.
func (s Snapshot) EventsOf(kind EventKind) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (e *Engine) snapshot(events []Event) Snapshot {
	snap := Snapshot{
		Tick:   e.tick,
		Width:  e.data.RealWidth(),
		Height: e.data.RealHeight(),
		Events: append([]Event(nil), events...),
	}
	for _, c := range e.chickens {
		if c.alive {
			snap.Chickens = append(snap.Chickens, c.record())
		}
	}
	for _, s := range e.shots {
		snap.Shots = append(snap.Shots, s.record())
	}
	return snap
}
