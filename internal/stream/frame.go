// Package stream broadcasts engine snapshots to websocket clients as JSON
// frames and publishes the frame schema.
package stream

import (
	"reflect"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/Garsondee/Chicken-Arena/internal/game"
)

// ProtocolVersion is bumped whenever Frame changes shape.
const ProtocolVersion = 1

// Frame is the wire form of one snapshot.
type Frame struct {
	Ver        int            `json:"ver" jsonschema:"required"`
	Type       string         `json:"type" jsonschema:"required"`
	MatchID    string         `json:"matchId,omitempty"`
	Tick       int            `json:"tick" jsonschema:"required"`
	Width      float64        `json:"width" jsonschema:"required"`
	Height     float64        `json:"height" jsonschema:"required"`
	Chickens   []ChickenFrame `json:"chickens" jsonschema:"required"`
	Shots      []ShotFrame    `json:"shots" jsonschema:"required"`
	Events     []EventFrame   `json:"events,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
	ServerTime int64          `json:"serverTime"`
}

type ChickenFrame struct {
	ID        int     `json:"id" jsonschema:"required"`
	Label     string  `json:"label"`
	Team      string  `json:"team" jsonschema:"required"`
	X         float64 `json:"x" jsonschema:"required"`
	Y         float64 `json:"y" jsonschema:"required"`
	Beak      float64 `json:"beak" jsonschema:"required"`
	HitPoints int     `json:"hp" jsonschema:"required"`
}

type ShotFrame struct {
	ID        int     `json:"id" jsonschema:"required"`
	OwnerID   int     `json:"owner" jsonschema:"required"`
	OwnerTeam string  `json:"team"`
	X         float64 `json:"x" jsonschema:"required"`
	Y         float64 `json:"y" jsonschema:"required"`
	Angle     float64 `json:"angle" jsonschema:"required"`
}

type EventFrame struct {
	Kind      string `json:"kind" jsonschema:"required"`
	ChickenID int    `json:"chicken"`
	OtherID   int    `json:"other"`
	ShotID    int    `json:"shot,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// NewFrame converts a snapshot. outcome is left empty until the match is
// decided.
func NewFrame(matchID string, s game.Snapshot) Frame {
	f := Frame{
		Ver:        ProtocolVersion,
		Type:       "state",
		MatchID:    matchID,
		Tick:       s.Tick,
		Width:      s.Width,
		Height:     s.Height,
		Chickens:   make([]ChickenFrame, 0, len(s.Chickens)),
		Shots:      make([]ShotFrame, 0, len(s.Shots)),
		ServerTime: time.Now().UnixMilli(),
	}
	for _, c := range s.Chickens {
		f.Chickens = append(f.Chickens, ChickenFrame{
			ID:        c.ID,
			Label:     c.Label,
			Team:      c.Team.String(),
			X:         c.Position.X,
			Y:         c.Position.Y,
			Beak:      c.Beak.Degrees(),
			HitPoints: c.HitPoints,
		})
	}
	for _, sh := range s.Shots {
		f.Shots = append(f.Shots, ShotFrame{
			ID:        sh.ID,
			OwnerID:   sh.OwnerID,
			OwnerTeam: sh.OwnerTeam.String(),
			X:         sh.Position.X,
			Y:         sh.Position.Y,
			Angle:     sh.Angle.Degrees(),
		})
	}
	for _, e := range s.Events {
		f.Events = append(f.Events, EventFrame{
			Kind:      e.Kind.String(),
			ChickenID: e.ChickenID,
			OtherID:   e.OtherID,
			ShotID:    e.ShotID,
			Detail:    e.Detail,
		})
	}
	if s.Alive(game.TeamRed) == 0 || s.Alive(game.TeamBlue) == 0 {
		switch {
		case s.Alive(game.TeamRed) > 0:
			f.Outcome = game.OutcomeRedVictory.String()
		case s.Alive(game.TeamBlue) > 0:
			f.Outcome = game.OutcomeBlueVictory.String()
		default:
			f.Outcome = game.OutcomeDraw.String()
		}
	}
	return f
}

// Schema describes Frame for clients.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(Frame{}))
	schema.Title = "Chicken Arena Frame"
	schema.Description = "One simulation tick as broadcast on /ws."
	return schema
}
