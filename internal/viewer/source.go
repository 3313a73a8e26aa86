// Package viewer draws an arena match in an ebiten window, either live from
// an Engine or replayed from recorded snapshots.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Garsondee/Chicken-Arena/internal/game"
)

// ErrNoFrames is returned when a replay has nothing to show.
var ErrNoFrames = errors.New("viewer: replay has no frames")

// Source produces successive snapshots. Next reports false once the match has
// nothing further to show.
type Source interface {
	First() game.Snapshot
	Next(ctx context.Context) (game.Snapshot, bool, error)
	Summary(current game.Snapshot) string
}

// LiveSource steps an Engine on demand.
type LiveSource struct {
	engine   *game.Engine
	maxTicks int
}

// NewLiveSource wraps e. maxTicks <= 0 means no tick limit.
func NewLiveSource(e *game.Engine, maxTicks int) *LiveSource {
	return &LiveSource{engine: e, maxTicks: maxTicks}
}

func (s *LiveSource) First() game.Snapshot { return s.engine.Snapshot() }

func (s *LiveSource) Next(ctx context.Context) (game.Snapshot, bool, error) {
	cur := s.engine.Snapshot()
	if finished(cur) || (s.maxTicks > 0 && cur.Tick >= s.maxTicks) {
		return cur, false, nil
	}
	snap, err := s.engine.Step(ctx)
	if err != nil {
		return cur, false, err
	}
	return snap, true, nil
}

func (s *LiveSource) Summary(current game.Snapshot) string {
	out := s.engine.Outcome()
	return s.engine.Log().Summary(current, s.engine.Roster()) +
		fmt.Sprintf("Outcome: %s (%s)\n", out.Outcome, out.Description)
}

// ReplaySource walks a recorded match.
type ReplaySource struct {
	matchID string
	frames  []game.Snapshot
	pos     int
}

// NewReplaySource replays frames, which must be in tick order.
func NewReplaySource(matchID string, frames []game.Snapshot) (*ReplaySource, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return &ReplaySource{matchID: matchID, frames: frames}, nil
}

func (s *ReplaySource) First() game.Snapshot { return s.frames[0] }

func (s *ReplaySource) Next(ctx context.Context) (game.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return s.frames[s.pos], false, err
	}
	if s.pos+1 >= len(s.frames) {
		return s.frames[s.pos], false, nil
	}
	s.pos++
	return s.frames[s.pos], true, nil
}

// Rewind returns to the first frame.
func (s *ReplaySource) Rewind() game.Snapshot {
	s.pos = 0
	return s.frames[0]
}

// Len returns the number of recorded frames.
func (s *ReplaySource) Len() int { return len(s.frames) }

func (s *ReplaySource) Summary(current game.Snapshot) string {
	var fired, hits, deaths int
	for _, f := range s.frames[:s.pos+1] {
		for _, e := range f.Events {
			switch e.Kind {
			case game.EventShotFired:
				fired++
			case game.EventHit:
				hits++
			case game.EventDeath:
				deaths++
			}
		}
	}
	last := s.frames[len(s.frames)-1].Tick
	return fmt.Sprintf("Replay %s  tick %d/%d\nAlive: red=%d  blue=%d  shots_in_flight=%d\nEvents: fired=%d hits=%d deaths=%d\n",
		s.matchID, current.Tick, last,
		current.Alive(game.TeamRed), current.Alive(game.TeamBlue), len(current.Shots),
		fired, hits, deaths)
}

func finished(s game.Snapshot) bool {
	return s.Tick > 0 && (s.Alive(game.TeamRed) == 0 || s.Alive(game.TeamBlue) == 0)
}
