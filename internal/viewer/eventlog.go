package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Chicken-Arena/internal/game"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
)

// LogEntry is a single line in the event log.
type LogEntry struct {
	Tick    int
	Label   string // e.g. "R1", "B3"
	Team    game.Team
	Kind    game.EventKind
	Message string
}

// EventLog is a ring buffer of match events rendered beside the board.
type EventLog struct {
	entries []LogEntry
	head    int
	count   int
}

func NewEventLog() *EventLog {
	return &EventLog{entries: make([]LogEntry, logMaxEntries)}
}

// Add appends an entry, overwriting the oldest once full.
func (l *EventLog) Add(e LogEntry) {
	l.entries[l.head] = e
	l.head = (l.head + 1) % logMaxEntries
	if l.count < logMaxEntries {
		l.count++
	}
}

// Len returns the number of held entries.
func (l *EventLog) Len() int { return l.count }

// Reset empties the log.
func (l *EventLog) Reset() {
	clear(l.entries)
	l.head, l.count = 0, 0
}

// Recent returns entries oldest first.
func (l *EventLog) Recent() []LogEntry {
	out := make([]LogEntry, l.count)
	for i := range l.count {
		out[i] = l.entries[(l.head-l.count+i+logMaxEntries)%logMaxEntries]
	}
	return out
}

// Draw renders the panel at panelX, newest entries at the bottom.
func (l *EventLog) Draw(screen *ebiten.Image, panelX, panelH int) {
	px := float32(panelX)
	vector.FillRect(screen, px, 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, px, 0, px, float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	vector.FillRect(screen, px, 0, logPanelWidth, 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENT LOG", panelX+8, 2)
	vector.StrokeLine(screen, px, 16, px+logPanelWidth, 16, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := l.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3

	y := 20
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, px+2, float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, px+5, float32(y+3), 3, 5, teamColor(e.Team), false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message), panelX+12, y)
		y += logLineHeight
	}
}

type unitLabel struct {
	label string
	team  game.Team
}

// entryFor turns an engine event into a log line. labels maps chicken ids
// seen in any earlier snapshot, so dead chickens still resolve.
func entryFor(e game.Event, labels map[int]unitLabel) LogEntry {
	who := labels[e.ChickenID]
	out := LogEntry{Tick: e.Tick, Label: who.label, Team: who.team, Kind: e.Kind}
	switch e.Kind {
	case game.EventShotFired:
		out.Message = fmt.Sprintf("fires shot #%d", e.ShotID)
	case game.EventHit:
		out.Message = fmt.Sprintf("hit by %s %s", labels[e.OtherID].label, e.Detail)
	case game.EventDeath:
		out.Message = "eliminated"
	case game.EventMoveBlocked:
		out.Message = "blocked"
	default:
		out.Message = fmt.Sprintf("%s %s", e.Kind, e.Detail)
	}
	return out
}
