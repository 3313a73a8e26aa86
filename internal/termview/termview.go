// Package termview renders arena snapshots into a tcell screen.
package termview

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

const eventLines = 6

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkOliveGreen)
	floorStyle  = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	shotStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	hitStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

// Beak arrows by octant, clockwise from east with y pointing down.
var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// Terminal draws one column pair and one row per board cell.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	data   game.GameEngineData
	cue    *Cue

	labels map[int]string
	recent []string
}

// New wraps an initialised screen. cue may be nil.
func New(screen tcell.Screen, data game.GameEngineData, cue *Cue) *Terminal {
	return &Terminal{screen: screen, data: data, cue: cue, labels: make(map[int]string)}
}

// Renderer adapts the terminal to the engine's renderer hook.
func (t *Terminal) Renderer() game.Renderer { return t.Render }

// Cell maps a board point to its screen column and row.
func (t *Terminal) Cell(x, y float64) (int, int) {
	col := 1 + int(math.Floor(x/t.data.CellSize*2))
	row := 1 + int(math.Floor(y/t.data.CellSize))
	return min(col, t.data.NominalWidth*2), min(row, t.data.NominalHeight)
}

// Glyph returns the arrow closest to a beak direction in degrees.
func Glyph(beakDeg float64) rune {
	oct := int(math.Round(geom.NormalizeDegrees(beakDeg)/45)) % 8
	if oct < 0 {
		oct += 8
	}
	return arrows[oct]
}

// Render draws snap and shows the screen.
func (t *Terminal) Render(snap game.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.note(snap)
	t.screen.Clear()
	t.drawBoard()

	hit := make(map[int]bool)
	for _, e := range snap.EventsOf(game.EventHit) {
		hit[e.ChickenID] = true
	}
	for _, s := range snap.Shots {
		col, row := t.Cell(s.Position.X, s.Position.Y)
		t.screen.SetContent(col, row, '•', nil, shotStyle)
	}
	for _, c := range snap.Chickens {
		col, row := t.Cell(c.Position.X, c.Position.Y)
		style := teamStyle(c.Team)
		if hit[c.ID] {
			style = hitStyle
		}
		t.screen.SetContent(col, row, Glyph(c.Beak.Degrees()), nil, style)
	}

	row := t.data.NominalHeight + 2
	t.print(0, row, textStyle, fmt.Sprintf("tick %d  red %d  blue %d  shots %d",
		snap.Tick, snap.Alive(game.TeamRed), snap.Alive(game.TeamBlue), len(snap.Shots)))
	for i, line := range t.recent {
		t.print(0, row+1+i, textStyle, line)
	}
	t.screen.Show()
}

// note records labels and the latest combat lines, and plays cues.
func (t *Terminal) note(snap game.Snapshot) {
	for _, c := range snap.Chickens {
		t.labels[c.ID] = c.Label
	}
	for _, e := range snap.Events {
		var line string
		switch e.Kind {
		case game.EventHit:
			line = fmt.Sprintf("%4d %s hit by %s %s", e.Tick, t.labels[e.ChickenID], t.labels[e.OtherID], e.Detail)
			t.cue.Hit()
		case game.EventDeath:
			line = fmt.Sprintf("%4d %s eliminated", e.Tick, t.labels[e.ChickenID])
			t.cue.Death()
		case game.EventAIError, game.EventAITimeout, game.EventAIPanic:
			line = fmt.Sprintf("%4d %s %s", e.Tick, t.labels[e.ChickenID], e.Kind)
		default:
			continue
		}
		t.recent = append(t.recent, line)
	}
	if n := len(t.recent); n > eventLines {
		t.recent = append(t.recent[:0], t.recent[n-eventLines:]...)
	}
}

func (t *Terminal) drawBoard() {
	w, h := t.data.NominalWidth*2+1, t.data.NominalHeight+1
	for x := 0; x <= w; x++ {
		t.screen.SetContent(x, 0, '─', nil, borderStyle)
		t.screen.SetContent(x, h, '─', nil, borderStyle)
	}
	for y := 0; y <= h; y++ {
		t.screen.SetContent(0, y, '│', nil, borderStyle)
		t.screen.SetContent(w, y, '│', nil, borderStyle)
	}
	t.screen.SetContent(0, 0, '┌', nil, borderStyle)
	t.screen.SetContent(w, 0, '┐', nil, borderStyle)
	t.screen.SetContent(0, h, '└', nil, borderStyle)
	t.screen.SetContent(w, h, '┘', nil, borderStyle)
	for y := 1; y < h; y++ {
		for x := 2; x < w; x += 2 {
			t.screen.SetContent(x, y, '·', nil, floorStyle)
		}
	}
}

func (t *Terminal) print(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func teamStyle(team game.Team) tcell.Style {
	if team == game.TeamRed {
		return tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue).Bold(true)
}
