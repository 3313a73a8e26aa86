package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

const (
	borderWidth = 24
	hudScale    = 2
	statusTTL   = 120 // frames a status message stays up
)

var speeds = []float64{0.25, 0.5, 1, 2, 4, 8}

// copyText is swapped out in tests.
var copyText = clipboard.WriteAll

// Game implements ebiten.Game over a Source.
type Game struct {
	ctx  context.Context
	src  Source
	data game.GameEngineData

	snap   game.Snapshot
	labels map[int]unitLabel
	log    *EventLog

	width, height         int
	gameWidth, gameHeight int
	offX, offY            int
	worldBuf, hudBuf      *ebiten.Image

	speedIdx  int
	paused    bool
	tickAccum float64
	finished  bool

	showHUD   bool
	showCones bool

	status      string
	statusTimer int
}

// New builds a viewer for src on a board described by data.
func New(ctx context.Context, src Source, data game.GameEngineData) *Game {
	g := &Game{
		ctx:        ctx,
		src:        src,
		data:       data,
		labels:     make(map[int]unitLabel),
		log:        NewEventLog(),
		gameWidth:  int(data.RealWidth()),
		gameHeight: int(data.RealHeight()),
		offX:       borderWidth,
		offY:       borderWidth,
		speedIdx:   2,
		showHUD:    true,
	}
	g.width = g.offX*2 + g.gameWidth + logPanelWidth
	g.height = g.offY*2 + g.gameHeight
	g.show(src.First())
	return g
}

// WindowSize returns the window size that fits the board and log panel.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }

func (g *Game) Update() error {
	if err := g.handleInput(); err != nil {
		return err
	}
	if g.statusTimer > 0 {
		g.statusTimer--
	}
	if g.paused || g.finished {
		return nil
	}

	// At 1x one sim step takes Step seconds of wall time.
	g.tickAccum += speeds[g.speedIdx] * g.data.StepDelta * float64(ebiten.TPS())
	n := int(g.tickAccum)
	g.tickAccum -= float64(n)
	return g.advance(n)
}

// advance pulls up to n snapshots from the source.
func (g *Game) advance(n int) error {
	for range n {
		snap, ok, err := g.src.Next(g.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ebiten.Termination
			}
			return err
		}
		if !ok {
			g.finished = true
			g.setStatus("match over, C copies the summary")
			return nil
		}
		g.show(snap)
	}
	return nil
}

func (g *Game) show(snap game.Snapshot) {
	for _, e := range snap.Events {
		if e.Kind == game.EventMoveBlocked {
			continue
		}
		g.log.Add(entryFor(e, g.labels))
	}
	for _, c := range snap.Chickens {
		g.labels[c.ID] = unitLabel{c.Label, c.Team}
	}
	g.snap = snap
}

func (g *Game) handleInput() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyP), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyComma):
		g.speedIdx = max(g.speedIdx-1, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		g.speedIdx = min(g.speedIdx+1, len(speeds)-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHUD = !g.showHUD
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.showCones = !g.showCones
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if g.paused && !g.finished {
			return g.advance(1)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.rewind()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copySummary()
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		if p, ok := g.boardPoint(ebiten.CursorPosition()); ok {
			g.inspect(p)
		}
	}
	return nil
}

func (g *Game) rewind() {
	rs, ok := g.src.(*ReplaySource)
	if !ok {
		return
	}
	g.log.Reset()
	g.finished = false
	g.show(rs.Rewind())
	g.setStatus("rewound")
}

func (g *Game) copySummary() {
	if err := copyText(g.src.Summary(g.snap)); err != nil {
		g.setStatus("clipboard: " + err.Error())
		return
	}
	g.setStatus("summary copied to clipboard")
}

// inspect reports the chicken nearest to p.
func (g *Game) inspect(p geom.Point) {
	var best *game.ChickenRecord
	for i := range g.snap.Chickens {
		c := &g.snap.Chickens[i]
		if best == nil || c.Position.DistSq(p) < best.Position.DistSq(p) {
			best = c
		}
	}
	if best == nil {
		return
	}
	g.setStatus(fmt.Sprintf("%s hp=%d at %s beak %s", best.Label, best.HitPoints, best.Position, best.Beak))
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusTimer = statusTTL
}

func (g *Game) speedLabel() string {
	if g.paused {
		return "PAUSED"
	}
	s := speeds[g.speedIdx]
	if s == float64(int(s)) {
		return fmt.Sprintf("%dx", int(s))
	}
	return fmt.Sprintf("%.2gx", s)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
