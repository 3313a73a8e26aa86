package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

var (
	groundCol = color.RGBA{R: 48, G: 62, B: 40, A: 255}
	gridCol   = color.RGBA{R: 62, G: 80, B: 52, A: 255}
	beakCol   = colornames.Gold
	shotCol   = colornames.Whitesmoke
	hitCol    = colornames.Orangered
)

func teamColor(t game.Team) color.RGBA {
	if t == game.TeamRed {
		return colornames.Firebrick
	}
	return colornames.Royalblue
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})
	if g.worldBuf == nil {
		g.worldBuf = ebiten.NewImage(g.gameWidth, g.gameHeight)
		g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	}

	g.worldBuf.Clear()
	g.drawWorld(g.worldBuf)
	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.worldBuf, &blit)

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.gameWidth), float32(g.gameHeight)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)

	g.log.Draw(screen, g.offX*2+g.gameWidth, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) drawWorld(dst *ebiten.Image) {
	vector.FillRect(dst, 0, 0, float32(g.gameWidth), float32(g.gameHeight), groundCol, false)
	drawGrid(dst, g.gameWidth, g.gameHeight, int(g.data.CellSize), gridCol)

	if g.showCones {
		for _, c := range g.snap.Chickens {
			g.drawCone(dst, c)
		}
	}
	hit := make(map[int]bool)
	for _, e := range g.snap.EventsOf(game.EventHit) {
		hit[e.ChickenID] = true
	}
	for _, c := range g.snap.Chickens {
		g.drawChicken(dst, c, hit[c.ID])
	}
	for _, s := range g.snap.Shots {
		x, y := float32(s.Position.X), float32(s.Position.Y)
		vector.FillCircle(dst, x, y, float32(g.data.ShotRadius)+1, shotCol, true)
		tail := s.Position.Sub(s.Angle.Direction().Scale(g.data.ShotSpeed * g.data.StepDelta))
		vector.StrokeLine(dst, x, y, float32(tail.X), float32(tail.Y), 1.0, teamColor(s.OwnerTeam), true)
	}
}

func (g *Game) drawChicken(dst *ebiten.Image, c game.ChickenRecord, hit bool) {
	x, y := float32(c.Position.X), float32(c.Position.Y)
	r := float32(g.data.BodyRadius)
	vector.FillCircle(dst, x, y, r, teamColor(c.Team), true)
	if hit {
		vector.StrokeCircle(dst, x, y, r+3, 2.0, hitCol, true)
	}

	pts := game.BeakOutline(g.data, c.Position, c.Beak)
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	path.LineTo(float32(pts[1].X), float32(pts[1].Y))
	path.LineTo(float32(pts[2].X), float32(pts[2].Y))
	path.Close()
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(beakCol)
	vector.FillPath(dst, &path, &vector.FillOptions{}, op)

	// Hit point pips under the body.
	for i := range c.HitPoints {
		px := x - r + float32(i)*5
		vector.FillRect(dst, px, y+r+2, 3, 3, colornames.Limegreen, false)
	}
	ebitenutil.DebugPrintAt(dst, c.Label, int(x-r), int(y-r)-16)
}

func (g *Game) drawCone(dst *ebiten.Image, c game.ChickenRecord) {
	const steps = 24
	half := g.data.ViewAngle / 2
	coneLen := math.Min(g.data.ViewDistance, g.data.CellSize*4)
	tc := teamColor(c.Team)
	col := color.NRGBA{R: tc.R, G: tc.G, B: tc.B, A: 40}

	var path vector.Path
	path.MoveTo(float32(c.Position.X), float32(c.Position.Y))
	for i := 0; i <= steps; i++ {
		a := c.Beak.AddDegrees(-half + g.data.ViewAngle*float64(i)/steps)
		p := c.Position.Add(a.Direction().Scale(coneLen))
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(col)
	vector.FillPath(dst, &path, &vector.FillOptions{}, op)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := []string{
		fmt.Sprintf("TICK %d  SIM: %s", g.snap.Tick, g.speedLabel()),
		fmt.Sprintf("RED %d  BLUE %d  SHOTS %d",
			g.snap.Alive(game.TeamRed), g.snap.Alive(game.TeamBlue), len(g.snap.Shots)),
		"P=pause N=step ,/. speed",
		"V=cones H=hud C=copy R=rewind",
	}
	if g.statusTimer > 0 && g.status != "" {
		lines = append(lines, g.status)
	}

	const lineH = 12
	const charW = 6
	const padX = 5
	const padY = 4
	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(g.offX/hudScale + 2)
	by := float32(g.offY/hudScale + 2)

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 190}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(hudScale, hudScale)
	screen.DrawImage(g.hudBuf, opts)
}

func drawGrid(dst *ebiten.Image, w, h, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	for x := 0; x <= w; x += spacing {
		vector.StrokeLine(dst, float32(x), 0, float32(x), float32(h), 1.0, c, false)
	}
	for y := 0; y <= h; y += spacing {
		vector.StrokeLine(dst, 0, float32(y), float32(w), float32(y), 1.0, c, false)
	}
}

// boardPoint maps a window pixel to board coordinates.
func (g *Game) boardPoint(x, y int) (geom.Point, bool) {
	p := geom.V(float64(x-g.offX), float64(y-g.offY))
	return p, p.X >= 0 && p.Y >= 0 && p.X <= float64(g.gameWidth) && p.Y <= float64(g.gameHeight)
}
