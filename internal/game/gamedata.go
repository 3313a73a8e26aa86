package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/Garsondee/Chicken-Arena/internal/collision"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

// Board and roster limits.
const (
	MinBoardSize = 4  // cells
	MaxBoardSize = 64 // cells
	MinTeamUnits = 1
	MaxTeamUnits = 32
)

// --- Unit constants ---

const (
	defaultCellSize       = 40.0     // world units per nominal cell
	defaultStepDelta      = 1.0 / 30 // seconds per tick
	defaultChickenSpeed   = 80.0     // units per second
	defaultAngularSpeed   = 180.0    // degrees per second
	defaultBodyRadius     = 10.0
	defaultBeakBaseOffset = 8.0  // distance from body centre to beak base
	defaultBeakTipOffset  = 16.0 // distance from body centre to beak tip
	defaultBeakHalfWidth  = 4.0
	defaultShotSpeed      = 320.0 // units per second
	defaultShotRadius     = 2.0
	defaultShotLifetime   = 90 // ticks
	defaultFireCooldown   = 15 // ticks between shots
	defaultMaxHitPoints   = 3
	defaultShotDamage     = 1
	defaultViewAngle      = 120.0 // degrees, full cone width
	defaultViewCells      = 12.0  // view distance in cells
)

var (
	ErrBoardSize = errors.New("game: board size out of range")
	ErrUnitCount = errors.New("game: unit count out of range")
)

// GameEngineData holds the constants of one game. The engine keeps its own
// copy; nothing in it changes after construction.
type GameEngineData struct {
	NominalWidth  int // cells
	NominalHeight int // cells
	CellSize      float64
	StepDelta     float64

	ChickenSpeed        float64
	ChickenAngularSpeed float64 // degrees per second
	BodyRadius          float64
	BeakBaseOffset      float64
	BeakTipOffset       float64
	BeakHalfWidth       float64

	ShotSpeed         float64
	ShotRadius        float64
	ShotLifetimeTicks int
	FireCooldownTicks int
	MaxHitPoints      int
	ShotDamage        int

	ViewAngle    float64 // degrees
	ViewDistance float64
}

// NewGameEngineData validates the nominal board size and fills in the
// standard unit constants.
func NewGameEngineData(width, height int) (GameEngineData, error) {
	if width < MinBoardSize || width > MaxBoardSize || height < MinBoardSize || height > MaxBoardSize {
		return GameEngineData{}, fmt.Errorf("%w: %dx%d (allowed %d..%d)", ErrBoardSize, width, height, MinBoardSize, MaxBoardSize)
	}
	return GameEngineData{
		NominalWidth:        width,
		NominalHeight:       height,
		CellSize:            defaultCellSize,
		StepDelta:           defaultStepDelta,
		ChickenSpeed:        defaultChickenSpeed,
		ChickenAngularSpeed: defaultAngularSpeed,
		BodyRadius:          defaultBodyRadius,
		BeakBaseOffset:      defaultBeakBaseOffset,
		BeakTipOffset:       defaultBeakTipOffset,
		BeakHalfWidth:       defaultBeakHalfWidth,
		ShotSpeed:           defaultShotSpeed,
		ShotRadius:          defaultShotRadius,
		ShotLifetimeTicks:   defaultShotLifetime,
		FireCooldownTicks:   defaultFireCooldown,
		MaxHitPoints:        defaultMaxHitPoints,
		ShotDamage:          defaultShotDamage,
		ViewAngle:           defaultViewAngle,
		ViewDistance:        defaultViewCells * defaultCellSize,
	}, nil
}

// DataForBoard rebuilds the constants for a board of the given size in world
// units, as carried by a Snapshot.
func DataForBoard(realWidth, realHeight float64) (GameEngineData, error) {
	return NewGameEngineData(int(math.Round(realWidth/defaultCellSize)), int(math.Round(realHeight/defaultCellSize)))
}

// ValidateTeamSize checks a per-team unit count against the roster limits.
func ValidateTeamSize(count int) error {
	if count < MinTeamUnits || count > MaxTeamUnits {
		return fmt.Errorf("%w: %d (allowed %d..%d)", ErrUnitCount, count, MinTeamUnits, MaxTeamUnits)
	}
	return nil
}

func (d GameEngineData) RealWidth() float64  { return float64(d.NominalWidth) * d.CellSize }
func (d GameEngineData) RealHeight() float64 { return float64(d.NominalHeight) * d.CellSize }
func (d GameEngineData) Cells() int          { return d.NominalWidth * d.NominalHeight }

// MoveStep is the distance a chicken covers in one tick.
func (d GameEngineData) MoveStep() float64 { return d.ChickenSpeed * d.StepDelta }

// MaxTurnStep is the largest beak rotation per tick, in degrees.
func (d GameEngineData) MaxTurnStep() float64 { return d.ChickenAngularSpeed * d.StepDelta }

// ShotStep is the distance a shot covers in one tick.
func (d GameEngineData) ShotStep() float64 { return d.ShotSpeed * d.StepDelta }

// CellCenter returns the world-space centre of cell (cx, cy).
func (d GameEngineData) CellCenter(cx, cy int) geom.Point {
	return geom.V((float64(cx)+0.5)*d.CellSize, (float64(cy)+0.5)*d.CellSize)
}

// InBounds reports whether p lies inside the board rectangle.
func (d GameEngineData) InBounds(p geom.Point) bool {
	return !geom.IsNegative(p.X) && !geom.IsNegative(p.Y) &&
		!geom.IsPositive(p.X-d.RealWidth()) && !geom.IsPositive(p.Y-d.RealHeight())
}

// BoundaryLines returns the four board edges, counter-clockwise from the
// bottom edge.
func (d GameEngineData) BoundaryLines() []collision.LineSegment {
	w, h := d.RealWidth(), d.RealHeight()
	corners := []geom.Point{geom.V(0, 0), geom.V(w, 0), geom.V(w, h), geom.V(0, h)}
	lines := make([]collision.LineSegment, 4)
	for i := range corners {
		lines[i] = collision.MustLineSegment(corners[i], corners[(i+1)%4])
	}
	return lines
}

// Vision returns the cone every chicken sees through.
func (d GameEngineData) Vision() VisionCone {
	return VisionCone{FOV: d.ViewAngle, MaxRange: d.ViewDistance}
}
