// Package record persists matches and collision diagnostics: a parquet file
// with one row per tick for replay, and a zip archive of JSON lines for every
// collision check the engine performs.
package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

const matchSchema = "chicken_match_v1"

var (
	ErrClosed     = errors.New("record: writer is closed")
	ErrEmptyMatch = errors.New("record: match has no frames")
)

// FrameRow is one tick of one match.
type FrameRow struct {
	MatchID  string       `parquet:"match_id,dict"`
	Tick     int32        `parquet:"tick"`
	Width    float64      `parquet:"width"`
	Height   float64      `parquet:"height"`
	Red      string       `parquet:"red,dict"`
	Blue     string       `parquet:"blue,dict"`
	Seed     int64        `parquet:"seed"`
	Chickens []ChickenRow `parquet:"chickens"`
	Shots    []ShotRow    `parquet:"shots"`
	Events   []EventRow   `parquet:"events"`
}

type ChickenRow struct {
	ID        int32   `parquet:"id"`
	Label     string  `parquet:"label,dict"`
	Team      int32   `parquet:"team"`
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
	Beak      float64 `parquet:"beak"`
	HitPoints int32   `parquet:"hit_points"`
}

type ShotRow struct {
	ID        int32   `parquet:"id"`
	OwnerID   int32   `parquet:"owner_id"`
	OwnerTeam int32   `parquet:"owner_team"`
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
	Angle     float64 `parquet:"angle"`
}

type EventRow struct {
	Kind      int32  `parquet:"kind"`
	ChickenID int32  `parquet:"chicken_id"`
	OtherID   int32  `parquet:"other_id"`
	ShotID    int32  `parquet:"shot_id"`
	Detail    string `parquet:"detail"`
}

// MatchMeta identifies a recorded match.
type MatchMeta struct {
	MatchID string
	Red     string
	Blue    string
	Seed    int64
}

// NewMatchMeta assigns a fresh match id.
func NewMatchMeta(red, blue string, seed int64) MatchMeta {
	return MatchMeta{MatchID: uuid.NewString(), Red: red, Blue: blue, Seed: seed}
}

// FrameFromSnapshot flattens a snapshot into a parquet row.
func FrameFromSnapshot(meta MatchMeta, s game.Snapshot) FrameRow {
	row := FrameRow{
		MatchID: meta.MatchID,
		Tick:    int32(s.Tick),
		Width:   s.Width,
		Height:  s.Height,
		Red:     meta.Red,
		Blue:    meta.Blue,
		Seed:    meta.Seed,
	}
	for _, c := range s.Chickens {
		row.Chickens = append(row.Chickens, ChickenRow{
			ID:        int32(c.ID),
			Label:     c.Label,
			Team:      int32(c.Team),
			X:         c.Position.X,
			Y:         c.Position.Y,
			Beak:      c.Beak.Degrees(),
			HitPoints: int32(c.HitPoints),
		})
	}
	for _, sh := range s.Shots {
		row.Shots = append(row.Shots, ShotRow{
			ID:        int32(sh.ID),
			OwnerID:   int32(sh.OwnerID),
			OwnerTeam: int32(sh.OwnerTeam),
			X:         sh.Position.X,
			Y:         sh.Position.Y,
			Angle:     sh.Angle.Degrees(),
		})
	}
	for _, e := range s.Events {
		row.Events = append(row.Events, EventRow{
			Kind:      int32(e.Kind),
			ChickenID: int32(e.ChickenID),
			OtherID:   int32(e.OtherID),
			ShotID:    int32(e.ShotID),
			Detail:    e.Detail,
		})
	}
	return row
}

// Snapshot rebuilds the engine snapshot a row was taken from.
func (r FrameRow) Snapshot() game.Snapshot {
	s := game.Snapshot{Tick: int(r.Tick), Width: r.Width, Height: r.Height}
	for _, c := range r.Chickens {
		s.Chickens = append(s.Chickens, game.ChickenRecord{
			ID:        int(c.ID),
			Label:     c.Label,
			Team:      game.Team(c.Team),
			Position:  geom.V(c.X, c.Y),
			Beak:      geom.Wrap(c.Beak),
			HitPoints: int(c.HitPoints),
		})
	}
	for _, sh := range r.Shots {
		s.Shots = append(s.Shots, game.ShotRecord{
			ID:        int(sh.ID),
			OwnerID:   int(sh.OwnerID),
			OwnerTeam: game.Team(sh.OwnerTeam),
			Position:  geom.V(sh.X, sh.Y),
			Angle:     geom.Wrap(sh.Angle),
		})
	}
	for _, e := range r.Events {
		s.Events = append(s.Events, game.Event{
			Tick:      int(r.Tick),
			Kind:      game.EventKind(e.Kind),
			ChickenID: int(e.ChickenID),
			OtherID:   int(e.OtherID),
			ShotID:    int(e.ShotID),
			Detail:    e.Detail,
		})
	}
	return s
}

// MatchWriter streams frames into a parquet file under outDir/tmp and moves
// it into outDir on Finalize.
type MatchWriter struct {
	mu   sync.Mutex
	meta MatchMeta

	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[FrameRow]
	frames int
	err    error // first error seen by the Renderer adapter
}

// NewMatchWriter opens a writer for one match.
func NewMatchWriter(outDir string, meta MatchMeta) (*MatchWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	name := fmt.Sprintf("match_%s.parquet", meta.MatchID)
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}
	w := parquet.NewGenericWriter[FrameRow](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", matchSchema)
	w.SetKeyValueMetadata("match_id", meta.MatchID)
	w.SetKeyValueMetadata("red", meta.Red)
	w.SetKeyValueMetadata("blue", meta.Blue)
	w.SetKeyValueMetadata("seed", strconv.FormatInt(meta.Seed, 10))

	return &MatchWriter{
		meta:    meta,
		tmpPath: tmpPath,
		outPath: filepath.Join(outDir, name),
		file:    f,
		writer:  w,
	}, nil
}

func (m *MatchWriter) Meta() MatchMeta { return m.meta }
func (m *MatchWriter) OutPath() string { return m.outPath }
func (m *MatchWriter) Frames() int     { return m.frames }

// Write appends one snapshot.
func (m *MatchWriter) Write(s game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer == nil {
		return ErrClosed
	}
	if _, err := m.writer.Write([]FrameRow{FrameFromSnapshot(m.meta, s)}); err != nil {
		return fmt.Errorf("write frame %d: %w", s.Tick, err)
	}
	m.frames++
	return nil
}

// Renderer adapts the writer to the engine's renderer hook. The first write
// error is kept and returned by Finalize.
func (m *MatchWriter) Renderer() game.Renderer {
	return func(s game.Snapshot) {
		if err := m.Write(s); err != nil {
			m.mu.Lock()
			if m.err == nil {
				m.err = err
			}
			m.mu.Unlock()
		}
	}
}

// Finalize closes the parquet writer and moves the file into place. A match
// with no frames is discarded and ErrEmptyMatch returned.
func (m *MatchWriter) Finalize() (outPath string, frames int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer == nil {
		return "", 0, ErrClosed
	}

	closeErr := m.writer.Close()
	m.writer = nil
	_ = m.file.Sync()
	fileErr := m.file.Close()
	m.file = nil

	switch {
	case closeErr != nil:
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	case fileErr != nil:
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	case m.err != nil:
		_ = os.Remove(m.tmpPath)
		return "", 0, m.err
	case m.frames == 0:
		_ = os.Remove(m.tmpPath)
		return "", 0, ErrEmptyMatch
	}
	if err := os.Rename(m.tmpPath, m.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return m.outPath, m.frames, nil
}

// ReadMatch loads every frame of a recorded match in tick order.
func ReadMatch(path string) (MatchMeta, []game.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return MatchMeta{}, nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return MatchMeta{}, nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return MatchMeta{}, nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[FrameRow](pf)
	defer reader.Close()

	var meta MatchMeta
	snaps := make([]game.Snapshot, 0, reader.NumRows())
	// Nested slices in buf are reused by the reader, so convert each batch
	// before reading the next.
	buf := make([]FrameRow, 128)
	for {
		n, err := reader.Read(buf)
		for _, r := range buf[:n] {
			if len(snaps) == 0 {
				meta = MatchMeta{MatchID: r.MatchID, Red: r.Red, Blue: r.Blue, Seed: r.Seed}
			}
			snaps = append(snaps, r.Snapshot())
		}
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return MatchMeta{}, nil, fmt.Errorf("read frames: %w", err)
		}
	}
	if len(snaps) == 0 {
		return MatchMeta{}, nil, ErrEmptyMatch
	}
	return meta, snaps, nil
}
