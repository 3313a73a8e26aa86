package record

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"

	"github.com/Garsondee/Chicken-Arena/internal/collision"
	"github.com/Garsondee/Chicken-Arena/internal/game"
)

// CheckRecord is one primitive-pair test as written to checks.jsonl.
type CheckRecord struct {
	Seq   int    `json:"seq"`
	Tick  int    `json:"tick"`
	KindA string `json:"kind_a"`
	KindB string `json:"kind_b"`
	A     string `json:"a"`
	B     string `json:"b"`
	Hit   bool   `json:"hit"`

	BoundsA collision.Rect `json:"bounds_a"`
	BoundsB collision.Rect `json:"bounds_b"`

	// BoxesOverlap is false for checks a bounding-box pass would skip.
	BoxesOverlap bool `json:"boxes_overlap"`
}

// PairStats counts checks for one ordered pair of kinds.
type PairStats struct {
	Checks int `json:"checks"`
	Hits   int `json:"hits"`
}

// CollisionSummary is written to summary.json when the recorder closes.
type CollisionSummary struct {
	Checks   int                  `json:"checks"`
	Hits     int                  `json:"hits"`
	Recorded int                  `json:"recorded"`
	Dropped  int                  `json:"dropped"`
	Ticks    int                  `json:"ticks"`
	Pairs    map[string]PairStats `json:"pairs"`
}

// CollisionRecorder is a collision.Observer that streams every check into a
// zip archive. After maxChecks lines it only counts.
type CollisionRecorder struct {
	mu sync.Mutex

	file *os.File
	zw   *zip.Writer
	enc  *json.Encoder

	maxChecks int
	tick      int
	summary   CollisionSummary
	err       error
}

// NewCollisionRecorder creates path and opens its checks.jsonl entry.
// maxChecks <= 0 records every check.
func NewCollisionRecorder(path string, maxChecks int) (*CollisionRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create collision archive: %w", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("checks.jsonl")
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create checks entry: %w", err)
	}
	return &CollisionRecorder{
		file:      f,
		zw:        zw,
		enc:       json.NewEncoder(w),
		maxChecks: maxChecks,
		tick:      1,
		summary:   CollisionSummary{Pairs: map[string]PairStats{}},
	}, nil
}

// OnCheck implements collision.Observer.
func (r *CollisionRecorder) OnCheck(a, b collision.Primitive, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.zw == nil {
		return
	}
	r.summary.Checks++
	if hit {
		r.summary.Hits++
	}
	key := a.Kind().String() + "/" + b.Kind().String()
	ps := r.summary.Pairs[key]
	ps.Checks++
	if hit {
		ps.Hits++
	}
	r.summary.Pairs[key] = ps

	if r.err != nil || (r.maxChecks > 0 && r.summary.Recorded >= r.maxChecks) {
		r.summary.Dropped++
		return
	}
	rec := CheckRecord{
		Seq:   r.summary.Checks,
		Tick:  r.tick,
		KindA: a.Kind().String(),
		KindB: b.Kind().String(),
		A:     a.String(),
		B:     b.String(),
		Hit:   hit,

		BoundsA: a.Bounds(),
		BoundsB: b.Bounds(),
	}
	rec.BoxesOverlap = rec.BoundsA.Overlaps(rec.BoundsB)
	if err := r.enc.Encode(rec); err != nil {
		r.err = fmt.Errorf("encode check %d: %w", rec.Seq, err)
		r.summary.Dropped++
		return
	}
	r.summary.Recorded++
}

// Renderer keeps the recorder's tick label in step with the engine: checks
// logged after snapshot N belong to tick N+1.
func (r *CollisionRecorder) Renderer() game.Renderer {
	return func(s game.Snapshot) {
		r.mu.Lock()
		r.tick = s.Tick + 1
		r.summary.Ticks = s.Tick
		r.mu.Unlock()
	}
}

// Summary returns the running counts.
func (r *CollisionRecorder) Summary() CollisionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.summary
	out.Pairs = make(map[string]PairStats, len(r.summary.Pairs))
	for k, v := range r.summary.Pairs {
		out.Pairs[k] = v
	}
	return out
}

// Close writes summary.json and closes the archive.
func (r *CollisionRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.zw == nil {
		return ErrClosed
	}
	zw, f := r.zw, r.file
	r.zw, r.file = nil, nil

	w, err := zw.Create("summary.json")
	if err == nil {
		b, merr := json.MarshalIndent(r.summary, "", "  ")
		if merr != nil {
			err = merr
		} else {
			_, err = w.Write(b)
		}
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if ferr := f.Close(); err == nil {
		err = ferr
	}
	if err == nil {
		err = r.err
	}
	return err
}

// ReadCollisionArchive loads the summary and recorded checks of an archive.
func ReadCollisionArchive(path string) (CollisionSummary, []CheckRecord, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return CollisionSummary{}, nil, err
	}
	defer zr.Close()

	var summary CollisionSummary
	var checks []CheckRecord
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return CollisionSummary{}, nil, err
		}
		switch zf.Name {
		case "summary.json":
			err = readSummary(rc, &summary)
		case "checks.jsonl":
			checks, err = readChecks(rc)
		}
		_ = rc.Close()
		if err != nil {
			return CollisionSummary{}, nil, fmt.Errorf("%s: %w", zf.Name, err)
		}
	}
	return summary, checks, nil
}

func readSummary(r io.Reader, out *CollisionSummary) error {
	return json.NewDecoder(r).Decode(out)
}

func readChecks(r io.Reader) ([]CheckRecord, error) {
	var out []CheckRecord
	dec := json.NewDecoder(r)
	for {
		var c CheckRecord
		if err := dec.Decode(&c); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}
