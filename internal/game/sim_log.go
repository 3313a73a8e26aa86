package game

import (
	"fmt"
	"strings"
	"sync"
)

// SimLogEntry is one line of the match log.
type SimLogEntry struct {
	Tick     int
	Chicken  string  // label, e.g. "R0"
	Team     string  // "red" or "blue"
	Category string  // combat, move or ai
	Key      string  // event kind name, or "pose" for verbose entries
	Value    string  // detail text
	NumVal   float64 // other chicken id for events, hit points for poses
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] R0   combat    hit              hit by B1 (shot #7) hp=2
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Chicken, e.Category, e.Key, e.Value)
}

// SimLog collects structured engine events. Unlike viewer.EventLog (a
// ring buffer), it is unbounded and machine-readable. It is safe for
// concurrent use.
type SimLog struct {
	mu      sync.Mutex
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick poses are also
// recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

func (sl *SimLog) Add(tick int, chicken, team, category, key, value string, numVal float64) {
	sl.mu.Lock()
	sl.entries = append(sl.entries, SimLogEntry{tick, chicken, team, category, key, value, numVal})
	sl.mu.Unlock()
}

// AddVerbose is Add for per-tick noise; it is dropped unless verbose.
func (sl *SimLog) AddVerbose(tick int, chicken, team, category, key, value string, numVal float64) {
	if sl.verbose {
		sl.Add(tick, chicken, team, category, key, value, numVal)
	}
}

// Entries returns a copy of everything recorded so far.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.collect(func(SimLogEntry) bool { return true })
}

// collect is safe on a nil SimLog so read paths work on engines built
// without one.
func (sl *SimLog) collect(keep func(SimLogEntry) bool) []SimLogEntry {
	if sl == nil {
		return nil
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	var out []SimLogEntry
	for _, e := range sl.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// matches treats an empty category or key as a wildcard.
func (e SimLogEntry) matches(category, key string) bool {
	return (category == "" || e.Category == category) && (key == "" || e.Key == key)
}

// Filter returns entries of a category and key; "" matches anything.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	return sl.collect(func(e SimLogEntry) bool { return e.matches(category, key) })
}

// FilterChicken returns entries for one chicken label.
func (sl *SimLog) FilterChicken(label string) []SimLogEntry {
	return sl.collect(func(e SimLogEntry) bool { return e.Chicken == label })
}

// Between returns entries with from <= Tick <= to.
func (sl *SimLog) Between(from, to int) []SimLogEntry {
	return sl.collect(func(e SimLogEntry) bool { return e.Tick >= from && e.Tick <= to })
}

func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the newest entry of a category and key.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	all := sl.Filter(category, key)
	if len(all) == 0 {
		return SimLogEntry{}, false
	}
	return all[len(all)-1], true
}

// HasEntry reports whether some entry of category and key has a Value
// containing valueSubstr.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	return len(sl.collect(func(e SimLogEntry) bool {
		return e.matches(category, key) && strings.Contains(e.Value, valueSubstr)
	})) > 0
}

// Format renders the whole log, one line per entry, for t.Log output.
func (sl *SimLog) Format() string { return formatEntries(sl.Entries()) }

// FormatRange renders the entries of ticks from..to.
func (sl *SimLog) FormatRange(from, to int) string { return formatEntries(sl.Between(from, to)) }

func formatEntries(entries []SimLogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of a match.
func (sl *SimLog) Summary(snap Snapshot, roster []UnitStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", snap.Tick)
	fmt.Fprintf(&sb, "Alive: red=%d  blue=%d  shots_in_flight=%d\n",
		snap.Alive(TeamRed), snap.Alive(TeamBlue), len(snap.Shots))
	fmt.Fprintf(&sb, "Events: fired=%d  hits=%d  deaths=%d  blocked=%d  ai_failures=%d\n",
		sl.CountCategory("combat", EventShotFired.String()),
		sl.CountCategory("combat", EventHit.String()),
		sl.CountCategory("combat", EventDeath.String()),
		sl.CountCategory("move", EventMoveBlocked.String()),
		sl.CountCategory("ai", ""))
	for _, u := range roster {
		status := "alive"
		if !u.Alive {
			status = fmt.Sprintf("dead@%d", u.DiedAt)
		}
		fmt.Fprintf(&sb, "%-4s %-4s hp=%d fired=%d landed=%d taken=%d %s\n",
			u.Label, u.Team, u.HitPoints, u.ShotsFired, u.HitsLanded, u.HitsTaken, status)
	}
	return sb.String()
}
