package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Chicken-Arena/internal/ai"
	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/record"
)

type options struct {
	ticks         int
	red, blue     string
	redCount      int
	blueCount     int
	width, height int
	layout        string
	recordDir     string
	collisions    string
	maxChecks     int
	logger        *slog.Logger
}

type runStats struct {
	runIndex int
	seed     int64
	ticks    int

	firstShotTick  int
	firstHitTick   int
	firstDeathTick int

	shotsFired int
	hits       int
	deaths     int
	blocked    int
	aiFailures int

	redTotal      int
	blueTotal     int
	redSurvivors  int
	blueSurvivors int

	outcome    game.OutcomeReason
	roster     []game.UnitStats
	recordPath string
	collisions *record.CollisionSummary
}

func main() {
	var runs int
	var seedBase int64
	var seedStep int64
	var copyReport bool
	var verbose bool
	var opts options

	flag.IntVar(&runs, "runs", 5, "number of headless matches")
	flag.IntVar(&opts.ticks, "ticks", 3600, "tick limit per match")
	flag.Int64Var(&seedBase, "seed-base", 42, "seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&opts.red, "red", "hunter", "red strategy ("+strings.Join(ai.Names(), "|")+")")
	flag.StringVar(&opts.blue, "blue", "random", "blue strategy")
	flag.IntVar(&opts.redCount, "red-count", 4, "red chickens")
	flag.IntVar(&opts.blueCount, "blue-count", 4, "blue chickens")
	flag.IntVar(&opts.width, "width", 16, "board width in cells")
	flag.IntVar(&opts.height, "height", 12, "board height in cells")
	flag.StringVar(&opts.layout, "layout", "random", "starting layout (random|lines)")
	flag.StringVar(&opts.recordDir, "record-dir", "", "write one parquet replay per run into this directory")
	flag.StringVar(&opts.collisions, "collisions", "", "write a collision check archive per run into this directory")
	flag.IntVar(&opts.maxChecks, "max-checks", 100000, "collision checks kept per archive")
	flag.BoolVar(&copyReport, "copy", false, "copy the report to the clipboard")
	flag.BoolVar(&verbose, "v", false, "log engine events to stderr")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if opts.ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if opts.layout != "random" && opts.layout != "lines" {
		fmt.Printf("error: unsupported layout %q (supported: random, lines)\n", opts.layout)
		return
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	all := make([]runStats, runs)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range runs {
		seed := seedBase + int64(i)*seedStep
		g.Go(func() error {
			rs, err := runMatch(ctx, opts, i+1, seed)
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			all[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Headless Arena Report ===\n")
	fmt.Fprintf(&b, "red=%s x%d blue=%s x%d board=%dx%d layout=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		opts.red, opts.redCount, opts.blue, opts.blueCount, opts.width, opts.height, opts.layout, runs, opts.ticks, seedBase, seedStep)
	for _, rs := range all {
		printRun(&b, rs)
	}
	printAggregate(&b, all)
	fmt.Print(b.String())

	if copyReport {
		if err := clipboard.WriteAll(b.String()); err != nil {
			fmt.Printf("error: copy report: %v\n", err)
		}
	}
}

func runMatch(ctx context.Context, opts options, runIndex int, seed int64) (runStats, error) {
	red, err := ai.Team(opts.red, opts.redCount)
	if err != nil {
		return runStats{}, err
	}
	blue, err := ai.Team(opts.blue, opts.blueCount)
	if err != nil {
		return runStats{}, err
	}

	simLog := game.NewSimLog(false)
	engineOpts := []game.Option{
		game.WithBoardSize(opts.width, opts.height),
		game.WithSeed(seed),
		game.WithSimLog(simLog),
		game.WithLogger(opts.logger.With("run", runIndex)),
		game.WithDecisionWorkers(1),
	}
	if opts.layout == "lines" {
		engineOpts = append(engineOpts, game.WithPositioner(game.FacingLines))
	}

	var recorder *record.CollisionRecorder
	if opts.collisions != "" {
		path := filepath.Join(opts.collisions, fmt.Sprintf("collisions-run%02d.zip", runIndex))
		if recorder, err = record.NewCollisionRecorder(path, opts.maxChecks); err != nil {
			return runStats{}, err
		}
		defer recorder.Close()
		engineOpts = append(engineOpts, game.WithCollisionObserver(recorder), game.WithRenderer(recorder.Renderer()))
	}
	var writer *record.MatchWriter
	if opts.recordDir != "" {
		if writer, err = record.NewMatchWriter(opts.recordDir, record.NewMatchMeta(opts.red, opts.blue, seed)); err != nil {
			return runStats{}, err
		}
		engineOpts = append(engineOpts, game.WithRenderer(writer.Renderer()))
	}

	e, err := game.NewEngine(red, blue, engineOpts...)
	if err != nil {
		return runStats{}, err
	}
	if writer != nil {
		if err := writer.Write(e.Snapshot()); err != nil {
			return runStats{}, err
		}
	}
	final, err := e.Run(ctx, opts.ticks)
	if err != nil {
		return runStats{}, err
	}

	rs := collectStats(simLog, e.Roster())
	rs.runIndex = runIndex
	rs.seed = seed
	rs.ticks = final.Tick
	if writer != nil {
		if rs.recordPath, _, err = writer.Finalize(); err != nil {
			return runStats{}, err
		}
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return runStats{}, err
		}
		sum := recorder.Summary()
		rs.collisions = &sum
	}
	return rs, nil
}

func collectStats(sl *game.SimLog, roster []game.UnitStats) runStats {
	entries := sl.Entries()
	rs := runStats{
		firstShotTick:  firstTick(entries, "combat", "shot_fired"),
		firstHitTick:   firstTick(entries, "combat", "hit"),
		firstDeathTick: firstTick(entries, "combat", "death"),
		shotsFired:     sl.CountCategory("combat", "shot_fired"),
		hits:           sl.CountCategory("combat", "hit"),
		deaths:         sl.CountCategory("combat", "death"),
		blocked:        sl.CountCategory("move", "move_blocked"),
		aiFailures:     sl.CountCategory("ai", ""),
		outcome:        game.DetermineOutcome(roster),
		roster:         roster,
	}
	rs.redTotal, rs.blueTotal, rs.redSurvivors, rs.blueSurvivors = teamSurvivalCounts(roster)
	return rs
}

func teamSurvivalCounts(roster []game.UnitStats) (redTotal, blueTotal, redSurvivors, blueSurvivors int) {
	for _, u := range roster {
		if u.Team == game.TeamRed {
			redTotal++
			if u.Alive {
				redSurvivors++
			}
		} else {
			blueTotal++
			if u.Alive {
				blueSurvivors++
			}
		}
	}
	return
}

// detectStalemate flags matches where both sides kept most of their chickens
// and shooting rarely connected.
func detectStalemate(rs runStats) (bool, string) {
	if rs.redTotal == 0 || rs.blueTotal == 0 {
		return false, "empty_roster"
	}
	if rs.redSurvivors == 0 || rs.blueSurvivors == 0 {
		return false, "elimination"
	}
	redSurv := float64(rs.redSurvivors) / float64(rs.redTotal)
	blueSurv := float64(rs.blueSurvivors) / float64(rs.blueTotal)
	if d := redSurv - blueSurv; d > 0.34 || d < -0.34 {
		return false, fmt.Sprintf("decisive_attrition(red=%.2f blue=%.2f)", redSurv, blueSurv)
	}
	if redSurv < 0.5 || blueSurv < 0.5 {
		return false, "heavy_mutual_losses"
	}
	var reasons []string
	reasons = append(reasons, fmt.Sprintf("high_mutual_survival(red=%.2f blue=%.2f)", redSurv, blueSurv))
	switch {
	case rs.shotsFired == 0:
		reasons = append(reasons, "no_shots")
	case float64(rs.hits)/float64(rs.shotsFired) < 0.1:
		reasons = append(reasons, fmt.Sprintf("low_accuracy(%.2f)", float64(rs.hits)/float64(rs.shotsFired)))
	default:
		return false, "active_exchange"
	}
	return true, strings.Join(reasons, "+")
}

func firstTick(entries []game.SimLogEntry, category, key string) int {
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			return e.Tick
		}
	}
	return -1
}

func printRun(w *strings.Builder, rs runStats) {
	fmt.Fprintf(w, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(w, "outcome=%s reason=%s ticks=%d\n", rs.outcome.Outcome, rs.outcome.Description, rs.ticks)
	fmt.Fprintf(w, "phase_markers: first_shot=%d first_hit=%d first_death=%d\n",
		rs.firstShotTick, rs.firstHitTick, rs.firstDeathTick)
	fmt.Fprintf(w, "event_totals: shot_fired=%d hit=%d death=%d move_blocked=%d ai_failures=%d\n",
		rs.shotsFired, rs.hits, rs.deaths, rs.blocked, rs.aiFailures)
	fmt.Fprintf(w, "survivors: red=%d/%d (hp=%d) blue=%d/%d (hp=%d)\n",
		rs.redSurvivors, rs.redTotal, rs.outcome.RedHitPoints, rs.blueSurvivors, rs.blueTotal, rs.outcome.BlueHitPoints)
	if stale, reason := detectStalemate(rs); stale {
		fmt.Fprintf(w, "stalemate: %s\n", reason)
	}
	if rs.recordPath != "" {
		fmt.Fprintf(w, "replay: %s\n", rs.recordPath)
	}
	if c := rs.collisions; c != nil {
		fmt.Fprintf(w, "collision_checks: total=%d hits=%d recorded=%d dropped=%d pairs=%s\n",
			c.Checks, c.Hits, c.Recorded, c.Dropped, formatPairs(c.Pairs))
	}
	for _, u := range rs.roster {
		state := "alive"
		if !u.Alive {
			state = fmt.Sprintf("died@%d", u.DiedAt)
		}
		fmt.Fprintf(w, "  %-4s %-9s hp=%d fired=%d landed=%d taken=%d\n",
			u.Label, state, u.HitPoints, u.ShotsFired, u.HitsLanded, u.HitsTaken)
	}
	fmt.Fprintln(w)
}

func printAggregate(w *strings.Builder, all []runStats) {
	outcomes := map[string]int{}
	var totalShots, totalHits, totalDeaths, totalBlocked, totalFailures, stalemates int
	var hitTicks, deathTicks, matchTicks []int

	type unitAgg struct {
		count, survived, fired, landed int
	}
	units := map[string]*unitAgg{}

	for _, rs := range all {
		outcomes[rs.outcome.Outcome.String()]++
		totalShots += rs.shotsFired
		totalHits += rs.hits
		totalDeaths += rs.deaths
		totalBlocked += rs.blocked
		totalFailures += rs.aiFailures
		matchTicks = append(matchTicks, rs.ticks)
		if rs.firstHitTick >= 0 {
			hitTicks = append(hitTicks, rs.firstHitTick)
		}
		if rs.firstDeathTick >= 0 {
			deathTicks = append(deathTicks, rs.firstDeathTick)
		}
		if stale, _ := detectStalemate(rs); stale {
			stalemates++
		}
		for _, u := range rs.roster {
			ag, ok := units[u.Label]
			if !ok {
				ag = &unitAgg{}
				units[u.Label] = ag
			}
			ag.count++
			ag.fired += u.ShotsFired
			ag.landed += u.HitsLanded
			if u.Alive {
				ag.survived++
			}
		}
	}

	n := len(all)
	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d outcomes=%s stalemates=%d\n", n, joinCounts(outcomes), stalemates)
	fmt.Fprintf(w, "avg_events_per_run: shot_fired=%.1f hit=%.1f death=%.1f move_blocked=%.1f ai_failures=%.1f\n",
		avg(totalShots, n), avg(totalHits, n), avg(totalDeaths, n), avg(totalBlocked, n), avg(totalFailures, n))
	fmt.Fprintf(w, "accuracy=%.3f\n", ratio(totalHits, totalShots))
	fmt.Fprintf(w, "phase_marker_avg_ticks: first_hit=%s first_death=%s match_length=%s\n",
		avgTickString(hitTicks), avgTickString(deathTicks), avgTickString(matchTicks))

	fmt.Fprintln(w, "\n=== Per Chicken ===")
	labels := make([]string, 0, len(units))
	for l := range units {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		ag := units[l]
		fmt.Fprintf(w, "  %-4s survival=%.0f%% fired=%.1f accuracy=%.3f\n",
			l, ratio(ag.survived, ag.count)*100, avg(ag.fired, ag.count), ratio(ag.landed, ag.fired))
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func ratio(a, b int) float64 { return avg(a, b) }

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func formatPairs(pairs map[string]record.PairStats) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d/%d", k, pairs[k].Hits, pairs[k].Checks))
	}
	return strings.Join(parts, ",")
}

func joinCounts(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ",")
}
