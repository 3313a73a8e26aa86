package game

type BattleOutcome int

const (
	OutcomeInconclusive BattleOutcome = iota
	OutcomeRedVictory
	OutcomeBlueVictory
	OutcomeDraw
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeRedVictory:
		return "red_victory"
	case OutcomeBlueVictory:
		return "blue_victory"
	case OutcomeDraw:
		return "draw"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Decisive reports whether one side won outright.
func (o BattleOutcome) Decisive() bool {
	return o == OutcomeRedVictory || o == OutcomeBlueVictory
}

type OutcomeReason struct {
	Outcome       BattleOutcome
	RedSurvivors  int
	RedTotal      int
	RedHitPoints  int
	BlueSurvivors int
	BlueTotal     int
	BlueHitPoints int
	Description   string
}

// DetermineOutcome classifies a match from its roster. Elimination decides
// outright; otherwise a clear casualty gap gives a marginal result and an
// even exchange with real losses is a draw.
func DetermineOutcome(roster []UnitStats) OutcomeReason {
	r := OutcomeReason{Outcome: OutcomeInconclusive}
	for _, u := range roster {
		switch u.Team {
		case TeamRed:
			r.RedTotal++
			if u.Alive {
				r.RedSurvivors++
				r.RedHitPoints += u.HitPoints
			}
		case TeamBlue:
			r.BlueTotal++
			if u.Alive {
				r.BlueSurvivors++
				r.BlueHitPoints += u.HitPoints
			}
		}
	}

	switch {
	case r.RedSurvivors == 0 && r.BlueSurvivors == 0:
		r.Outcome, r.Description = OutcomeDraw, "mutual_annihilation"
		return r
	case r.RedSurvivors == 0:
		r.Outcome, r.Description = OutcomeBlueVictory, "decisive_blue_victory_red_eliminated"
		return r
	case r.BlueSurvivors == 0:
		r.Outcome, r.Description = OutcomeRedVictory, "decisive_red_victory_blue_eliminated"
		return r
	}

	redCasualtyRate := casualtyRate(r.RedTotal, r.RedSurvivors)
	blueCasualtyRate := casualtyRate(r.BlueTotal, r.BlueSurvivors)
	casualtyDiff := blueCasualtyRate - redCasualtyRate

	switch {
	case casualtyDiff > 0.30 && redCasualtyRate < 0.50:
		r.Outcome, r.Description = OutcomeRedVictory, "marginal_red_victory_casualty_advantage"
	case casualtyDiff < -0.30 && blueCasualtyRate < 0.50:
		r.Outcome, r.Description = OutcomeBlueVictory, "marginal_blue_victory_casualty_advantage"
	case casualtyDiff >= -0.20 && casualtyDiff <= 0.20 && (redCasualtyRate > 0.30 || blueCasualtyRate > 0.30):
		r.Outcome, r.Description = OutcomeDraw, "draw_similar_casualties"
	default:
		r.Description = "inconclusive_insufficient_resolution"
	}
	return r
}

func casualtyRate(total, survivors int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-survivors) / float64(total)
}
