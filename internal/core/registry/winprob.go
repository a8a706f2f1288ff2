package registry

// pctPerPoint is how much one point of score differential moves the
// displayed split. Chosen so a two-score lead reads as a heavy favorite,
// not calibrated against anything — the point is a monotonic, explainable
// number for the scoreboard, not a forecast.
const pctPerPoint = 2.5

const (
	winPctFloor = 5
	winPctCeil  = 95
)

// RecomputeWinProbability rederives the probability split for one game
// from its pre-game baseline and current score differential. No-op for
// FINAL games, whose split was pinned at finalization.
func (r *Registry) RecomputeWinProbability(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[id]
	if !ok {
		return ErrUnknownGame
	}
	recompute(g)
	return nil
}

// RecomputeAll rederives the split for every non-FINAL game. Called once
// per reconciliation cycle after the batch has been applied.
func (r *Registry) RecomputeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.games {
		recompute(g)
	}
}

func recompute(g *Game) {
	if g.State == StateFinal {
		return
	}
	diff := float64(g.HomeScore - g.AwayScore)
	home := clampPct(g.BaselineHomePct + diff*pctPerPoint)
	g.HomeWinPct = home
	g.AwayWinPct = 100 - home
	g.Confidence = confidenceLabel(g.HomeWinPct, g.AwayWinPct)
}

func clampPct(p float64) float64 {
	if p < winPctFloor {
		return winPctFloor
	}
	if p > winPctCeil {
		return winPctCeil
	}
	return p
}

func confidenceLabel(homePct, awayPct float64) string {
	lead := homePct
	if awayPct > lead {
		lead = awayPct
	}
	switch {
	case lead >= 80:
		return "heavy favorite"
	case lead >= 60:
		return "favored"
	default:
		return "toss-up"
	}
}
