package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iby/nfl-gameday/internal/telemetry"
)

var ErrUnknownGame = errors.New("registry: unknown game id")

// ApplyOutcome says what UpsertFromExternal did with a snapshot.
type ApplyOutcome int

const (
	// Applied means scores, display fields, and any state transition took effect.
	Applied ApplyOutcome = iota
	// AppliedSoftOnly means a regressive score was rejected; period/clock
	// still applied, state and scores unchanged.
	AppliedSoftOnly
	// SkippedFinal means the game is FINAL and frozen; nothing applied.
	SkippedFinal
)

// ApplyResult reports the effect of one snapshot on one game.
type ApplyResult struct {
	Outcome     ApplyOutcome
	BecameFinal bool
	Reason      string // set for AppliedSoftOnly / SkippedFinal
}

// WindowGuard vetoes window replacement. The ledger registers one that
// refuses while any tracked game still has pending predictions.
type WindowGuard func(gameIDs []string) error

// Registry owns the canonical set of tracked games and enforces the
// lifecycle state machine and score invariants. One RWMutex guards the
// whole set: the reconciliation cycle is the only writer, readers
// (operator surface, ledger) take snapshots.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*Game
	guard WindowGuard
}

func New() *Registry {
	return &Registry{games: make(map[string]*Game)}
}

// SetWindowGuard installs the veto check consulted by ReplaceWindow.
func (r *Registry) SetWindowGuard(g WindowGuard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard = g
}

// ReplaceWindow discards the current schedule window and installs a new
// one. Refused while any current game is still referenced by pending
// predictions.
func (r *Registry) ReplaceWindow(games []Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.guard != nil && len(r.games) > 0 {
		ids := make([]string, 0, len(r.games))
		for id := range r.games {
			ids = append(ids, id)
		}
		if err := r.guard(ids); err != nil {
			return fmt.Errorf("registry: window replace refused: %w", err)
		}
	}

	r.games = make(map[string]*Game, len(games))
	for i := range games {
		g := games[i]
		if g.BaselineHomePct <= 0 || g.BaselineHomePct >= 100 {
			g.BaselineHomePct = 50
		}
		g.State = StateScheduled
		g.HomeWinPct = g.BaselineHomePct
		g.AwayWinPct = 100 - g.BaselineHomePct
		g.Confidence = confidenceLabel(g.HomeWinPct, g.AwayWinPct)
		r.games[g.ID] = &g
	}
	telemetry.Metrics.LiveGames.Set(0)
	telemetry.Infof("registry: loaded window with %d games", len(games))
	return nil
}

// UpsertFromExternal applies an already-matched external snapshot to a
// tracked game. Score integrity is the hard constraint: a score that would
// decrease while LIVE is rejected (display fields still apply). FINAL is
// absorbing and freezes everything but the derived probability fields.
func (r *Registry) UpsertFromExternal(id string, snap Snapshot) (ApplyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[id]
	if !ok {
		return ApplyResult{}, ErrUnknownGame
	}

	if g.State == StateFinal {
		return ApplyResult{Outcome: SkippedFinal, Reason: "game is final, fields frozen"}, nil
	}

	// Absent fields keep their last-known value; the feed is untrusted
	// and must not zero out good data.
	homeScore, awayScore := snap.HomeScore, snap.AwayScore
	if homeScore < 0 {
		homeScore = g.HomeScore
	}
	if awayScore < 0 {
		awayScore = g.AwayScore
	}

	if g.State == StateLive && (homeScore < g.HomeScore || awayScore < g.AwayScore) {
		r.applyDisplay(g, snap)
		g.UpdatedAt = time.Now()
		telemetry.Metrics.ScoreRejections.Inc()
		reason := fmt.Sprintf("regressive score %d-%d rejected (held %d-%d)",
			homeScore, awayScore, g.HomeScore, g.AwayScore)
		telemetry.Warnf("registry: %s vs %s: %s", g.HomeTeam, g.AwayTeam, reason)
		return ApplyResult{Outcome: AppliedSoftOnly, Reason: reason}, nil
	}

	g.HomeScore = homeScore
	g.AwayScore = awayScore
	r.applyDisplay(g, snap)
	g.UpdatedAt = time.Now()

	res := ApplyResult{Outcome: Applied}
	next := ClassifyStatus(snap.StatusText)
	if next > g.State {
		prev := g.State
		g.State = next
		switch {
		case next == StateLive:
			telemetry.Metrics.LiveGames.Inc()
			telemetry.Infof("registry: %s vs %s is live", g.HomeTeam, g.AwayTeam)
		case next == StateFinal:
			if prev == StateLive {
				telemetry.Metrics.LiveGames.Dec()
			}
			r.finalize(g)
			res.BecameFinal = true
		}
	}
	return res, nil
}

// applyDisplay sets the soft fields (period, overtime, clock) from a
// snapshot, keeping last-known values where the feed omitted them.
func (r *Registry) applyDisplay(g *Game, snap Snapshot) {
	if snap.Period >= 0 {
		g.Period = snap.Period
	}
	if snap.Overtime {
		g.Overtime = true
	}
	if snap.Clock != "" {
		g.Clock = snap.Clock
	}
}

// finalize freezes a game and pins its probability split to the actual
// outcome. Called with the write lock held, on the first FINAL transition.
func (r *Registry) finalize(g *Game) {
	switch {
	case g.HomeScore > g.AwayScore:
		g.HomeWinPct, g.AwayWinPct = 100, 0
	case g.AwayScore > g.HomeScore:
		g.HomeWinPct, g.AwayWinPct = 0, 100
	default:
		g.HomeWinPct, g.AwayWinPct = 50, 50
	}
	g.Confidence = confidenceLabel(g.HomeWinPct, g.AwayWinPct)
	telemetry.Metrics.GamesFinalized.Inc()
	telemetry.Infof("registry: %s vs %s final %d-%d",
		g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore)
}

// Get returns a copy of one game.
func (r *Registry) Get(id string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return Game{}, false
	}
	return *g, true
}

// All returns copies of every tracked game, ordered by kickoff.
func (r *Registry) All() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].ID < out[j].ID
		}
		return out[i].Kickoff.Before(out[j].Kickoff)
	})
	return out
}

// ListByState returns copies of all games in the given lifecycle state.
func (r *Registry) ListByState(s State) []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Game
	for _, g := range r.games {
		if g.State == s {
			out = append(out, *g)
		}
	}
	return out
}

// TeamPair is the minimal view the reconciler needs for matching.
type TeamPair struct {
	ID       string
	HomeTeam string
	AwayTeam string
}

// TeamPairs returns the identity/label view of every tracked game.
func (r *Registry) TeamPairs() []TeamPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TeamPair, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, TeamPair{ID: g.ID, HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam})
	}
	return out
}
