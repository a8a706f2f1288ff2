package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

var (
	ErrUnknownPrediction = errors.New("ledger: unknown prediction")
	ErrNotReviewable     = errors.New("ledger: prediction is not awaiting manual review")
	ErrNotTerminal       = errors.New("ledger: manual resolution requires a terminal status")
)

type predKey struct {
	GameID string
	Kind   Kind
}

// Ledger creates, stores, and grades predictions, and maintains the
// running accuracy statistics. The in-memory map is authoritative at
// runtime; every mutation is written through to the SQLite store so the
// ledger survives restarts with its identity space intact.
type Ledger struct {
	mu    sync.Mutex
	store *Store
	preds map[predKey]*Prediction
	rules map[Kind]GradeFunc

	// stats is maintained incrementally on every mutation and must always
	// equal a full recompute (RecalculateStatistics checks).
	stats Stats
}

// Open loads the persisted ledger. A store that cannot be read cleanly is
// fatal: without it the ledger cannot initialize prediction identities.
func Open(path string, aliases map[string]string) (*Ledger, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	loaded, err := store.LoadAll()
	if err != nil {
		store.Close()
		return nil, err
	}

	l := &Ledger{
		store: store,
		preds: make(map[predKey]*Prediction, len(loaded)),
		rules: builtinRules(aliases),
		stats: newStats(),
	}
	for i := range loaded {
		p := loaded[i]
		l.preds[predKey{GameID: p.GameID, Kind: p.Kind}] = &p
		l.stats.apply(p.Kind, p.Status, 1)
	}
	return l, nil
}

// RegisterRule installs (or replaces) the grading rule for a kind.
// Kinds without a rule are never guessed; their predictions stay PENDING
// and are flagged for manual review at grading time.
func (l *Ledger) RegisterRule(kind Kind, fn GradeFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules[kind] = fn
}

// Create inserts a prediction with status PENDING. Identity is
// (gameID, kind): if one already exists this is a no-op and the existing
// prediction is returned with created=false.
func (l *Ledger) Create(gameID string, kind Kind, pick string, line float64, confidence int, note string) (Prediction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := predKey{GameID: gameID, Kind: kind}
	if existing, ok := l.preds[key]; ok {
		return *existing, false, nil
	}

	p := &Prediction{
		ID:         uuid.NewString(),
		GameID:     gameID,
		Kind:       kind,
		Pick:       pick,
		Line:       line,
		Confidence: confidence,
		Note:       note,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}
	if err := l.store.Insert(*p); err != nil {
		return Prediction{}, false, err
	}
	l.preds[key] = p
	l.stats.apply(kind, StatusPending, 1)
	telemetry.Metrics.PredictionsCreated.Inc()
	telemetry.Infof("ledger: created %s prediction for game %s (%s)", kind, gameID, pick)
	return *p, true, nil
}

// HandleGameFinalized is the bus subscriber wrapper around OnGameFinalized.
func (l *Ledger) HandleGameFinalized(e events.Event) error {
	fin, ok := e.Payload.(events.GameFinalized)
	if !ok {
		return fmt.Errorf("ledger: unexpected payload %T", e.Payload)
	}
	l.OnGameFinalized(fin)
	return nil
}

// OnGameFinalized grades every pending prediction for the game. Grading is
// terminal and idempotent: already-graded predictions are never touched,
// so re-invocation for the same game changes nothing. A pending prediction
// whose kind has no registered rule is flagged for review, not guessed; if
// a rule appears later, a subsequent invocation grades it and clears the flag.
func (l *Ledger) OnGameFinalized(fin events.GameFinalized) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fs := FinalScore{
		HomeTeam:  fin.HomeTeam,
		AwayTeam:  fin.AwayTeam,
		HomeScore: fin.HomeScore,
		AwayScore: fin.AwayScore,
	}

	graded := 0
	for _, p := range l.preds {
		if p.GameID != fin.GameID || p.Status.Terminal() {
			continue
		}

		rule, ok := l.rules[p.Kind]
		if !ok {
			l.flagForReview(p, "no grading rule for kind "+string(p.Kind))
			continue
		}
		status, ok := rule(*p, fs)
		if !ok {
			l.flagForReview(p, "rule could not resolve pick "+p.Pick)
			continue
		}

		l.settle(p, status)
		graded++
	}

	if graded > 0 {
		telemetry.Infof("ledger: graded %d prediction(s) for game %s (final %d-%d)",
			graded, fin.GameID, fin.HomeScore, fin.AwayScore)
	}
}

// settle moves a pending prediction to a terminal status and persists it.
// Must be called with the lock held.
func (l *Ledger) settle(p *Prediction, status Status) {
	prev := p.Status
	p.Status = status
	p.NeedsReview = false
	p.GradedAt = time.Now()
	if err := l.store.UpdateStatus(*p); err != nil {
		telemetry.Warnf("ledger: persist grade for %s: %v", p.ID, err)
	}
	l.stats.apply(p.Kind, prev, -1)
	l.stats.apply(p.Kind, status, 1)
	telemetry.Metrics.PredictionsGraded.Inc()
}

// flagForReview marks a pending prediction for manual resolution.
// Idempotent; must be called with the lock held.
func (l *Ledger) flagForReview(p *Prediction, why string) {
	if p.NeedsReview {
		return
	}
	p.NeedsReview = true
	if err := l.store.UpdateStatus(*p); err != nil {
		telemetry.Warnf("ledger: persist review flag for %s: %v", p.ID, err)
	}
	telemetry.Metrics.NeedsReview.Inc()
	telemetry.Warnf("ledger: prediction %s needs manual review: %s", p.ID, why)
}

// ResolveManual settles a review-flagged prediction with an
// operator-supplied terminal status.
func (l *Ledger) ResolveManual(gameID string, kind Kind, status Status) error {
	if !status.Terminal() {
		return ErrNotTerminal
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.preds[predKey{GameID: gameID, Kind: kind}]
	if !ok {
		return ErrUnknownPrediction
	}
	if !p.NeedsReview || p.Status.Terminal() {
		return ErrNotReviewable
	}
	l.settle(p, status)
	return nil
}

// Stats returns the incrementally maintained aggregate statistics.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyStats(l.stats)
}

// RecalculateStatistics recomputes the aggregates from the full prediction
// set. The cached copy must never diverge; if it somehow has, the cache is
// repaired and the divergence logged.
func (l *Ledger) RecalculateStatistics() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := newStats()
	for _, p := range l.preds {
		fresh.apply(p.Kind, p.Status, 1)
	}
	if !fresh.Equal(l.stats) {
		telemetry.Errorf("ledger: cached stats diverged from full recompute, repairing")
		l.stats = copyStats(fresh)
	}
	return copyStats(fresh)
}

// ForGame returns copies of all predictions referencing one game.
func (l *Ledger) ForGame(gameID string) []Prediction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Prediction
	for _, p := range l.preds {
		if p.GameID == gameID {
			out = append(out, *p)
		}
	}
	sortByCreation(out)
	return out
}

// All returns copies of every prediction, oldest first.
func (l *Ledger) All() []Prediction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Prediction, 0, len(l.preds))
	for _, p := range l.preds {
		out = append(out, *p)
	}
	sortByCreation(out)
	return out
}

// PendingGuard is the registry's window guard: window replacement is
// refused while any listed game still has an ungraded prediction that is
// not parked for manual review.
func (l *Ledger) PendingGuard(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make(map[string]bool, len(gameIDs))
	for _, id := range gameIDs {
		ids[id] = true
	}
	blocked := 0
	for _, p := range l.preds {
		if ids[p.GameID] && !p.Status.Terminal() && !p.NeedsReview {
			blocked++
		}
	}
	if blocked > 0 {
		return fmt.Errorf("%d prediction(s) still pending", blocked)
	}
	return nil
}

// DiscardForGames drops predictions tied to a discarded schedule window.
func (l *Ledger) DiscardForGames(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteForGames(gameIDs); err != nil {
		return err
	}
	ids := make(map[string]bool, len(gameIDs))
	for _, id := range gameIDs {
		ids[id] = true
	}
	for key, p := range l.preds {
		if !ids[p.GameID] {
			continue
		}
		if p.NeedsReview && !p.Status.Terminal() {
			telemetry.Warnf("ledger: discarding unresolved review prediction %s with its game", p.ID)
		}
		l.stats.apply(p.Kind, p.Status, -1)
		delete(l.preds, key)
	}
	return nil
}

func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.store.Close()
}

func copyStats(s Stats) Stats {
	out := Stats{Overall: s.Overall, ByKind: make(map[Kind]KindStats, len(s.ByKind))}
	for k, v := range s.ByKind {
		out.ByKind[k] = v
	}
	return out
}

func sortByCreation(ps []Prediction) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
