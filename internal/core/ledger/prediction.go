package ledger

import "time"

// Kind names a prediction category. The set is open: new kinds only need
// a grading rule registered for them.
type Kind string

const (
	KindMoneyline  Kind = "moneyline"
	KindOverUnder  Kind = "over_under"
	KindPlayerProp Kind = "player_prop"
)

// Status is a prediction's grading state. PENDING at creation, terminal
// once graded, never re-graded.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusWin     Status = "WIN"
	StatusLoss    Status = "LOSS"
	StatusPush    Status = "PUSH"
)

// Terminal reports whether a status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusWin || s == StatusLoss || s == StatusPush
}

// Prediction is a single graded claim about a game. Identity is
// (GameID, Kind), so re-creating the same claim is a no-op.
type Prediction struct {
	ID     string `json:"id"`
	GameID string `json:"game_id"`
	Kind   Kind   `json:"kind"`

	// Pick is the specific claim: a team label for moneyline, "over" or
	// "under" for totals, free-form for prop kinds.
	Pick       string  `json:"pick"`
	Line       float64 `json:"line,omitempty"`
	Confidence int     `json:"confidence"`
	Note       string  `json:"note,omitempty"`

	Status Status `json:"status"`

	// NeedsReview marks a prediction whose kind had no grading rule (or
	// whose payload could not be resolved) when its game finalized. It
	// stays PENDING and is surfaced for manual resolution, never guessed.
	NeedsReview bool `json:"needs_review,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	GradedAt  time.Time `json:"graded_at,omitzero"`
}

// KindStats is the win/loss tally for one kind (or the whole ledger).
// Win rate excludes pushes and pending from the denominator.
type KindStats struct {
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pushes  int     `json:"pushes"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"win_rate"`
}

func (k *KindStats) addStatus(s Status, delta int) {
	switch s {
	case StatusWin:
		k.Wins += delta
	case StatusLoss:
		k.Losses += delta
	case StatusPush:
		k.Pushes += delta
	case StatusPending:
		k.Pending += delta
	}
	if denom := k.Wins + k.Losses; denom > 0 {
		k.WinRate = float64(k.Wins) / float64(denom)
	} else {
		k.WinRate = 0
	}
}

// Stats aggregates the whole ledger and each kind.
type Stats struct {
	Overall KindStats          `json:"overall"`
	ByKind  map[Kind]KindStats `json:"by_kind"`
}

func newStats() Stats {
	return Stats{ByKind: make(map[Kind]KindStats)}
}

func (s *Stats) apply(kind Kind, status Status, delta int) {
	s.Overall.addStatus(status, delta)
	ks := s.ByKind[kind]
	ks.addStatus(status, delta)
	// A kind whose last prediction was discarded must vanish from the map,
	// or the cache would never match a fresh scan again.
	if ks == (KindStats{}) {
		delete(s.ByKind, kind)
		return
	}
	s.ByKind[kind] = ks
}

// Equal compares two stats values field by field.
func (s Stats) Equal(o Stats) bool {
	if s.Overall != o.Overall || len(s.ByKind) != len(o.ByKind) {
		return false
	}
	for k, v := range s.ByKind {
		if o.ByKind[k] != v {
			return false
		}
	}
	return true
}
