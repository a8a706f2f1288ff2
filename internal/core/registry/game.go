package registry

import (
	"strings"
	"time"
)

// State is a game's lifecycle state. Exactly one holds at any time and
// the lifecycle only moves forward: SCHEDULED → LIVE → FINAL.
type State int

const (
	StateScheduled State = iota
	StateLive
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "SCHEDULED"
	case StateLive:
		return "LIVE"
	case StateFinal:
		return "FINAL"
	}
	return "UNKNOWN"
}

// Game is a single tracked contest. Identity and scheduling metadata are
// set once at window load; the scoreboard fields mutate only through
// Registry.UpsertFromExternal.
type Game struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	Kickoff   time.Time
	Venue     string
	Broadcast string

	HomeScore int
	AwayScore int
	Period    int // 1–4, 5 for overtime
	Overtime  bool
	Clock     string
	State     State

	// Derived display fields, recomputed every cycle for non-FINAL games.
	HomeWinPct float64
	AwayWinPct float64
	Confidence string

	// Pre-game baseline split for the home side, from the schedule window.
	BaselineHomePct float64

	UpdatedAt time.Time
}

// Snapshot is one external event's mutable fields, already matched to a
// tracked game. Negative scores/period and empty clock mean "absent in the
// feed" and keep the last-known value; status text always classifies.
type Snapshot struct {
	HomeScore  int
	AwayScore  int
	StatusText string
	Period     int
	Overtime   bool
	Clock      string
}

// ClassifyStatus maps the feed's free-text status onto a lifecycle state.
// Completion markers are checked first so "Final/OT" never reads as live.
func ClassifyStatus(text string) State {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, m := range []string{"final", "finished", "ended"} {
		if strings.Contains(s, m) {
			return StateFinal
		}
	}
	for _, m := range []string{"progress", "live", "half", "quarter", "overtime"} {
		if strings.Contains(s, m) {
			return StateLive
		}
	}
	return StateScheduled
}
