package reconcile

import (
	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/core/teams"
)

// MatchKind is the outcome of matching one external event against the
// tracked games.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchPartial
	MatchAmbiguous
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	case MatchAmbiguous:
		return "ambiguous"
	}
	return "none"
}

// Matcher resolves loosely-labeled external events to tracked game ids.
type Matcher struct {
	aliases map[string]string
}

func NewMatcher(aliases map[string]string) *Matcher {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Matcher{aliases: aliases}
}

// Match tries exact label equality first, then substring matching on both
// sides. Two or more partial candidates is ambiguous: the matcher picks
// none, because a silent wrong match is worse than a missed update.
// Match never creates games; unmatched events are the caller's to skip.
func (m *Matcher) Match(homeLabel, awayLabel string, pairs []registry.TeamPair) (string, MatchKind) {
	home := teams.Normalize(homeLabel, m.aliases)
	away := teams.Normalize(awayLabel, m.aliases)
	if home == "" || away == "" {
		return "", MatchNone
	}

	for _, p := range pairs {
		if teams.Normalize(p.HomeTeam, m.aliases) == home &&
			teams.Normalize(p.AwayTeam, m.aliases) == away {
			return p.ID, MatchExact
		}
	}

	var candidates []string
	for _, p := range pairs {
		if teams.FuzzyContains(teams.Normalize(p.HomeTeam, m.aliases), home) &&
			teams.FuzzyContains(teams.Normalize(p.AwayTeam, m.aliases), away) {
			candidates = append(candidates, p.ID)
		}
	}

	switch len(candidates) {
	case 0:
		return "", MatchNone
	case 1:
		return candidates[0], MatchPartial
	default:
		return "", MatchAmbiguous
	}
}
