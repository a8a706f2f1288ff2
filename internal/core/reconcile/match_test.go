package reconcile

import (
	"testing"

	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/core/teams"
)

func TestMatch(t *testing.T) {
	pairs := []registry.TeamPair{
		{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"},
		{ID: "g2", HomeTeam: "Philadelphia Eagles", AwayTeam: "Dallas Cowboys"},
	}
	m := NewMatcher(teams.NFLAliases)

	tests := []struct {
		name       string
		home, away string
		wantID     string
		wantKind   MatchKind
	}{
		{"exact full names", "Kansas City Chiefs", "Buffalo Bills", "g1", MatchExact},
		{"exact case-insensitive", "kansas city CHIEFS", "buffalo bills", "g1", MatchExact},
		{"partial short names", "Chiefs", "Bills", "g1", MatchPartial},
		{"partial mixed", "Philadelphia Eagles", "Cowboys", "g2", MatchPartial},
		{"abbreviation via alias", "KC", "BUF", "g1", MatchExact},
		{"swapped sides do not match", "Buffalo Bills", "Kansas City Chiefs", "", MatchNone},
		{"unknown teams", "Chicago Bears", "Detroit Lions", "", MatchNone},
		{"empty labels", "", "Bills", "", MatchNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, kind := m.Match(tt.home, tt.away, pairs)
			if id != tt.wantID || kind != tt.wantKind {
				t.Errorf("Match(%q, %q) = (%q, %v), want (%q, %v)",
					tt.home, tt.away, id, kind, tt.wantID, tt.wantKind)
			}
		})
	}
}

// Two near-duplicate team labels must make a partial match ambiguous:
// guessing is worse than missing an update.
func TestMatchAmbiguous(t *testing.T) {
	pairs := []registry.TeamPair{
		{ID: "g1", HomeTeam: "New York Giants", AwayTeam: "Green Bay Packers"},
		{ID: "g2", HomeTeam: "New York Jets", AwayTeam: "Green Bay Packers"},
	}
	m := NewMatcher(nil)

	id, kind := m.Match("New York", "Green Bay Packers", pairs)
	if kind != MatchAmbiguous || id != "" {
		t.Fatalf("Match = (%q, %v), want (\"\", ambiguous)", id, kind)
	}
}

// An exact match must win even when other games would match partially.
func TestMatchExactBeatsPartial(t *testing.T) {
	pairs := []registry.TeamPair{
		{ID: "g1", HomeTeam: "New York Giants", AwayTeam: "Dallas Cowboys"},
		{ID: "g2", HomeTeam: "New York Jets", AwayTeam: "Dallas Cowboys"},
	}
	m := NewMatcher(nil)

	id, kind := m.Match("New York Jets", "Dallas Cowboys", pairs)
	if id != "g2" || kind != MatchExact {
		t.Fatalf("Match = (%q, %v), want (g2, exact)", id, kind)
	}
}
