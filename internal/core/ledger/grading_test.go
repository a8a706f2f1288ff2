package ledger

import (
	"testing"

	"github.com/iby/nfl-gameday/internal/core/teams"
)

func TestGradeMoneyline(t *testing.T) {
	rule := gradeMoneyline(teams.NFLAliases)
	fs := FinalScore{HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 24, AwayScore: 14}

	tests := []struct {
		name   string
		pick   string
		fs     FinalScore
		want   Status
		wantOK bool
	}{
		{"picked home wins", "Kansas City Chiefs", fs, StatusWin, true},
		{"picked away loses", "Buffalo Bills", fs, StatusLoss, true},
		{"short-name pick", "Chiefs", fs, StatusWin, true},
		{"alias pick", "KC", fs, StatusWin, true},
		{"tie is a loss for the pick", "Chiefs",
			FinalScore{HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 20, AwayScore: 20},
			StatusLoss, true},
		{"pick names neither team", "Denver Broncos", fs, StatusPending, false},
		{"pick names both teams", "New York",
			FinalScore{HomeTeam: "New York Giants", AwayTeam: "New York Jets", HomeScore: 21, AwayScore: 17},
			StatusPending, false},
		{"empty pick", "", fs, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rule(Prediction{Pick: tt.pick}, tt.fs)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("grade(%q) = (%v, %v), want (%v, %v)", tt.pick, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGradeOverUnder(t *testing.T) {
	tests := []struct {
		name       string
		pick       string
		line       float64
		home, away int
		want       Status
		wantOK     bool
	}{
		{"over hits", "over", 48.5, 28, 21, StatusWin, true},
		{"over misses", "over", 48.5, 20, 17, StatusLoss, true},
		{"under hits", "under", 48.5, 20, 17, StatusWin, true},
		{"under misses", "under", 48.5, 28, 21, StatusLoss, true},
		{"exact line is a push for over", "over", 44, 24, 20, StatusPush, true},
		{"exact line is a push for under", "under", 44, 24, 20, StatusPush, true},
		{"pick casing tolerated", "  Over ", 40, 28, 21, StatusWin, true},
		{"unintelligible pick", "total", 48.5, 28, 21, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Prediction{Pick: tt.pick, Line: tt.line}
			fs := FinalScore{HomeScore: tt.home, AwayScore: tt.away}
			got, ok := gradeOverUnder(p, fs)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("grade(%q, %v, %d-%d) = (%v, %v), want (%v, %v)",
					tt.pick, tt.line, tt.home, tt.away, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
