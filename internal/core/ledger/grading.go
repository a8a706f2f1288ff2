package ledger

import (
	"strings"

	"github.com/iby/nfl-gameday/internal/core/teams"
)

// FinalScore is the frozen outcome a prediction is graded against.
type FinalScore struct {
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
}

// GradeFunc resolves one prediction against a final score. ok=false means
// the rule could not grade the payload; the prediction is left PENDING and
// flagged for manual review rather than guessed.
type GradeFunc func(p Prediction, fs FinalScore) (Status, bool)

// builtinRules returns the grading rules every ledger starts with.
// Additional kinds register through Ledger.RegisterRule.
func builtinRules(aliases map[string]string) map[Kind]GradeFunc {
	return map[Kind]GradeFunc{
		KindMoneyline: gradeMoneyline(aliases),
		KindOverUnder: gradeOverUnder,
	}
}

// gradeMoneyline: WIN only if the picked team's score is strictly greater.
// A tie is a LOSS for the picked side — moneyline has no push here.
func gradeMoneyline(aliases map[string]string) GradeFunc {
	return func(p Prediction, fs FinalScore) (Status, bool) {
		pick := teams.Normalize(p.Pick, aliases)
		home := teams.Normalize(fs.HomeTeam, aliases)
		away := teams.Normalize(fs.AwayTeam, aliases)

		homeMatch := teams.FuzzyContains(home, pick)
		awayMatch := teams.FuzzyContains(away, pick)

		var picked, opponent int
		switch {
		case homeMatch && awayMatch:
			// Pick names both participants; guessing a side is worse than
			// parking it for review.
			return StatusPending, false
		case homeMatch:
			picked, opponent = fs.HomeScore, fs.AwayScore
		case awayMatch:
			picked, opponent = fs.AwayScore, fs.HomeScore
		default:
			// Pick names neither participant; nothing sane to grade.
			return StatusPending, false
		}

		if picked > opponent {
			return StatusWin, true
		}
		return StatusLoss, true
	}
}

// gradeOverUnder compares home+away total against the stated line.
// Landing exactly on the line is a PUSH for either side.
func gradeOverUnder(p Prediction, fs FinalScore) (Status, bool) {
	total := float64(fs.HomeScore + fs.AwayScore)

	switch strings.ToLower(strings.TrimSpace(p.Pick)) {
	case "over":
		switch {
		case total > p.Line:
			return StatusWin, true
		case total < p.Line:
			return StatusLoss, true
		}
		return StatusPush, true
	case "under":
		switch {
		case total < p.Line:
			return StatusWin, true
		case total > p.Line:
			return StatusLoss, true
		}
		return StatusPush, true
	}
	return StatusPending, false
}
