package events

// ScoreboardEvent is one game's snapshot as reported by an external feed,
// before matching. Identity is loose: team labels are whatever the feed
// sends (full name, short name, abbreviation). A score or period of -1 and
// an empty clock mean the feed omitted the field.
type ScoreboardEvent struct {
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status"`
	Period    int    `json:"period"`
	Overtime  bool   `json:"overtime"`
	Clock     string `json:"clock"`
}

// GameFinalized carries the frozen final score of a game. Published by the
// reconciliation cycle after the whole batch has been applied, so the ledger
// never grades against a half-updated registry.
type GameFinalized struct {
	GameID    string `json:"game_id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// CycleCompleted summarizes one reconciliation cycle.
type CycleCompleted struct {
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Ambiguous int    `json:"ambiguous"`
	Rejected  int    `json:"rejected"`
	Finalized int    `json:"finalized"`
	FetchErr  string `json:"fetch_err,omitempty"`
}
