package scorefeed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

// The feed nests each game under an "event" object. Scores and periods
// arrive as numbers or strings depending on the upstream's mood, and any
// field can be absent mid-game.
type feedEnvelope struct {
	Events []feedEvent `json:"events"`
}

type feedEvent struct {
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	HomeScore json.RawMessage `json:"home_score"`
	AwayScore json.RawMessage `json:"away_score"`
	Status    string          `json:"status"`
	Period    json.RawMessage `json:"period"`
	Clock     string          `json:"clock"`
}

// ParseScoreboard decodes a scoreboard batch. An unreadable envelope fails
// the batch; a single malformed event is logged and dropped so the rest of
// the batch still applies.
func ParseScoreboard(body []byte) ([]events.ScoreboardEvent, error) {
	var env feedEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("scorefeed parse: %w", err)
	}

	out := make([]events.ScoreboardEvent, 0, len(env.Events))
	for _, fe := range env.Events {
		if fe.HomeTeam == "" || fe.AwayTeam == "" {
			telemetry.Warnf("scorefeed: dropping event with missing team labels")
			continue
		}
		period, overtime := parsePeriod(fe.Period)
		out = append(out, events.ScoreboardEvent{
			HomeTeam:  fe.HomeTeam,
			AwayTeam:  fe.AwayTeam,
			HomeScore: parseScore(fe.HomeScore),
			AwayScore: parseScore(fe.AwayScore),
			Status:    fe.Status,
			Period:    period,
			Overtime:  overtime,
			Clock:     strings.TrimSpace(fe.Clock),
		})
	}
	return out, nil
}

// ParseEvent decodes a single pushed event using the same tolerant field
// handling as the polled batch.
func ParseEvent(body []byte) (events.ScoreboardEvent, error) {
	var fe feedEvent
	if err := json.Unmarshal(body, &fe); err != nil {
		return events.ScoreboardEvent{}, fmt.Errorf("scorefeed parse event: %w", err)
	}
	if fe.HomeTeam == "" || fe.AwayTeam == "" {
		return events.ScoreboardEvent{}, fmt.Errorf("scorefeed event: missing team labels")
	}
	period, overtime := parsePeriod(fe.Period)
	return events.ScoreboardEvent{
		HomeTeam:  fe.HomeTeam,
		AwayTeam:  fe.AwayTeam,
		HomeScore: parseScore(fe.HomeScore),
		AwayScore: parseScore(fe.AwayScore),
		Status:    fe.Status,
		Period:    period,
		Overtime:  overtime,
		Clock:     strings.TrimSpace(fe.Clock),
	}, nil
}

// parseScore accepts a number or a numeric string; anything else (or an
// absent field) is -1, meaning "keep the last-known value".
func parseScore(raw json.RawMessage) int {
	n, ok := flexInt(raw)
	if !ok || n < 0 {
		return -1
	}
	return n
}

// parsePeriod accepts 3, "3", "Q3", or an overtime marker ("OT", "5").
// Periods past the 4th count as overtime.
func parsePeriod(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return -1, false
	}

	if n, ok := flexInt(raw); ok {
		return n, n > 4
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return -1, false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(s, "OT") || strings.Contains(s, "OVERTIME") {
		return 5, true
	}
	s = strings.TrimPrefix(s, "Q")
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 4
	}
	return -1, false
}

// flexInt decodes a JSON number or numeric string.
func flexInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}
