package scorefeed

import "testing"

func TestParseScoreboard(t *testing.T) {
	body := `{"events": [
		{"home_team": "Kansas City Chiefs", "away_team": "Buffalo Bills",
		 "home_score": 21, "away_score": "14", "status": "In Progress",
		 "period": "Q3", "clock": " 11:23 "},
		{"home_team": "Philadelphia Eagles", "away_team": "Dallas Cowboys",
		 "status": "Not Started"},
		{"home_team": "", "away_team": "Dallas Cowboys", "home_score": 3}
	]}`

	evs, err := ParseScoreboard([]byte(body))
	if err != nil {
		t.Fatalf("ParseScoreboard: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("want 2 events (label-less one dropped), got %d", len(evs))
	}

	e := evs[0]
	if e.HomeScore != 21 || e.AwayScore != 14 {
		t.Fatalf("scores %d-%d, want 21-14", e.HomeScore, e.AwayScore)
	}
	if e.Period != 3 || e.Overtime || e.Clock != "11:23" {
		t.Fatalf("period/clock %+v", e)
	}

	// Absent fields read as -1, never 0.
	e = evs[1]
	if e.HomeScore != -1 || e.AwayScore != -1 || e.Period != -1 {
		t.Fatalf("absent fields %+v", e)
	}
}

func TestParseScoreboardBadEnvelopeFailsBatch(t *testing.T) {
	if _, err := ParseScoreboard([]byte(`{"events": "nope"`)); err == nil {
		t.Fatal("expected envelope error")
	}
	if _, err := ParseScoreboard([]byte(`not json at all`)); err == nil {
		t.Fatal("expected envelope error")
	}
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent([]byte(`{"home_team": "Chiefs", "away_team": "Bills", "home_score": "7", "period": 5}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if e.HomeScore != 7 || e.AwayScore != -1 {
		t.Fatalf("scores %d-%d", e.HomeScore, e.AwayScore)
	}
	if e.Period != 5 || !e.Overtime {
		t.Fatalf("period %d overtime=%v, want 5 true", e.Period, e.Overtime)
	}

	if _, err := ParseEvent([]byte(`{"home_team": "Chiefs"}`)); err == nil {
		t.Fatal("expected error for missing away label")
	}
	if _, err := ParseEvent([]byte(`{`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `14`, 14},
		{"numeric string", `"14"`, 14},
		{"padded string", `" 7 "`, 7},
		{"zero", `0`, 0},
		{"negative means absent", `-3`, -1},
		{"null", `null`, -1},
		{"absent", ``, -1},
		{"garbage", `"tbd"`, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(tt.raw)
			if tt.raw == "" {
				raw = nil
			}
			if got := parseScore(raw); got != tt.want {
				t.Errorf("parseScore(%s) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     int
		overtime bool
	}{
		{"number", `3`, 3, false},
		{"numeric string", `"3"`, 3, false},
		{"quarter prefix", `"Q2"`, 2, false},
		{"ot marker", `"OT"`, 5, true},
		{"spelled out", `"Overtime"`, 5, true},
		{"fifth period", `5`, 5, true},
		{"null", `null`, -1, false},
		{"absent", ``, -1, false},
		{"garbage", `"halftime"`, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(tt.raw)
			if tt.raw == "" {
				raw = nil
			}
			got, overtime := parsePeriod(raw)
			if got != tt.want || overtime != tt.overtime {
				t.Errorf("parsePeriod(%s) = (%d, %v), want (%d, %v)", tt.raw, got, overtime, tt.want, tt.overtime)
			}
		})
	}
}
