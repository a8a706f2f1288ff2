package schedule

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/iby/nfl-gameday/internal/core/ledger"
	"github.com/iby/nfl-gameday/internal/core/registry"
)

// gameNamespace seeds deterministic game ids: the same window entry always
// produces the same id, so ledger rows keep pointing at the right game
// across restarts.
var gameNamespace = uuid.MustParse("5d2f4f83-9a1e-4b56-8c1f-6f3f0e6b9f41")

// Window is one loaded schedule window: the games to track plus any
// predictions declared alongside them.
type Window struct {
	Name  string
	Games []registry.Game
	Seeds []PredictionSeed
}

// PredictionSeed is a prediction declared in the window file. Seeding is
// idempotent — the ledger ignores seeds whose (game, kind) already exist.
type PredictionSeed struct {
	GameID     string
	Kind       ledger.Kind
	Pick       string
	Line       float64
	Confidence int
	Note       string
}

type windowFile struct {
	Window string     `yaml:"window"`
	Games  []gameFile `yaml:"games"`
}

type gameFile struct {
	Home            string     `yaml:"home"`
	Away            string     `yaml:"away"`
	Kickoff         time.Time  `yaml:"kickoff"`
	Venue           string     `yaml:"venue"`
	Broadcast       string     `yaml:"broadcast"`
	HomeBaselinePct float64    `yaml:"home_baseline_pct"`
	Predictions     []predFile `yaml:"predictions"`
}

type predFile struct {
	Kind       string  `yaml:"kind"`
	Pick       string  `yaml:"pick"`
	Line       float64 `yaml:"line"`
	Confidence int     `yaml:"confidence"`
	Note       string  `yaml:"note"`
}

// LoadWindow reads a schedule window file. Game identity comes from here
// and only here — the reconciler never creates games. A malformed file is
// an error the caller should treat as fatal at boot.
func LoadWindow(path string) (Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Window{}, fmt.Errorf("read schedule window: %w", err)
	}

	var wf windowFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return Window{}, fmt.Errorf("parse schedule window: %w", err)
	}
	if len(wf.Games) == 0 {
		return Window{}, fmt.Errorf("schedule window %s: no games", path)
	}

	w := Window{Name: wf.Window}
	for i, gf := range wf.Games {
		if gf.Home == "" || gf.Away == "" {
			return Window{}, fmt.Errorf("schedule window %s: game %d missing team labels", path, i)
		}

		id := gameID(wf.Window, gf)
		w.Games = append(w.Games, registry.Game{
			ID:              id,
			HomeTeam:        gf.Home,
			AwayTeam:        gf.Away,
			Kickoff:         gf.Kickoff,
			Venue:           gf.Venue,
			Broadcast:       gf.Broadcast,
			BaselineHomePct: gf.HomeBaselinePct,
		})

		for j, pf := range gf.Predictions {
			if pf.Kind == "" {
				return Window{}, fmt.Errorf("schedule window %s: game %d prediction %d missing kind", path, i, j)
			}
			w.Seeds = append(w.Seeds, PredictionSeed{
				GameID:     id,
				Kind:       ledger.Kind(pf.Kind),
				Pick:       pf.Pick,
				Line:       pf.Line,
				Confidence: pf.Confidence,
				Note:       pf.Note,
			})
		}
	}
	return w, nil
}

func gameID(window string, gf gameFile) string {
	key := fmt.Sprintf("%s|%s|%s|%d", window, gf.Home, gf.Away, gf.Kickoff.Unix())
	return uuid.NewSHA1(gameNamespace, []byte(key)).String()
}
