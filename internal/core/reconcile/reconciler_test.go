package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/core/teams"
	"github.com/iby/nfl-gameday/internal/events"
)

type fakeSource struct {
	evs []events.ScoreboardEvent
	err error
}

func (f *fakeSource) FetchScoreboard(context.Context) ([]events.ScoreboardEvent, error) {
	return f.evs, f.err
}

type fakePush struct {
	evs []events.ScoreboardEvent
}

func (f *fakePush) Drain() []events.ScoreboardEvent {
	out := f.evs
	f.evs = nil
	return out
}

func testRegistry(t *testing.T, games ...registry.Game) *registry.Registry {
	t.Helper()
	r := registry.New()
	if err := r.ReplaceWindow(games); err != nil {
		t.Fatalf("ReplaceWindow: %v", err)
	}
	return r
}

func newReconciler(src Source, push PushBuffer, reg *registry.Registry, bus *events.Bus) *Reconciler {
	return New(src, push, reg, bus, NewMatcher(teams.NFLAliases), time.Second)
}

func TestRunCyclePartialMatchGoesLive(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	src := &fakeSource{evs: []events.ScoreboardEvent{{
		HomeTeam: "Chiefs", AwayTeam: "Bills",
		HomeScore: 7, AwayScore: 0,
		Status: "In Progress", Period: 1, Clock: "9:40",
	}}}
	rec := newReconciler(src, nil, reg, events.NewBus())

	report := rec.RunCycle(context.Background())
	if report.Matched != 1 || report.Unmatched != 0 {
		t.Fatalf("report %+v", report)
	}

	g, _ := reg.Get("g1")
	if g.State != registry.StateLive || g.HomeScore != 7 || g.AwayScore != 0 {
		t.Fatalf("want LIVE 7-0, got %v %d-%d", g.State, g.HomeScore, g.AwayScore)
	}
}

func TestFetchErrorLeavesRegistryUntouched(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	src := &fakeSource{err: errors.New("connection refused")}
	rec := newReconciler(src, nil, reg, events.NewBus())

	report := rec.RunCycle(context.Background())
	if report.FetchErr == nil {
		t.Fatal("expected FetchErr")
	}
	g, _ := reg.Get("g1")
	if g.State != registry.StateScheduled || g.HomeScore != 0 {
		t.Fatalf("failed fetch mutated registry: %+v", g)
	}
}

func TestAmbiguousEventMutatesNothing(t *testing.T) {
	reg := testRegistry(t,
		registry.Game{ID: "g1", HomeTeam: "New York Giants", AwayTeam: "Green Bay Packers"},
		registry.Game{ID: "g2", HomeTeam: "New York Jets", AwayTeam: "Green Bay Packers"},
	)
	src := &fakeSource{evs: []events.ScoreboardEvent{{
		HomeTeam: "New York", AwayTeam: "Green Bay Packers",
		HomeScore: 14, AwayScore: 7, Status: "In Progress",
	}}}
	rec := newReconciler(src, nil, reg, events.NewBus())

	report := rec.RunCycle(context.Background())
	if report.Ambiguous != 1 || report.Matched != 0 {
		t.Fatalf("report %+v", report)
	}
	for _, id := range []string{"g1", "g2"} {
		g, _ := reg.Get(id)
		if g.State != registry.StateScheduled || g.HomeScore != 0 || g.AwayScore != 0 {
			t.Fatalf("ambiguous event mutated %s: %+v", id, g)
		}
	}
}

func TestUnmatchedEventNeverCreatesGame(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	src := &fakeSource{evs: []events.ScoreboardEvent{{
		HomeTeam: "Chicago Bears", AwayTeam: "Detroit Lions",
		HomeScore: 3, AwayScore: 0, Status: "In Progress",
	}}}
	rec := newReconciler(src, nil, reg, events.NewBus())

	report := rec.RunCycle(context.Background())
	if report.Unmatched != 1 {
		t.Fatalf("report %+v", report)
	}
	if got := len(reg.All()); got != 1 {
		t.Fatalf("reconciler created a game: %d tracked", got)
	}
}

// Finalization events must fire only after the whole batch has been
// applied: a subscriber must never observe a sibling game mid-update.
func TestFinalizationRunsAfterFullBatch(t *testing.T) {
	reg := testRegistry(t,
		registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"},
		registry.Game{ID: "g2", HomeTeam: "Philadelphia Eagles", AwayTeam: "Dallas Cowboys"},
	)
	src := &fakeSource{evs: []events.ScoreboardEvent{
		{HomeTeam: "Chiefs", AwayTeam: "Bills", HomeScore: 24, AwayScore: 14, Status: "Final"},
		{HomeTeam: "Eagles", AwayTeam: "Cowboys", HomeScore: 17, AwayScore: 20, Status: "Final"},
	}}

	bus := events.NewBus()
	var published []string
	bus.Subscribe(events.EventGameFinalized, func(e events.Event) error {
		// Both games must already be FINAL when the first hook runs.
		if got := len(reg.ListByState(registry.StateFinal)); got != 2 {
			t.Errorf("finalization hook saw %d FINAL games, want 2", got)
		}
		published = append(published, e.GameID)
		return nil
	})

	rec := newReconciler(src, nil, reg, bus)
	report := rec.RunCycle(context.Background())
	if len(report.FinalizedIDs) != 2 || len(published) != 2 {
		t.Fatalf("finalized=%v published=%v", report.FinalizedIDs, published)
	}
}

// A game already FINAL must not re-publish its finalization on later cycles.
func TestFinalizationFiresOnce(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	src := &fakeSource{evs: []events.ScoreboardEvent{{
		HomeTeam: "Chiefs", AwayTeam: "Bills", HomeScore: 24, AwayScore: 14, Status: "Final",
	}}}

	bus := events.NewBus()
	fired := 0
	bus.Subscribe(events.EventGameFinalized, func(events.Event) error {
		fired++
		return nil
	})

	rec := newReconciler(src, nil, reg, bus)
	rec.RunCycle(context.Background())
	rec.RunCycle(context.Background())
	if fired != 1 {
		t.Fatalf("finalization fired %d times, want 1", fired)
	}
}

func TestPushedEventsApplyInsideCycle(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	push := &fakePush{evs: []events.ScoreboardEvent{{
		HomeTeam: "Chiefs", AwayTeam: "Bills",
		HomeScore: 3, AwayScore: 0, Status: "In Progress", Period: 1,
	}}}
	rec := newReconciler(&fakeSource{}, push, reg, events.NewBus())

	// Buffered push data must not have touched the registry yet.
	if g, _ := reg.Get("g1"); g.State != registry.StateScheduled {
		t.Fatalf("push mutated registry outside a cycle: %v", g.State)
	}

	report := rec.RunCycle(context.Background())
	if report.Matched != 1 {
		t.Fatalf("report %+v", report)
	}
	g, _ := reg.Get("g1")
	if g.State != registry.StateLive || g.HomeScore != 3 {
		t.Fatalf("pushed event not applied: %v %d-%d", g.State, g.HomeScore, g.AwayScore)
	}
}

func TestRegressiveScoreCountedAsRejected(t *testing.T) {
	reg := testRegistry(t, registry.Game{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills"})
	bus := events.NewBus()

	src := &fakeSource{evs: []events.ScoreboardEvent{{
		HomeTeam: "Chiefs", AwayTeam: "Bills", HomeScore: 21, AwayScore: 14, Status: "In Progress",
	}}}
	rec := newReconciler(src, nil, reg, bus)
	rec.RunCycle(context.Background())

	src.evs = []events.ScoreboardEvent{{
		HomeTeam: "Chiefs", AwayTeam: "Bills", HomeScore: 14, AwayScore: 14, Status: "In Progress",
	}}
	report := rec.RunCycle(context.Background())
	if report.Rejected != 1 {
		t.Fatalf("report %+v", report)
	}
	g, _ := reg.Get("g1")
	if g.HomeScore != 21 || g.AwayScore != 14 {
		t.Fatalf("score regressed: %d-%d", g.HomeScore, g.AwayScore)
	}
}
