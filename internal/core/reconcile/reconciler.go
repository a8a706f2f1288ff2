package reconcile

import (
	"context"
	"time"

	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

// Source supplies one scoreboard snapshot batch per poll.
type Source interface {
	FetchScoreboard(ctx context.Context) ([]events.ScoreboardEvent, error)
}

// PushBuffer hands over scoreboard events that arrived out-of-band (e.g.
// over a WebSocket) since the last cycle. Pushed events never mutate state
// on arrival; they are applied here, inside the single-flight cycle.
type PushBuffer interface {
	Drain() []events.ScoreboardEvent
}

// CycleReport summarizes one reconciliation cycle.
type CycleReport struct {
	Matched   int
	Unmatched int
	Ambiguous int
	Rejected  int // regressive-score rejections

	FinalizedIDs []string
	FetchErr     error
}

// Reconciler turns an external, loosely-identified batch of game events
// into matched updates against the registry. It owns no game state and
// never creates games.
type Reconciler struct {
	source  Source
	push    PushBuffer // nil when the push feed is disabled
	reg     *registry.Registry
	bus     *events.Bus
	matcher *Matcher

	fetchTimeout time.Duration
}

func New(source Source, push PushBuffer, reg *registry.Registry, bus *events.Bus, matcher *Matcher, fetchTimeout time.Duration) *Reconciler {
	return &Reconciler{
		source:       source,
		push:         push,
		reg:          reg,
		bus:          bus,
		matcher:      matcher,
		fetchTimeout: fetchTimeout,
	}
}

// RunCycle performs one poll-fetch-match-update pass. A fetch or parse
// failure means "no polled updates this cycle": it is logged and the
// registry is left untouched. All matched updates are applied before any
// finalization event is published, so the ledger never grades against a
// half-applied batch.
func (r *Reconciler) RunCycle(ctx context.Context) CycleReport {
	cycleStart := time.Now()
	telemetry.Metrics.CyclesRun.Inc()

	var batch []events.ScoreboardEvent
	if r.push != nil {
		batch = append(batch, r.push.Drain()...)
	}

	var report CycleReport

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	polled, err := r.source.FetchScoreboard(fetchCtx)
	cancel()
	telemetry.Metrics.FetchLatency.Record(time.Since(cycleStart))
	if err != nil {
		telemetry.Metrics.FetchErrors.Inc()
		telemetry.Warnf("reconcile: scoreboard fetch failed, no polled updates this cycle: %v", err)
		report.FetchErr = err
	} else {
		batch = append(batch, polled...)
	}

	pairs := r.reg.TeamPairs()

	for _, ev := range batch {
		id, kind := r.matcher.Match(ev.HomeTeam, ev.AwayTeam, pairs)
		switch kind {
		case MatchNone:
			report.Unmatched++
			telemetry.Metrics.EventsUnmatched.Inc()
			telemetry.Debugf("reconcile: skipped unmatched event %q at %q", ev.AwayTeam, ev.HomeTeam)
			continue
		case MatchAmbiguous:
			report.Ambiguous++
			telemetry.Metrics.EventsAmbiguous.Inc()
			telemetry.Warnf("reconcile: skipped ambiguous event %q at %q (multiple partial matches)", ev.AwayTeam, ev.HomeTeam)
			continue
		}

		report.Matched++
		telemetry.Metrics.EventsMatched.Inc()
		telemetry.Debugf("reconcile: %s match for %q at %q", kind, ev.AwayTeam, ev.HomeTeam)

		res, err := r.reg.UpsertFromExternal(id, registry.Snapshot{
			HomeScore:  ev.HomeScore,
			AwayScore:  ev.AwayScore,
			StatusText: ev.Status,
			Period:     ev.Period,
			Overtime:   ev.Overtime,
			Clock:      ev.Clock,
		})
		if err != nil {
			telemetry.Warnf("reconcile: upsert %s: %v", id, err)
			continue
		}
		if res.Outcome == registry.AppliedSoftOnly {
			report.Rejected++
		}
		if res.BecameFinal {
			report.FinalizedIDs = append(report.FinalizedIDs, id)
		}
	}

	r.reg.RecomputeAll()

	// Finalization hooks run only after the whole batch has been applied.
	for _, id := range report.FinalizedIDs {
		g, ok := r.reg.Get(id)
		if !ok {
			continue
		}
		r.bus.Publish(events.Event{
			Type:      events.EventGameFinalized,
			GameID:    id,
			Timestamp: time.Now(),
			Payload: events.GameFinalized{
				GameID:    id,
				HomeTeam:  g.HomeTeam,
				AwayTeam:  g.AwayTeam,
				HomeScore: g.HomeScore,
				AwayScore: g.AwayScore,
			},
		})
	}

	summary := events.CycleCompleted{
		Matched:   report.Matched,
		Unmatched: report.Unmatched,
		Ambiguous: report.Ambiguous,
		Rejected:  report.Rejected,
		Finalized: len(report.FinalizedIDs),
	}
	if report.FetchErr != nil {
		summary.FetchErr = report.FetchErr.Error()
	}
	r.bus.Publish(events.Event{
		Type:      events.EventCycleCompleted,
		Timestamp: time.Now(),
		Payload:   summary,
	})

	telemetry.Metrics.CycleLatency.Record(time.Since(cycleStart))
	telemetry.Infof("reconcile: cycle done matched=%d unmatched=%d ambiguous=%d rejected=%d finalized=%d",
		report.Matched, report.Unmatched, report.Ambiguous, report.Rejected, len(report.FinalizedIDs))
	return report
}
