package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iby/nfl-gameday/internal/core/reconcile"
	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

// State is the scheduler's run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "RUNNING"
	}
	return "IDLE"
}

// CycleRunner runs one reconciliation cycle to completion.
type CycleRunner interface {
	RunCycle(ctx context.Context) reconcile.CycleReport
}

// Scheduler drives the reconciliation cadence. Cycles are single-flight:
// everything executes on the Run goroutine, so two cycles can never
// interleave their updates to shared game state. A manual trigger that
// arrives mid-cycle is queued (at most one) and coalesced.
type Scheduler struct {
	interval time.Duration
	runner   CycleRunner
	reg      *registry.Registry

	trigger  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	state       atomic.Int32
	lastCycle   atomic.Int64 // unix nanos of last completed cycle
	wentDormant bool
}

func New(runner CycleRunner, reg *registry.Registry, interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   runner,
		reg:      reg,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is cancelled. The first cycle
// runs immediately; after that the poll ticker drives cycles while the
// window still has unfinished games. Stopping never aborts a cycle in
// flight — it only prevents the next one from starting.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-s.trigger:
			s.cycle(ctx)
		case <-ticker.C:
			if s.windowDone() {
				if !s.wentDormant {
					s.wentDormant = true
					telemetry.Infof("sched: all games final, polling dormant until a new window loads")
				}
				continue
			}
			s.wentDormant = false
			s.cycle(ctx)
		}
	}
}

// TriggerNow requests an immediate cycle. Returns false when a manual run
// is already queued — the request coalesces into it. Works even when the
// window is all-final (an operator forcing a cycle always gets one).
func (s *Scheduler) TriggerNow() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop prevents any further cycles from being scheduled. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// State reports IDLE between cycles and RUNNING while one is in flight.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastCycle returns when the most recent cycle completed (zero time if none).
func (s *Scheduler) LastCycle() time.Time {
	n := s.lastCycle.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Scheduler) cycle(ctx context.Context) {
	s.state.Store(int32(StateRunning))
	s.runner.RunCycle(ctx)
	s.lastCycle.Store(time.Now().UnixNano())
	s.state.Store(int32(StateIdle))
}

// windowDone reports whether every tracked game is FINAL, which makes
// continued polling pointless. An empty registry also counts as done.
func (s *Scheduler) windowDone() bool {
	return len(s.reg.ListByState(registry.StateScheduled)) == 0 &&
		len(s.reg.ListByState(registry.StateLive)) == 0
}
