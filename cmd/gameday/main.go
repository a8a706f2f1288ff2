package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iby/nfl-gameday/internal/adapters/inbound/scorefeed_ws"
	"github.com/iby/nfl-gameday/internal/adapters/outbound/scorefeed"
	"github.com/iby/nfl-gameday/internal/config"
	"github.com/iby/nfl-gameday/internal/core/ledger"
	"github.com/iby/nfl-gameday/internal/core/reconcile"
	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/core/sched"
	"github.com/iby/nfl-gameday/internal/core/teams"
	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/schedule"
	"github.com/iby/nfl-gameday/internal/server"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting gameday process")

	bus := events.NewBus()
	reg := registry.New()

	// ── Prediction ledger ──────────────────────────────────────
	led, err := ledger.Open(cfg.LedgerPath, teams.NFLAliases)
	if err != nil {
		// A ledger that cannot be read cleanly is fatal: grading identity
		// would be lost and predictions could be double-created.
		telemetry.Errorf("ledger: %v", err)
		os.Exit(1)
	}
	defer led.Close()

	reg.SetWindowGuard(led.PendingGuard)
	bus.Subscribe(events.EventGameFinalized, led.HandleGameFinalized)

	// ── Schedule window ────────────────────────────────────────
	window, err := schedule.LoadWindow(cfg.SchedulePath)
	if err != nil {
		telemetry.Errorf("schedule: %v", err)
		os.Exit(1)
	}
	if err := reg.ReplaceWindow(window.Games); err != nil {
		telemetry.Errorf("schedule: %v", err)
		os.Exit(1)
	}
	for _, seed := range window.Seeds {
		if _, _, err := led.Create(seed.GameID, seed.Kind, seed.Pick, seed.Line, seed.Confidence, seed.Note); err != nil {
			telemetry.Warnf("seed prediction for game %s: %v", seed.GameID, err)
		}
	}
	telemetry.Infof("window %q: %d games, %d seeded predictions",
		window.Name, len(window.Games), len(window.Seeds))

	// ── Feed adapters ──────────────────────────────────────────
	feedClient := scorefeed.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey)

	var push reconcile.PushBuffer
	var wsClient *scorefeed_ws.Client
	if cfg.FeedWSEnabled && cfg.FeedWSURL != "" {
		wsClient = scorefeed_ws.NewClient(cfg.FeedWSURL)
		push = wsClient
	}

	// ── Reconciler + scheduler ─────────────────────────────────
	matcher := reconcile.NewMatcher(teams.NFLAliases)
	recon := reconcile.New(feedClient, push, reg, bus, matcher, cfg.FetchTimeout)
	scheduler := sched.New(recon, reg, cfg.PollInterval)

	// ── Operator surface ───────────────────────────────────────
	handler := server.NewHandler(scheduler, reg, led)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(ctx)
	})
	if wsClient != nil {
		g.Go(func() error {
			wsClient.ConnectWithRetry(ctx)
			return nil
		})
	}
	g.Go(func() error {
		telemetry.Infof("operator surface listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		telemetry.Errorf("shutdown: %v", err)
	}

	m := &telemetry.Metrics
	telemetry.Infof("shutdown complete  cycles=%d matched=%d rejected=%d finalized=%d graded=%d",
		m.CyclesRun.Value(), m.EventsMatched.Value(), m.ScoreRejections.Value(),
		m.GamesFinalized.Value(), m.PredictionsGraded.Value())
}
