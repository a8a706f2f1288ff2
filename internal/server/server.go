package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/iby/nfl-gameday/internal/core/ledger"
	"github.com/iby/nfl-gameday/internal/core/registry"
	"github.com/iby/nfl-gameday/internal/core/sched"
)

// Handler is the operator-facing surface: a manual reconciliation trigger
// plus read-only inspection of the registry and ledger. It never mutates
// game state directly — the trigger is a pass-through to the scheduler.
type Handler struct {
	sched *sched.Scheduler
	reg   *registry.Registry
	led   *ledger.Ledger
}

func NewHandler(s *sched.Scheduler, reg *registry.Registry, led *ledger.Ledger) *Handler {
	return &Handler{sched: s, reg: reg, led: led}
}

// Router builds the chi router for the operator surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Post("/api/refresh", h.refresh)
	r.Get("/api/stats", h.stats)
	r.Get("/api/games", h.games)
	r.Get("/api/predictions", h.predictions)
	r.Post("/api/predictions", h.createPrediction)
	r.Post("/api/predictions/resolve", h.resolvePrediction)
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"scheduler": h.sched.State().String(),
	})
}

// refresh forces one reconciliation cycle. Concurrent requests coalesce
// into at most one queued run.
func (h *Handler) refresh(w http.ResponseWriter, _ *http.Request) {
	queued := h.sched.TriggerNow()
	respondJSON(w, http.StatusAccepted, map[string]any{
		"queued":    queued,
		"coalesced": !queued,
	})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	stats := h.led.RecalculateStatistics()

	lastCycle := "never"
	if t := h.sched.LastCycle(); !t.IsZero() {
		lastCycle = humanize.Time(t)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"stats":      stats,
		"last_cycle": lastCycle,
		"scheduler":  h.sched.State().String(),
	})
}

type gameView struct {
	ID         string  `json:"id"`
	HomeTeam   string  `json:"home_team"`
	AwayTeam   string  `json:"away_team"`
	HomeScore  int     `json:"home_score"`
	AwayScore  int     `json:"away_score"`
	Period     int     `json:"period,omitempty"`
	Overtime   bool    `json:"overtime,omitempty"`
	Clock      string  `json:"clock,omitempty"`
	State      string  `json:"state"`
	HomeWinPct float64 `json:"home_win_pct"`
	AwayWinPct float64 `json:"away_win_pct"`
	Confidence string  `json:"confidence"`
	Kickoff    string  `json:"kickoff"`
	Venue      string  `json:"venue,omitempty"`
	Broadcast  string  `json:"broadcast,omitempty"`
}

func (h *Handler) games(w http.ResponseWriter, _ *http.Request) {
	games := h.reg.All()
	out := make([]gameView, 0, len(games))
	for _, g := range games {
		out = append(out, gameView{
			ID:         g.ID,
			HomeTeam:   g.HomeTeam,
			AwayTeam:   g.AwayTeam,
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
			Period:     g.Period,
			Overtime:   g.Overtime,
			Clock:      g.Clock,
			State:      g.State.String(),
			HomeWinPct: g.HomeWinPct,
			AwayWinPct: g.AwayWinPct,
			Confidence: g.Confidence,
			Kickoff:    g.Kickoff.Format(time.RFC3339),
			Venue:      g.Venue,
			Broadcast:  g.Broadcast,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) predictions(w http.ResponseWriter, r *http.Request) {
	if gameID := r.URL.Query().Get("game_id"); gameID != "" {
		respondJSON(w, http.StatusOK, h.led.ForGame(gameID))
		return
	}
	respondJSON(w, http.StatusOK, h.led.All())
}

type createPredictionRequest struct {
	GameID     string  `json:"game_id"`
	Kind       string  `json:"kind"`
	Pick       string  `json:"pick"`
	Line       float64 `json:"line"`
	Confidence int     `json:"confidence"`
	Note       string  `json:"note"`
}

func (h *Handler) createPrediction(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.GameID == "" || req.Kind == "" {
		respondError(w, http.StatusBadRequest, "game_id and kind are required")
		return
	}
	if _, ok := h.reg.Get(req.GameID); !ok {
		respondError(w, http.StatusNotFound, "unknown game")
		return
	}

	p, created, err := h.led.Create(req.GameID, ledger.Kind(req.Kind), req.Pick, req.Line, req.Confidence, req.Note)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK // idempotent no-op
	}
	respondJSON(w, status, p)
}

type resolvePredictionRequest struct {
	GameID string `json:"game_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// resolvePrediction settles a review-flagged prediction by hand.
func (h *Handler) resolvePrediction(w http.ResponseWriter, r *http.Request) {
	var req resolvePredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	err := h.led.ResolveManual(req.GameID, ledger.Kind(req.Kind), ledger.Status(req.Status))
	switch err {
	case nil:
		respondJSON(w, http.StatusOK, map[string]string{"result": "resolved"})
	case ledger.ErrUnknownPrediction:
		respondError(w, http.StatusNotFound, err.Error())
	case ledger.ErrNotReviewable, ledger.ErrNotTerminal:
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
