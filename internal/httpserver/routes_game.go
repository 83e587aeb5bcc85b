// internal/httpserver/routes_game.go
//
// HTTP routes for the daily formation game.
// Exposes endpoints under /game plus /stats:
//   - POST /game/start     → start or resume today's session
//   - POST /game/submit    → submit a player name for the current country
//   - POST /game/choose    → complete a pending position choice
//   - POST /game/surrender → give up today's game (requires confirm flag)
//   - GET  /game/state     → current session view
//   - GET  /stats          → lifetime stats + weekly histogram + daily tally
//   - GET  /debug/roster   → loaded reference data counts
//
// Game rejections (wrong country, no open position, bad choice) come back
// as 422 with a machine-readable reason code; they are commands refused by
// the state machine, not server faults.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/touch11/legends/go-server/internal/game"
	"github.com/touch11/legends/go-server/internal/session"
)

// mountGame registers the /game and /stats routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/submit", s.handleSubmit)
		r.Post("/choose", s.handleChoose)
		r.Post("/surrender", s.handleSurrender)
		r.Get("/state", s.handleState)
	})
	r.Get("/stats", s.handleStats)
	r.Get("/debug/roster", s.handleDebugRoster)
}

// rejection maps state-machine errors to stable reason codes.
func rejection(err error) (string, bool) {
	switch {
	case errors.Is(err, game.ErrInvalidPlayerForCountry):
		return "invalid_player_for_country", true
	case errors.Is(err, game.ErrNoAvailablePosition):
		return "no_available_position", true
	case errors.Is(err, game.ErrNotInProgress):
		return "not_in_progress", true
	case errors.Is(err, game.ErrNoPendingChoice):
		return "no_pending_choice", true
	case errors.Is(err, game.ErrInvalidChoice):
		return "invalid_choice", true
	}
	return "", false
}

// writeGameErr renders orchestrator/state-machine failures.
func writeGameErr(w http.ResponseWriter, err error) {
	if reason, ok := rejection(err); ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rejected", "reason": reason})
		return
	}
	switch {
	case errors.Is(err, session.ErrNotInitialized):
		http.Error(w, `{"error":"not_ready"}`, http.StatusServiceUnavailable)
	case errors.Is(err, session.ErrNoActiveGame):
		http.Error(w, `{"error":"no_active_game"}`, http.StatusConflict)
	default:
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}

// handleStart starts or resumes today's game for the caller's identity.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	view, err := s.orch.Start(r.Context(), pid)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(view)
}

// submitReq is the payload for /game/submit.
type submitReq struct {
	Name string `json:"name"`
}

// handleSubmit submits a player name for the current country.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	pid := s.playerID(w, r)
	res, err := s.orch.SubmitName(r.Context(), pid, req.Name)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// chooseReq is the payload for /game/choose.
type chooseReq struct {
	Position string `json:"position"`
}

// handleChoose completes a submission that offered several positions.
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	pid := s.playerID(w, r)
	res, err := s.orch.ChoosePosition(r.Context(), pid, req.Position)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// surrenderReq is the payload for /game/surrender. The confirm flag stands
// in for the confirmation dialog: a request without it changes nothing.
type surrenderReq struct {
	Confirm bool `json:"confirm"`
}

// handleSurrender finalizes today's game as a surrendered loss.
func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	var req surrenderReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	if !req.Confirm {
		http.Error(w, `{"error":"confirmation_required"}`, http.StatusBadRequest)
		return
	}
	pid := s.playerID(w, r)
	changed, err := s.orch.Surrender(r.Context(), pid)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"surrendered": changed})
}

// handleState returns the current session view without mutating it.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	view, err := s.orch.State(r.Context(), pid)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(view)
}

// statsRes is returned by /stats.
type statsRes struct {
	Stats session.LifetimeStats   `json:"stats"`
	Week  session.WeeklyHistogram `json:"week"`
	Today session.Tally           `json:"today"`
}

// handleStats aggregates the caller's full history plus today's tally.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	stats, week, err := s.orch.Stats(r.Context(), pid)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(statsRes{Stats: stats, Week: week, Today: s.orch.TodayTally(r.Context())})
}

// handleDebugRoster reports loaded reference data counts and the current
// daily selection.
func (s *Server) handleDebugRoster(w http.ResponseWriter, r *http.Request) {
	countries, players, formations, words, err := s.orch.RosterStats()
	if err != nil {
		writeGameErr(w, err)
		return
	}
	day := s.orch.Today()
	ch, err := s.orch.Challenge(day)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"day":        day,
		"formation":  ch.FormationKey,
		"countries":  countries,
		"players":    players,
		"formations": formations,
		"words":      words,
	})
}
