package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/geoparty/internal/geoguess"
	"github.com/playperu/geoparty/internal/schedule"
	"github.com/playperu/geoparty/internal/session"
)

type JoinRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountSecret string `json:"accountSecret,omitempty"`
}

type LeaveRequest struct {
	ID           string `json:"id"`
	PlayerID     string `json:"playerId"`
	PlayerSecret string `json:"playerSecret"`
}

type StartRequest struct {
	ID           string `json:"id"`
	ModifySecret string `json:"modifySecret"`
}

// SessionRequest identifies a session in a request body.
type SessionRequest struct {
	ID string `json:"id"`
}

type GuessResponse struct {
	PointsAwarded int `json:"pointsAwarded"`
}

// OKResponse acknowledges a mutation that has nothing else to return.
type OKResponse struct {
	OK bool `json:"ok"`
}

// StartResponse acknowledges a start and carries the stamped timetable.
type StartResponse struct {
	OK bool `json:"ok"`
	schedule.Schedule
}

type FinishResponse struct {
	Standings []geoguess.Standing `json:"standings"`
}

func badBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "validation", "invalid request body")
}

func handleCreateSession(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.CreateRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		created, err := c.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleJoinSession(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		joined, err := c.Join(r.Context(), req.ID, req.Name, req.AccountSecret)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, joined)
	}
}

func handleLeaveSession(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LeaveRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		if err := c.Leave(r.Context(), req.ID, req.PlayerID, req.PlayerSecret); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

func handleStartSession(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		sched, err := c.Start(r.Context(), req.ID, req.ModifySecret)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, StartResponse{OK: true, Schedule: sched})
	}
}

func handleGuess(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.GuessRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		points, err := c.Guess(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, GuessResponse{PointsAwarded: points})
	}
}

// handleSessionState serves both POST /state with {id} in the body and
// GET /{id}.
func handleSessionState(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if r.Method == http.MethodPost {
			var req SessionRequest
			if err := readJSON(r, &req); err != nil {
				badBody(w)
				return
			}
			id = req.ID
		}

		view, err := c.State(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleFinishSession(c *session.Coordinator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		standings, err := c.Finish(r.Context(), req.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, FinishResponse{Standings: standings})
	}
}
