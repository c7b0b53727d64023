package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/geoparty/internal/profile"
)

// Profiles is the account store behind the profile endpoints.
type Profiles interface {
	CreateUser(ctx context.Context, username string) (profile.User, error)
	EloRank(ctx context.Context, username string) (profile.Rank, error)
}

// RoundReporter queues standalone rounds for crediting.
type RoundReporter interface {
	Report(rep profile.RoundReport)
}

type CreateUserRequest struct {
	Username string `json:"username"`
}

type RoundResponse struct {
	Points int `json:"points"`
	XP     int `json:"xp"`
}

func handleCreateUser(profiles Profiles, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		u, err := profiles.CreateUser(r.Context(), req.Username)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func handleElo(profiles Profiles, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			writeError(w, http.StatusBadRequest, "validation", "username query parameter required")
			return
		}

		rank, err := profiles.EloRank(r.Context(), username)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, rank)
	}
}

// handleRound scores a standalone round and queues the experience for the
// submitting account. The write happens later, in batches.
func handleRound(reporter RoundReporter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profile.StandaloneRound
		if err := readJSON(r, &req); err != nil {
			badBody(w)
			return
		}

		points, rep, err := req.Score()
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		reporter.Report(rep)
		writeJSON(w, http.StatusOK, RoundResponse{Points: points, XP: rep.XP})
	}
}
