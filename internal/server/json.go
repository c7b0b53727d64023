package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/geoparty/internal/kv"
	"github.com/playperu/geoparty/internal/profile"
	"github.com/playperu/geoparty/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{session.ErrValidation, http.StatusBadRequest, "validation"},
	{session.ErrNotFound, http.StatusNotFound, "not_found"},
	{session.ErrAuth, http.StatusForbidden, "auth"},
	{session.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{session.ErrNameConflict, http.StatusConflict, "name_conflict"},
	{session.ErrInsufficientPlayers, http.StatusConflict, "insufficient_players"},
	{session.ErrDuplicateGuess, http.StatusConflict, "duplicate_guess"},
	{session.ErrSessionFull, http.StatusConflict, "session_full"},
	{session.ErrNotFinished, http.StatusConflict, "not_finished"},
	{kv.ErrLocked, http.StatusServiceUnavailable, "busy"},
	{profile.ErrInvalid, http.StatusBadRequest, "validation"},
	{profile.ErrNotFound, http.StatusNotFound, "not_found"},
	{profile.ErrUsernameTaken, http.StatusConflict, "name_conflict"},
}

// writeServiceError maps domain errors to a status and code. Anything
// unrecognised is logged and reported as internal.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.code, err.Error())
			return
		}
	}
	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}
