package session

import "errors"

// Error kinds surfaced by the coordinator. Details are wrapped with %w, so
// callers should test with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("session not found")
	ErrAuth                = errors.New("invalid credentials")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrNameConflict        = errors.New("name already taken")
	ErrInsufficientPlayers = errors.New("not enough players")
	ErrDuplicateGuess      = errors.New("round already guessed")
	ErrSessionFull         = errors.New("session is full")
	ErrNotFinished         = errors.New("session has not finished")
)
