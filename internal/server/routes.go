package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoParty API", "/openapi.json", "/docs"))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(d.Sessions, logger))
		r.Post("/join", handleJoinSession(d.Sessions, logger))
		r.Post("/leave", handleLeaveSession(d.Sessions, logger))
		r.Post("/start", handleStartSession(d.Sessions, logger))
		r.Post("/guess", handleGuess(d.Sessions, logger))
		r.Post("/state", handleSessionState(d.Sessions, logger))
		r.Post("/finish", handleFinishSession(d.Sessions, logger))

		r.Get("/{id}", handleSessionState(d.Sessions, logger))
		r.Get("/{id}/events", handleEvents(d.Sessions, d.Broker, logger))
		r.Get("/{id}/qr.png", handleQR(d.Sessions, d.PublicURL, logger))
	})

	r.Get("/api/countries", handleCountries(d.Extents))

	if d.Profiles != nil {
		r.Post("/api/users", handleCreateUser(d.Profiles, logger))
		r.Get("/api/elo", handleElo(d.Profiles, logger))
	}
	if d.Reporter != nil {
		r.With(rateLimit(d.RoundRateLimit)).Post("/api/rounds", handleRound(d.Reporter, logger))
	}
}
