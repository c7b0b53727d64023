package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/playperu/geoparty/internal/session"
)

const qrSize = 320

// joinURL builds the link a phone lands on after scanning the code. With
// no configured base it is derived from the request.
func joinURL(base string, r *http.Request, id string) string {
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimSuffix(base, "/") + "/join/" + id
}

func handleQR(c *session.Coordinator, publicURL string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := c.State(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		png, err := qrcode.Encode(joinURL(publicURL, r, id), qrcode.Medium, qrSize)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(png)
	}
}
