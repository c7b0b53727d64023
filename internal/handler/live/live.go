// Package live pushes session events to websocket clients.
package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/geoparty/internal/events"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
	maxLifetime  = 2 * time.Hour
)

// Sessions reports whether a session exists.
type Sessions interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	broker   *events.Broker
	sessions Sessions
	logger   *slog.Logger
	origins  []string
}

// NewHandler serves events from broker. origins lists the hosts allowed to
// open a socket; "*" allows any.
func NewHandler(logger *slog.Logger, broker *events.Broker, sessions Sessions, origins []string) *Handler {
	return &Handler{broker: broker, sessions: sessions, logger: logger, origins: origins}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/sessions/{id}", h.stream)
	return r
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	for _, o := range h.origins {
		if o == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.origins}
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.sessions.Exists(r.Context(), id)
	if err != nil {
		h.logger.Error("looking up session", "session_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), maxLifetime)
	defer cancel()

	// Clients never send; CloseRead handles control frames and cancels
	// ctx once the peer goes away.
	ctx = conn.CloseRead(ctx)

	ch := h.broker.Subscribe(id)
	defer h.broker.Unsubscribe(id, ch)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				conn.Close(websocket.StatusNormalClosure, "lifetime exceeded")
			}
			return
		case data := <-ch:
			if err := h.write(ctx, conn, data); err != nil {
				h.logger.Debug("websocket write failed", "session_id", id, "error", err)
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				h.logger.Debug("websocket ping failed", "session_id", id, "error", err)
				return
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
