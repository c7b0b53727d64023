package live_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/playperu/geoparty/internal/events"
	"github.com/playperu/geoparty/internal/handler/live"
)

type knownSessions map[string]bool

func (k knownSessions) Exists(_ context.Context, id string) (bool, error) {
	return k[id], nil
}

func TestStream(t *testing.T) {
	broker := events.NewBroker()
	h := live.NewHandler(slog.New(slog.DiscardHandler), broker, knownSessions{"ABC234": true}, []string{"*"})
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/sessions/ABC234", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for broker.Subscribers("ABC234") == 0 {
		if ctx.Err() != nil {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	broker.Publish(events.Event{Type: events.SessionStarted, SessionID: "ABC234", At: 42})
	broker.Publish(events.Event{Type: events.SessionStarted, SessionID: "OTHER1", At: 43})

	typ, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("type = %v, want text", typ)
	}
	var ev events.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decoding %s: %v", msg, err)
	}
	if ev.Type != events.SessionStarted || ev.SessionID != "ABC234" || ev.At != 42 {
		t.Errorf("event = %+v", ev)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	for broker.Subscribers("ABC234") != 0 {
		if ctx.Err() != nil {
			t.Fatal("handler did not unsubscribe after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	h := live.NewHandler(slog.New(slog.DiscardHandler), events.NewBroker(), knownSessions{}, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/sessions/NOPE99", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
