package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/geoparty/internal/events"
	"github.com/playperu/geoparty/internal/geodata"
	"github.com/playperu/geoparty/internal/kv"
	"github.com/playperu/geoparty/internal/profile"
	"github.com/playperu/geoparty/internal/rating"
	"github.com/playperu/geoparty/internal/session"
)

type fakeProfiles struct {
	users map[string]profile.User
}

func (f *fakeProfiles) CreateUser(_ context.Context, username string) (profile.User, error) {
	if _, ok := f.users[username]; ok {
		return profile.User{}, profile.ErrUsernameTaken
	}
	u := profile.User{ID: "u-" + username, Secret: "s-" + username, Username: username, Elo: rating.Initial}
	f.users[username] = u
	return u, nil
}

func (f *fakeProfiles) EloRank(_ context.Context, username string) (profile.Rank, error) {
	u, ok := f.users[username]
	if !ok {
		return profile.Rank{}, profile.ErrNotFound
	}
	return profile.Rank{Elo: u.Elo, League: rating.LeagueFor(u.Elo)}, nil
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []profile.RoundReport
}

func (f *fakeReporter) Report(rep profile.RoundReport) {
	f.mu.Lock()
	f.reports = append(f.reports, rep)
	f.mu.Unlock()
}

type testEnv struct {
	router   chi.Router
	store    *kv.Memory
	broker   *events.Broker
	reporter *fakeReporter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	env := &testEnv{
		store:    kv.NewMemory(),
		broker:   events.NewBroker(),
		reporter: &fakeReporter{},
	}

	cfg := session.DefaultConfig()
	cfg.SecretCost = bcrypt.MinCost
	coord := session.New(env.store, geodata.Default(),
		session.WithConfig(cfg),
		session.WithLogger(logger),
		session.WithPublisher(env.broker),
	)

	env.router = NewRouter(logger, Deps{
		Sessions:       coord,
		Broker:         env.broker,
		Extents:        geodata.Default(),
		Profiles:       &fakeProfiles{users: map[string]profile.User{}},
		Reporter:       env.reporter,
		PublicURL:      "https://play.example",
		CORSOrigins:    []string{"*"},
		RoundRateLimit: 12,
	}, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != code {
		t.Errorf("code = %q, want %q", got.Code, code)
	}
}

var limaRounds = session.CreateRequest{
	Rounds: []session.RoundInput{
		{Lat: -12.0464, Long: -77.0428, Country: "PE"},
		{Lat: 48.8566, Long: 2.3522, Country: "FR"},
	},
	TimePerRound: 30,
}

func (e *testEnv) createSession(t *testing.T) session.Created {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions", limaRounds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[session.Created](t, rec)
}

func (e *testEnv) joinSession(t *testing.T, id, name string) session.Joined {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions/join", JoinRequest{ID: id, Name: name})
	if rec.Code != http.StatusOK {
		t.Fatalf("join %s: status = %d, body %s", name, rec.Code, rec.Body.String())
	}
	return decodeBody[session.Joined](t, rec)
}
