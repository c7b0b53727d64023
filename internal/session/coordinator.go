// Package session coordinates multiplayer guessing sessions: it owns the
// session state machine and serializes every mutation as a
// read-modify-write against a shared key/value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/geoparty/internal/events"
	"github.com/playperu/geoparty/internal/geoguess"
	"github.com/playperu/geoparty/internal/kv"
)

const (
	DefaultMaxPlayers = 50
	DefaultLockTTL    = 2 * time.Second

	rankedPlayers = 2
)

// Extents resolves the scoring normalizer for a country code.
type Extents interface {
	MaxDistance(country string) (float64, bool)
}

// Finisher receives the result of a session the first time it finishes.
type Finisher interface {
	SessionFinished(ctx context.Context, result Result) error
}

// Config tunes coordinator limits.
type Config struct {
	MaxPlayers int
	// Locking enables a per-session lease when the store supports it.
	// Without it concurrent mutations are last-write-wins.
	Locking bool
	LockTTL time.Duration
	// SecretCost is the bcrypt cost for modify secrets.
	SecretCost int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxPlayers: DefaultMaxPlayers,
		Locking:    true,
		LockTTL:    DefaultLockTTL,
		SecretCost: bcrypt.DefaultCost,
	}
}

// Coordinator implements the session lifecycle. It holds no session state
// between calls; the store is the single source of truth.
type Coordinator struct {
	store     kv.Store
	locker    kv.Locker
	extents   Extents
	publisher events.Publisher
	finisher  Finisher
	clock     clockwork.Clock
	logger    *slog.Logger
	tracer    trace.Tracer
	cfg       Config
	genID     func() (string, error)
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

func WithConfig(cfg Config) Option            { return func(c *Coordinator) { c.cfg = cfg } }
func WithClock(clock clockwork.Clock) Option  { return func(c *Coordinator) { c.clock = clock } }
func WithLogger(logger *slog.Logger) Option   { return func(c *Coordinator) { c.logger = logger } }
func WithPublisher(p events.Publisher) Option { return func(c *Coordinator) { c.publisher = p } }
func WithFinisher(f Finisher) Option          { return func(c *Coordinator) { c.finisher = f } }
func WithTracer(t trace.Tracer) Option        { return func(c *Coordinator) { c.tracer = t } }

func New(store kv.Store, extents Extents, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		extents:   extents,
		publisher: events.Discard{},
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/playperu/geoparty/internal/session"),
		cfg:       DefaultConfig(),
		genID:     randomID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if l, ok := store.(kv.Locker); ok && c.cfg.Locking {
		c.locker = l
	}
	if c.cfg.LockTTL <= 0 {
		c.cfg.LockTTL = DefaultLockTTL
	}
	if c.cfg.SecretCost == 0 {
		c.cfg.SecretCost = bcrypt.DefaultCost
	}
	return c
}

func (c *Coordinator) now() int64 { return c.clock.Now().UnixMilli() }

func (c *Coordinator) startSpan(ctx context.Context, op, id string) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "session."+op,
		trace.WithAttributes(attribute.String("session.id", id)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (c *Coordinator) load(ctx context.Context, id string) (*geoguess.Session, error) {
	data, err := c.store.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var s geoguess.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}

func (c *Coordinator) save(ctx context.Context, s *geoguess.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	if err := c.store.Set(ctx, s.ID, data); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

// mutate runs fn against a fresh copy of the session and persists the
// result. Nothing is written when fn fails.
func (c *Coordinator) mutate(ctx context.Context, id string, fn func(s *geoguess.Session) error) (*geoguess.Session, error) {
	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, id, c.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("locking session %s: %w", id, err)
		}
		defer unlock()
	}

	s, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := c.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Coordinator) publish(typ, sessionID string, fill func(*events.Event)) {
	ev := events.Event{Type: typ, SessionID: sessionID, At: c.now()}
	if fill != nil {
		fill(&ev)
	}
	c.publisher.Publish(ev)
}

// Created is returned to the host of a new session.
type Created struct {
	ID           string `json:"id"`
	ModifySecret string `json:"modifySecret"`
}

// Create validates the round list and writes a new waiting session.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (_ Created, err error) {
	ctx, end := c.startSpan(ctx, "Create", "")
	defer func() { end(err) }()

	rounds, err := c.validateCreate(req)
	if err != nil {
		return Created{}, err
	}

	id, err := c.newID(ctx)
	if err != nil {
		return Created{}, err
	}

	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), c.cfg.SecretCost)
	if err != nil {
		return Created{}, fmt.Errorf("hashing modify secret: %w", err)
	}

	s := &geoguess.Session{
		ID:               id,
		State:            geoguess.StateWaiting,
		CreatedAt:        c.now(),
		Rounds:           rounds,
		ModifySecretHash: string(hash),
		TimePerRound:     req.TimePerRound,
		Ranked:           req.Ranked,
		Players:          []geoguess.Player{},
	}
	if err := c.save(ctx, s); err != nil {
		return Created{}, err
	}

	c.logger.Info("session created",
		"session_id", id,
		"rounds", len(rounds),
		"time_per_round", req.TimePerRound,
		"ranked", req.Ranked,
	)
	return Created{ID: id, ModifySecret: secret}, nil
}

// Joined carries a new player's credentials.
type Joined struct {
	ID           string `json:"id"`
	PlayerID     string `json:"playerId"`
	PlayerSecret string `json:"playerSecret"`
}

// Join adds a player to a waiting session. Name uniqueness is an exact,
// case-sensitive comparison.
func (c *Coordinator) Join(ctx context.Context, id, name, accountSecret string) (_ Joined, err error) {
	ctx, end := c.startSpan(ctx, "Join", id)
	defer func() { end(err) }()

	player := geoguess.Player{
		ID:            uuid.NewString(),
		Name:          name,
		Secret:        uuid.NewString(),
		AccountSecret: accountSecret,
		Guesses:       []geoguess.Guess{},
		JoinedAt:      c.now(),
	}

	_, err = c.mutate(ctx, id, func(s *geoguess.Session) error {
		if s.State != geoguess.StateWaiting {
			return fmt.Errorf("%w: session is %s", ErrInvalidState, s.State)
		}
		if err := validateName(name); err != nil {
			return err
		}
		if s.PlayerByName(name) >= 0 {
			return fmt.Errorf("%w: %q", ErrNameConflict, name)
		}
		if limit := c.playerLimit(s); len(s.Players) >= limit {
			return fmt.Errorf("%w: %d players", ErrSessionFull, limit)
		}
		s.Players = append(s.Players, player)
		return nil
	})
	if err != nil {
		return Joined{}, err
	}

	c.logger.Info("player joined", "session_id", id, "player_id", player.ID, "name", name)
	c.publish(events.PlayerJoined, id, func(ev *events.Event) {
		ev.PlayerID = player.ID
		ev.PlayerName = name
	})
	return Joined{ID: id, PlayerID: player.ID, PlayerSecret: player.Secret}, nil
}

func (c *Coordinator) playerLimit(s *geoguess.Session) int {
	if s.Ranked {
		return rankedPlayers
	}
	if c.cfg.MaxPlayers > 0 {
		return c.cfg.MaxPlayers
	}
	return DefaultMaxPlayers
}

// Leave removes a player in any state, preserving the order of the rest.
func (c *Coordinator) Leave(ctx context.Context, id, playerID, playerSecret string) (err error) {
	ctx, end := c.startSpan(ctx, "Leave", id)
	defer func() { end(err) }()

	var name string
	_, err = c.mutate(ctx, id, func(s *geoguess.Session) error {
		for i, p := range s.Players {
			if p.ID == playerID && p.Secret == playerSecret && playerSecret != "" {
				name = p.Name
				s.Players = append(s.Players[:i], s.Players[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: no matching player", ErrAuth)
	})
	if err != nil {
		return err
	}

	c.logger.Info("player left", "session_id", id, "player_id", playerID)
	c.publish(events.PlayerLeft, id, func(ev *events.Event) {
		ev.PlayerID = playerID
		ev.PlayerName = name
	})
	return nil
}

// Start stamps the round schedule and moves the session to started. Only
// the holder of the modify secret may start it.
func (c *Coordinator) Start(ctx context.Context, id, modifySecret string) (_ Schedule, err error) {
	ctx, end := c.startSpan(ctx, "Start", id)
	defer func() { end(err) }()

	var sched Schedule
	_, err = c.mutate(ctx, id, func(s *geoguess.Session) error {
		if modifySecret == "" ||
			bcrypt.CompareHashAndPassword([]byte(s.ModifySecretHash), []byte(modifySecret)) != nil {
			return fmt.Errorf("%w: modify secret mismatch", ErrAuth)
		}
		if s.State != geoguess.StateWaiting {
			return fmt.Errorf("%w: session is %s", ErrInvalidState, s.State)
		}
		if len(s.Players) < 2 {
			return fmt.Errorf("%w: %d joined, need 2", ErrInsufficientPlayers, len(s.Players))
		}

		sched = computeSchedule(c.clock.Now(), len(s.Rounds), s.TimePerRound)
		for i := range s.Rounds {
			s.Rounds[i].StartAt = sched.StartAt[i]
		}
		s.EndTime = sched.EndTime
		s.State = geoguess.StateStarted
		return nil
	})
	if err != nil {
		return Schedule{}, err
	}

	c.logger.Info("session started", "session_id", id, "end_time", sched.EndTime)
	c.publish(events.SessionStarted, id, nil)
	return sched, nil
}

// Guess scores and records a player's guess for one round. A round can
// be guessed at most once per player; resubmissions are rejected.
func (c *Coordinator) Guess(ctx context.Context, req GuessRequest) (_ int, err error) {
	ctx, end := c.startSpan(ctx, "Guess", req.ID)
	defer func() { end(err) }()

	var (
		points int
		player geoguess.Player
	)
	_, err = c.mutate(ctx, req.ID, func(s *geoguess.Session) error {
		idx := s.PlayerBySecret(req.PlayerSecret)
		if req.PlayerSecret == "" || idx < 0 {
			return fmt.Errorf("%w: unknown player secret", ErrAuth)
		}
		if err := req.validate(); err != nil {
			return err
		}
		if req.Round > len(s.Rounds) {
			return fmt.Errorf("%w: round %d out of range 1..%d", ErrValidation, req.Round, len(s.Rounds))
		}
		if s.State != geoguess.StateStarted {
			return fmt.Errorf("%w: session is %s", ErrInvalidState, s.State)
		}

		p := &s.Players[idx]
		if _, dup := p.GuessFor(req.Round); dup {
			return fmt.Errorf("%w: round %d", ErrDuplicateGuess, req.Round)
		}

		target := s.Rounds[req.Round-1]
		pts, err := scoreGuess(target, req)
		if err != nil {
			return fmt.Errorf("scoring round %d: %w", req.Round, err)
		}

		points = pts
		p.Guesses = append(p.Guesses, geoguess.Guess{
			Round:    req.Round,
			Lat:      req.Lat,
			Long:     req.Long,
			Points:   pts,
			UsedHint: req.UsedHint,
			At:       c.now(),
		})
		p.TotalPoints += pts
		player = *p
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("guess recorded",
		"session_id", req.ID,
		"player_id", player.ID,
		"round", req.Round,
		"points", points,
	)
	c.publish(events.GuessSubmitted, req.ID, func(ev *events.Event) {
		ev.PlayerID = player.ID
		ev.PlayerName = player.Name
		ev.Round = req.Round
	})
	return points, nil
}

// State returns the session with all secrets stripped.
func (c *Coordinator) State(ctx context.Context, id string) (_ View, err error) {
	ctx, end := c.startSpan(ctx, "State", id)
	defer func() { end(err) }()

	s, err := c.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return newView(s), nil
}

// Exists reports whether a session is stored under id.
func (c *Coordinator) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.store.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading session %s: %w", id, err)
	}
	return true, nil
}

// Finish closes a started session once its schedule has run out or every
// player has guessed every round. The first call records the standings and
// notifies the Finisher; later calls return the recorded standings.
func (c *Coordinator) Finish(ctx context.Context, id string) (_ []geoguess.Standing, err error) {
	ctx, end := c.startSpan(ctx, "Finish", id)
	defer func() { end(err) }()

	var first bool
	s, err := c.mutate(ctx, id, func(s *geoguess.Session) error {
		if s.State != geoguess.StateStarted {
			return fmt.Errorf("%w: session is %s", ErrInvalidState, s.State)
		}
		if s.FinishedAt != 0 {
			return nil
		}
		now := c.now()
		if now < s.EndTime && !s.AllGuessed() {
			return fmt.Errorf("%w: ends at %d", ErrNotFinished, s.EndTime)
		}
		s.FinishedAt = now
		s.Standings = standings(s.Players)
		first = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !first {
		return s.Standings, nil
	}

	c.logger.Info("session finished", "session_id", id, "players", len(s.Players))
	if c.finisher != nil {
		if ferr := c.finisher.SessionFinished(ctx, newResult(s)); ferr != nil {
			c.logger.Error("recording finished session failed", "session_id", id, "error", ferr)
		}
	}
	c.publish(events.SessionFinished, id, nil)
	return s.Standings, nil
}
