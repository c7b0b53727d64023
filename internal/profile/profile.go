// Package profile persists long-lived player accounts: experience,
// archived matches and ranked ratings.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/google/uuid"

	"github.com/playperu/geoparty/internal/rating"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
	ErrInvalid       = errors.New("invalid")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// User is a stored account.
type User struct {
	ID          string `json:"id"`
	Secret      string `json:"secret,omitempty"`
	Username    string `json:"username"`
	Elo         int    `json:"elo"`
	TotalXP     int    `json:"totalXp"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// Rank is a user's rating and the league it falls in.
type Rank struct {
	Elo    int           `json:"elo"`
	League rating.League `json:"league"`
}

// XP converts round points to experience, rounding halves up.
func XP(points int) int {
	return int(math.Floor(float64(points)/50 + 0.5))
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateUser registers username and returns the account with its secret.
func (s *Store) CreateUser(ctx context.Context, username string) (User, error) {
	if !usernamePattern.MatchString(username) {
		return User{}, fmt.Errorf("%w: username must be 3-20 letters, digits or underscores", ErrInvalid)
	}

	u := User{Secret: uuid.NewString(), Username: username}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var taken bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)
		`, username).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO users (secret, username)
			VALUES (?, ?)
			RETURNING id, elo, total_xp, games_played
		`, u.Secret, username).Scan(&u.ID, &u.Elo, &u.TotalXP, &u.GamesPlayed)
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// UserBySecret looks up an account that is not banned.
func (s *Store) UserBySecret(ctx context.Context, secret string) (User, error) {
	return userBySecret(ctx, s.db, secret)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userBySecret(ctx context.Context, q queryer, secret string) (User, error) {
	var u User
	err := q.QueryRowContext(ctx, `
		SELECT id, username, elo, total_xp, games_played
		FROM users
		WHERE secret = ? AND banned = 0
	`, secret).Scan(&u.ID, &u.Username, &u.Elo, &u.TotalXP, &u.GamesPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// Ban excludes a user from further progress updates.
func (s *Store) Ban(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET banned = 1 WHERE username = ?`, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EloRank returns the rating of username, matched case-insensitively.
func (s *Store) EloRank(ctx context.Context, username string) (Rank, error) {
	var elo int
	err := s.db.QueryRowContext(ctx, `
		SELECT elo FROM users WHERE username = ?
	`, username).Scan(&elo)
	if errors.Is(err, sql.ErrNoRows) {
		return Rank{}, ErrNotFound
	}
	if err != nil {
		return Rank{}, err
	}
	return Rank{Elo: elo, League: rating.LeagueFor(elo)}, nil
}

// AddRounds credits standalone rounds to the account holding secret.
// Banned and unknown accounts yield ErrNotFound.
func (s *Store) AddRounds(ctx context.Context, secret string, rounds []RoundReport) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := userBySecret(ctx, tx, secret)
		if err != nil {
			return err
		}

		var xp int
		for _, r := range rounds {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_rounds (user_id, xp, round_time, lat, long)
				VALUES (?, ?, ?, ?, ?)
			`, u.ID, r.XP, r.RoundTime, r.Lat, r.Long); err != nil {
				return fmt.Errorf("recording round: %w", err)
			}
			xp += r.XP
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET total_xp = total_xp + ? WHERE id = ?
		`, xp, u.ID)
		return err
	})
}
