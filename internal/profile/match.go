package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/playperu/geoparty/internal/rating"
	"github.com/playperu/geoparty/internal/session"
)

// SessionFinished archives a finished session. It makes Store a
// session.Finisher.
func (s *Store) SessionFinished(ctx context.Context, res session.Result) error {
	return s.ArchiveMatch(ctx, res)
}

type matchPlayer struct {
	session.ResultPlayer
	userID    sql.NullString
	eloBefore sql.NullInt64
	eloAfter  sql.NullInt64
}

// ArchiveMatch stores a finished session and credits experience to every
// participant with an account. Ranked two-player matches between two
// accounts also update both ratings. Session codes are reused after
// eviction; a match is identified by its code and finish time, and
// archiving the same one again is a no-op.
func (s *Store) ArchiveMatch(ctx context.Context, res session.Result) error {
	rounds, err := json.Marshal(res.Rounds)
	if err != nil {
		return fmt.Errorf("encoding rounds: %w", err)
	}

	ranked := 0
	if res.Ranked {
		ranked = 1
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		matchID := uuid.NewString()
		inserted, err := tx.ExecContext(ctx, `
			INSERT INTO matches (id, session_id, ranked, started_at, finished_at, time_per_round, rounds)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (session_id, finished_at) DO NOTHING
		`, matchID, res.SessionID, ranked, res.StartedAt, res.FinishedAt, res.TimePerRound, string(rounds))
		if err != nil {
			return fmt.Errorf("inserting match %s: %w", res.SessionID, err)
		}
		n, err := inserted.RowsAffected()
		if err != nil {
			return fmt.Errorf("inserting match %s: %w", res.SessionID, err)
		}
		if n == 0 {
			return nil
		}

		players := make([]matchPlayer, len(res.Players))
		for i, p := range res.Players {
			players[i].ResultPlayer = p
			if p.AccountSecret == "" {
				continue
			}
			u, err := userBySecret(ctx, tx, p.AccountSecret)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			players[i].userID = sql.NullString{String: u.ID, Valid: true}
			players[i].eloBefore = sql.NullInt64{Int64: int64(u.Elo), Valid: true}

			if _, err := tx.ExecContext(ctx, `
				UPDATE users
				SET total_xp = total_xp + ?, games_played = games_played + 1
				WHERE id = ?
			`, matchXP(p), u.ID); err != nil {
				return fmt.Errorf("crediting %s: %w", u.ID, err)
			}
		}

		if res.Ranked && len(players) == 2 && players[0].userID.Valid && players[1].userID.Valid {
			if err := applyDuel(ctx, tx, &players[0], &players[1]); err != nil {
				return err
			}
		}

		for _, p := range players {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO match_players (match_id, player_id, user_id, name, total_points, rank, elo_before, elo_after)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, matchID, p.PlayerID, p.userID, p.Name, p.TotalPoints, p.Rank, p.eloBefore, p.eloAfter); err != nil {
				return fmt.Errorf("inserting match player: %w", err)
			}
		}
		return nil
	})
}

func matchXP(p session.ResultPlayer) int {
	var xp int
	for _, g := range p.Guesses {
		xp += XP(g.Points)
	}
	return xp
}

func duelOutcome(a, b session.ResultPlayer) rating.Outcome {
	switch {
	case a.TotalPoints > b.TotalPoints:
		return rating.Win
	case a.TotalPoints < b.TotalPoints:
		return rating.Loss
	}
	return rating.Draw
}

func applyDuel(ctx context.Context, tx *sql.Tx, a, b *matchPlayer) error {
	newA, newB, err := rating.Update(int(a.eloBefore.Int64), int(b.eloBefore.Int64), duelOutcome(a.ResultPlayer, b.ResultPlayer))
	if err != nil {
		return err
	}
	for _, u := range []struct {
		p   *matchPlayer
		elo int
	}{{a, newA}, {b, newB}} {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET elo = ? WHERE id = ?`, u.elo, u.p.userID.String); err != nil {
			return fmt.Errorf("updating elo: %w", err)
		}
		u.p.eloAfter = sql.NullInt64{Int64: int64(u.elo), Valid: true}
	}
	return nil
}

// ApplyDuel updates the ratings of two accounts after a one-on-one game
// and returns the new ratings.
func (s *Store) ApplyDuel(ctx context.Context, secretA, secretB string, outcomeA rating.Outcome) (int, int, error) {
	var newA, newB int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := userBySecret(ctx, tx, secretA)
		if err != nil {
			return fmt.Errorf("player a: %w", err)
		}
		b, err := userBySecret(ctx, tx, secretB)
		if err != nil {
			return fmt.Errorf("player b: %w", err)
		}
		if a.ID == b.ID {
			return fmt.Errorf("%w: duel against self", ErrInvalid)
		}

		newA, newB, err = rating.Update(a.Elo, b.Elo, outcomeA)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for id, elo := range map[string]int{a.ID: newA, b.ID: newB} {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET elo = ? WHERE id = ?`, elo, id); err != nil {
				return fmt.Errorf("updating elo: %w", err)
			}
		}
		return nil
	})
	return newA, newB, err
}
