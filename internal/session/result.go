package session

import (
	"sort"
	"time"

	"github.com/playperu/geoparty/internal/geoguess"
	"github.com/playperu/geoparty/internal/schedule"
	"github.com/playperu/geoparty/internal/scoring"
)

// Schedule is the timetable stamped on a session when it starts.
type Schedule = schedule.Schedule

func computeSchedule(t0 time.Time, rounds, timePerRound int) Schedule {
	return schedule.Compute(t0, rounds, timePerRound)
}

func scoreGuess(target geoguess.Round, req GuessRequest) (int, error) {
	return scoring.Score(target.Lat, target.Long, req.Lat, req.Long, req.UsedHint, target.MaxDist)
}

// standings ranks players by total points. Ties keep join order and share
// a rank.
func standings(players []geoguess.Player) []geoguess.Standing {
	out := make([]geoguess.Standing, len(players))
	for i, p := range players {
		out[i] = geoguess.Standing{PlayerID: p.ID, Name: p.Name, TotalPoints: p.TotalPoints}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPoints > out[j].TotalPoints })

	for i := range out {
		if i > 0 && out[i].TotalPoints == out[i-1].TotalPoints {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// ResultPlayer is one participant in a finished session.
type ResultPlayer struct {
	PlayerID      string
	Name          string
	AccountSecret string
	TotalPoints   int
	Rank          int
	Guesses       []geoguess.Guess
}

// Result is handed to the Finisher when a session finishes.
type Result struct {
	SessionID    string
	Ranked       bool
	StartedAt    int64
	FinishedAt   int64
	TimePerRound int
	Rounds       []geoguess.Round
	Players      []ResultPlayer
}

func newResult(s *geoguess.Session) Result {
	res := Result{
		SessionID:    s.ID,
		Ranked:       s.Ranked,
		FinishedAt:   s.FinishedAt,
		TimePerRound: s.TimePerRound,
		Rounds:       s.Rounds,
	}
	if len(s.Rounds) > 0 {
		res.StartedAt = s.Rounds[0].StartAt - schedule.Buffer.Milliseconds()
	}

	rank := make(map[string]int, len(s.Standings))
	for _, st := range s.Standings {
		rank[st.PlayerID] = st.Rank
	}
	for _, p := range s.Players {
		res.Players = append(res.Players, ResultPlayer{
			PlayerID:      p.ID,
			Name:          p.Name,
			AccountSecret: p.AccountSecret,
			TotalPoints:   p.TotalPoints,
			Rank:          rank[p.ID],
			Guesses:       p.Guesses,
		})
	}
	return res
}
