package session

import "github.com/playperu/geoparty/internal/geoguess"

// PlayerView is a player as seen by other clients; secrets are stripped.
type PlayerView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Guesses     []geoguess.Guess `json:"guesses"`
	TotalPoints int              `json:"totalPoints"`
}

// View is the read model of a session returned to any client.
type View struct {
	ID           string              `json:"id"`
	CreatedAt    int64               `json:"createdAt"`
	Rounds       []geoguess.Round    `json:"rounds"`
	Players      []PlayerView        `json:"players"`
	State        string              `json:"state"`
	TimePerRound int                 `json:"timePerRound"`
	EndTime      int64               `json:"endTime,omitempty"`
	Ranked       bool                `json:"ranked,omitempty"`
	FinishedAt   int64               `json:"finishedAt,omitempty"`
	Standings    []geoguess.Standing `json:"standings,omitempty"`
}

func newView(s *geoguess.Session) View {
	v := View{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		Rounds:       s.Rounds,
		Players:      make([]PlayerView, len(s.Players)),
		State:        s.State.String(),
		TimePerRound: s.TimePerRound,
		EndTime:      s.EndTime,
		Ranked:       s.Ranked,
		FinishedAt:   s.FinishedAt,
		Standings:    s.Standings,
	}
	for i, p := range s.Players {
		guesses := p.Guesses
		if guesses == nil {
			guesses = []geoguess.Guess{}
		}
		v.Players[i] = PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Guesses:     guesses,
			TotalPoints: p.TotalPoints,
		}
	}
	return v
}
