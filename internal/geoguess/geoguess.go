// Package geoguess defines the core domain types of a multiplayer session.
// It has no external dependencies.
package geoguess

// State is the lifecycle state of a session. An evicted session
// is represented by the record's absence, not by a State value.
type State int

const (
	StateWaiting State = 1
	StateStarted State = 2
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Point is a coordinate pair in degrees.
type Point struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Valid reports whether the point lies within latitude [-90, 90] and
// longitude [-180, 180].
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Long >= -180 && p.Long <= 180
}

// Round is one target location.
type Round struct {
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	Country string  `json:"country"`
	// MaxDist is the scoring normalizer in km, resolved from Country at creation.
	MaxDist float64 `json:"maxDist"`
	// StartAt is set in Unix ms once the session starts.
	StartAt int64 `json:"startAt,omitempty"`
}

// Guess is a player's answer for one round.
type Guess struct {
	Round    int     `json:"round"`
	Lat      float64 `json:"lat"`
	Long     float64 `json:"long"`
	Points   int     `json:"points"`
	UsedHint bool    `json:"usedHint"`
	At       int64   `json:"at"`
}

// Player is a participant of a session.
type Player struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Secret        string  `json:"secret"`
	AccountSecret string  `json:"accountSecret,omitempty"`
	Guesses       []Guess `json:"guesses"`
	TotalPoints   int     `json:"totalPoints"`
	JoinedAt      int64   `json:"joinedAt"`
}

// GuessFor returns the player's guess for round, if any.
func (p *Player) GuessFor(round int) (Guess, bool) {
	for _, g := range p.Guesses {
		if g.Round == round {
			return g, true
		}
	}
	return Guess{}, false
}

// Standing is a player's final placement.
type Standing struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	Rank        int    `json:"rank"`
}

// Session is the canonical record of one match.
type Session struct {
	ID               string     `json:"id"`
	State            State      `json:"state"`
	CreatedAt        int64      `json:"createdAt"`
	Rounds           []Round    `json:"rounds"`
	EndTime          int64      `json:"endTime,omitempty"`
	ModifySecretHash string     `json:"modifySecretHash"`
	TimePerRound     int        `json:"timePerRound"`
	Ranked           bool       `json:"ranked,omitempty"`
	Players          []Player   `json:"players"`
	FinishedAt       int64      `json:"finishedAt,omitempty"`
	Standings        []Standing `json:"standings,omitempty"`
}

// PlayerBySecret returns the index of the player holding secret, or -1.
func (s *Session) PlayerBySecret(secret string) int {
	for i := range s.Players {
		if s.Players[i].Secret == secret {
			return i
		}
	}
	return -1
}

// PlayerByName returns the index of the player named name (exact match), or -1.
func (s *Session) PlayerByName(name string) int {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return i
		}
	}
	return -1
}

// AllGuessed reports whether every player has a guess for every round.
func (s *Session) AllGuessed() bool {
	if len(s.Players) == 0 {
		return false
	}
	for i := range s.Players {
		for r := 1; r <= len(s.Rounds); r++ {
			if _, ok := s.Players[i].GuessFor(r); !ok {
				return false
			}
		}
	}
	return true
}
