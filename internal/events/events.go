// Package events fans session changes out to live subscribers.
package events

// Event types published by the session coordinator.
const (
	PlayerJoined    = "player_joined"
	PlayerLeft      = "player_left"
	SessionStarted  = "session_started"
	GuessSubmitted  = "guess_submitted"
	SessionFinished = "session_finished"
)

// Event is the payload delivered to session subscribers.
type Event struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Round      int    `json:"round,omitempty"`
	At         int64  `json:"at"`
}

// Publisher delivers an event to everyone watching a session.
type Publisher interface {
	Publish(ev Event)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
