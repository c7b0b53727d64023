package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playperu/geoparty/internal/geoguess"
)

const (
	MaxRounds       = 20
	MinTimePerRound = 10
	MaxTimePerRound = 300
	MaxNameLength   = 20
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

// RoundInput is one target location supplied at creation.
type RoundInput struct {
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	Country string  `json:"country"`
}

// CreateRequest describes a new session.
type CreateRequest struct {
	Rounds       []RoundInput `json:"rounds"`
	TimePerRound int          `json:"timePerRound"`
	Ranked       bool         `json:"ranked,omitempty"`
}

// GuessRequest is a player's answer for one round.
type GuessRequest struct {
	ID           string  `json:"id"`
	PlayerSecret string  `json:"playerSecret"`
	Round        int     `json:"roundNo"`
	Lat          float64 `json:"lat"`
	Long         float64 `json:"long"`
	UsedHint     bool    `json:"usedHint"`
}

func (r GuessRequest) validate() error {
	if r.Round < 1 {
		return fmt.Errorf("%w: round must be a positive integer", ErrValidation)
	}
	if !(geoguess.Point{Lat: r.Lat, Long: r.Long}).Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}

func (c *Coordinator) validateCreate(req CreateRequest) ([]geoguess.Round, error) {
	if len(req.Rounds) == 0 || len(req.Rounds) > MaxRounds {
		return nil, fmt.Errorf("%w: need 1..%d rounds, got %d", ErrValidation, MaxRounds, len(req.Rounds))
	}
	if req.TimePerRound < MinTimePerRound || req.TimePerRound > MaxTimePerRound {
		return nil, fmt.Errorf("%w: timePerRound must be %d..%d seconds", ErrValidation, MinTimePerRound, MaxTimePerRound)
	}

	rounds := make([]geoguess.Round, len(req.Rounds))
	for i, in := range req.Rounds {
		if !(geoguess.Point{Lat: in.Lat, Long: in.Long}).Valid() {
			return nil, fmt.Errorf("%w: round %d coordinates out of range", ErrValidation, i+1)
		}
		country := strings.TrimSpace(in.Country)
		if country == "" {
			return nil, fmt.Errorf("%w: round %d has no country", ErrValidation, i+1)
		}
		maxDist, ok := c.extents.MaxDistance(country)
		if !ok {
			return nil, fmt.Errorf("%w: round %d unknown country %q", ErrValidation, i+1, country)
		}
		rounds[i] = geoguess.Round{
			Lat:     in.Lat,
			Long:    in.Long,
			Country: country,
			MaxDist: maxDist,
		}
	}
	return rounds, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: name longer than %d characters", ErrValidation, MaxNameLength)
	case !namePattern.MatchString(name):
		return fmt.Errorf("%w: name must be letters, digits and spaces", ErrValidation)
	}
	return nil
}
