// Package rating implements the ELO variant used for ranked duels.
package rating

import (
	"fmt"
	"math"
)

const (
	// Initial is the rating assigned to new accounts.
	Initial = 1000

	k           = 50.0
	base        = 1.7
	scale       = 500.0
	boostBelow  = 2000
	boostFactor = 4.0
)

// Outcome is a match result from one player's perspective.
type Outcome float64

const (
	Loss Outcome = 0
	Draw Outcome = 0.5
	Win  Outcome = 1
)

// Valid reports whether o is one of Loss, Draw or Win.
func (o Outcome) Valid() bool {
	return o == Loss || o == Draw || o == Win
}

// Expected returns the expected outcome of a player rated ra against rb.
func Expected(ra, rb int) float64 {
	qa := math.Pow(base, float64(ra)/scale)
	qb := math.Pow(base, float64(rb)/scale)
	return qa / (qa + qb)
}

// delta is the unrounded rating change for a player rated r who scored p
// against an opponent rated opp.
func delta(r, opp int, p Outcome) float64 {
	e := Expected(r, opp)
	d := k*(float64(p)-e-0.5) + 34 - 3*float64(p)

	if p == Loss && d > 0 {
		d = 0
	}
	if p == Win && r < boostBelow {
		d *= boostFactor
	}
	return d
}

// Update returns both players' new ratings given player A's outcome.
// Each side is computed from its own perspective with outcomeB = 1 − outcomeA.
func Update(ratingA, ratingB int, outcomeA Outcome) (int, int, error) {
	if !outcomeA.Valid() {
		return 0, 0, fmt.Errorf("invalid outcome %v", float64(outcomeA))
	}
	outcomeB := Win - outcomeA

	newA := roundHalfUp(float64(ratingA) + delta(ratingA, ratingB, outcomeA))
	newB := roundHalfUp(float64(ratingB) + delta(ratingB, ratingA, outcomeB))
	return newA, newB, nil
}

// roundHalfUp rounds .5 towards positive infinity for both signs.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
