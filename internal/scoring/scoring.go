// Package scoring converts the distance between a guess and the true
// location into round points.
package scoring

import (
	"errors"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	// MaxPoints is awarded for a perfect guess.
	MaxPoints = 5000

	// PerfectRadiusKm is the distance under which a guess counts as perfect,
	// regardless of hint use.
	PerfectRadiusKm = 0.03

	// snapThreshold lifts near-perfect scores to MaxPoints.
	snapThreshold = 4997
)

// ErrMaxDistance is returned when the per-round normalizer is not a positive number.
var ErrMaxDistance = errors.New("max distance must be positive")

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine great-circle distance in kilometres.
func Distance(lat1, long1, lat2, long2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLong := toRad(long2 - long1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLong/2)*math.Sin(dLong/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Score returns the points in [0, MaxPoints] for a guess.
//
// The raw score decays as 5000·e^(−10·d/maxDistance) and is halved when a
// hint was used. Anything above 4997 snaps to 5000, and guesses within
// 30 m are always worth 5000.
func Score(trueLat, trueLong, guessLat, guessLong float64, usedHint bool, maxDistance float64) (int, error) {
	if !(maxDistance > 0) || math.IsInf(maxDistance, 0) {
		return 0, ErrMaxDistance
	}

	d := Distance(trueLat, trueLong, guessLat, guessLong)
	return pointsFor(d, usedHint, maxDistance), nil
}

func pointsFor(d float64, usedHint bool, maxDistance float64) int {
	if d < PerfectRadiusKm {
		return MaxPoints
	}

	pts := MaxPoints * math.Exp(-10*d/maxDistance)
	if usedHint {
		pts /= 2
	}
	if pts > snapThreshold {
		return MaxPoints
	}
	return int(math.Round(pts))
}
