package elo

import "math"

// Defaults for the rating system. The K factor and floors are configurable
// at the service level; these are the fallback values.
const (
	DefaultRating  = 1200
	DefaultKFactor = 32
	MinRating      = 100
)

// Expected returns the expected score for a player rated own against an
// opponent rated opp.
func Expected(own, opp int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opp-own)/400.0))
}

// Delta returns the rating adjustment for a player with the given actual
// score (1 win, 0 loss, 0.5 draw). Both sides of a match must be computed
// from the same pre-match snapshots so the result is order independent.
func Delta(k, own, opp int, score float64) int {
	return int(math.Round(float64(k) * (score - Expected(own, opp))))
}

// Clamp floors a rating so losing streaks cannot spiral below the minimum.
func Clamp(rating, floor int) int {
	if rating < floor {
		return floor
	}
	return rating
}
