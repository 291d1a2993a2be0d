// Package reputation converts a user's history of resolved price guesses
// into a karma score, and flags guesses too absurd to ever count toward it.
//
// Everything in this package is a pure function: no I/O, no shared state,
// total over the documented domain. Computations for distinct users are
// safe to run concurrently.
package reputation

import "math"

// Accuracy reward tiers. First match wins, evaluated in increasing
// deviation order; anything beyond half the sale price costs karma.
const (
	deviationExcellent = 0.05
	deviationGood      = 0.10
	deviationFair      = 0.20
	deviationPoor      = 0.50

	rewardExcellent = 10
	rewardGood      = 5
	rewardFair      = 2
	rewardPoor      = 0
	rewardWild      = -3
)

// Meme detection bounds: a guess below 20% or above 500% of the official
// valuation is noise or abuse. The boundaries themselves are not flagged.
const (
	memeRatioFloor   = 0.2
	memeRatioCeiling = 5.0
)

// Score converts one (guess, realized sale price) pair into a karma reward
// and the normalized deviation from the sale price. A degenerate reference
// price yields the neutral (0, 1) rather than failing; callers should not
// score such pairs in the first place.
func Score(guessedPrice, actualPrice int64) (reward int, deviation float64) {
	if actualPrice <= 0 {
		return 0, 1
	}
	deviation = math.Abs(float64(guessedPrice-actualPrice)) / float64(actualPrice)
	switch {
	case deviation <= deviationExcellent:
		reward = rewardExcellent
	case deviation <= deviationGood:
		reward = rewardGood
	case deviation <= deviationFair:
		reward = rewardFair
	case deviation <= deviationPoor:
		reward = rewardPoor
	default:
		reward = rewardWild
	}
	return reward, deviation
}

// IsMeme reports whether a guess is wildly inconsistent with the official
// reference valuation at submission time. Flagged guesses are persisted as
// such and permanently excluded from reputation scoring; without a usable
// reference there is nothing to judge against and the guess passes.
func IsMeme(guessedPrice int64, officialValue *int64) bool {
	if officialValue == nil || *officialValue <= 0 {
		return false
	}
	ratio := float64(guessedPrice) / float64(*officialValue)
	return ratio < memeRatioFloor || ratio > memeRatioCeiling
}
