// Package valuation computes a consensus Fair Market Value for a property
// from a set of reputation-weighted price guesses plus an official reference
// valuation.
//
// The package is pure and deterministic: no I/O, no shared state. FMV
// computations for distinct properties are safe to run concurrently.
package valuation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// minTrimSize is the fewest guesses for which an outlier can be judged;
// below it the set passes through untouched.
const minTrimSize = 3

// trimSigmas is the cutoff around the weighted center, in units of the
// unweighted price spread.
const trimSigmas = 2.0

// WeightedMean computes the reputation-weighted mean price over a guess set.
// A reputation of zero or below still counts for weight 1: that denies
// Sybil amplification without fully silencing new or poor-standing
// accounts. An empty set yields 0.
func WeightedMean(guesses []model.Guess) float64 {
	if len(guesses) == 0 {
		return 0
	}
	prices := make([]float64, len(guesses))
	weights := make([]float64, len(guesses))
	for i, g := range guesses {
		prices[i] = float64(g.GuessedPrice)
		w := g.Reputation
		if w < 1 {
			w = 1
		}
		weights[i] = float64(w)
	}
	return stat.Mean(prices, weights)
}

// Trim removes statistically extreme guesses before consensus estimation.
//
// The cutoff is centered on the reputation-weighted mean while the spread is
// the population standard deviation of the raw prices around their simple
// mean. The two centers differ on purpose: a handful of high-reputation
// outlier-adjacent guesses may still pull the center before the spread test
// is applied, instead of a single self-referential pass.
func Trim(guesses []model.Guess) []model.Guess {
	if len(guesses) < minTrimSize {
		return guesses
	}

	prices := make([]float64, len(guesses))
	for i, g := range guesses {
		prices[i] = float64(g.GuessedPrice)
	}
	center := WeightedMean(guesses)
	spread := stat.PopStdDev(prices, nil)
	if spread == 0 {
		return guesses
	}

	kept := make([]model.Guess, 0, len(guesses))
	for _, g := range guesses {
		if math.Abs(float64(g.GuessedPrice)-center) <= trimSigmas*spread {
			kept = append(kept, g)
		}
	}
	// A heavily weighted straggler can drag the center outside everyone's
	// 2-sigma band. Consensus over nothing is meaningless, so keep the full
	// set rather than none of it.
	if len(kept) == 0 {
		return guesses
	}
	return kept
}
