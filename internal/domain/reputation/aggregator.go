package reputation

import (
	"math"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// New-account damping and streak bonus parameters.
const (
	rookieGuessCount = 5   // resolved guesses damped at the start of a history
	rookieWeight     = 0.5 // damping factor for those guesses
	fullWeight       = 1.0

	streakLength = 5 // consecutive accurate guesses per bonus
	streakBonus  = 2 // flat, deliberately not weight-scaled
)

// foldState is the accumulator threaded through the aggregation fold.
// Keeping it an explicit value (rather than mutating locals) makes every
// step independently testable.
type foldState struct {
	score  float64 // running internal score
	streak int     // consecutive guesses within the fair-deviation band
}

// step folds a single resolved guess into the state. A user's first five
// resolved predictions count at half weight to blunt throwaway-account
// manipulation; every fifth consecutive accurate guess earns a flat bonus
// regardless of account age.
func step(st foldState, g model.ResolvedGuess) foldState {
	reward, deviation := Score(g.GuessedPrice, g.ActualPrice)

	weight := fullWeight
	if g.SequenceIndex < rookieGuessCount {
		weight = rookieWeight
	}
	st.score += float64(reward) * weight

	if deviation <= deviationFair {
		st.streak++
		if st.streak%streakLength == 0 {
			st.score += streakBonus
		}
	} else {
		st.streak = 0
	}
	return st
}

// Aggregate folds a user's resolved, non-meme guesses in sequence order into
// a reputation result. The internal score is rounded half away from zero;
// the public score clamps it at zero. An empty history yields (0, 0).
func Aggregate(history model.ResolvedHistory) model.ReputationResult {
	st := foldState{}
	for _, g := range history.Guesses() {
		st = step(st, g)
	}
	internal := int(math.Round(st.score))
	public := internal
	if public < 0 {
		public = 0
	}
	return model.ReputationResult{PublicScore: public, InternalScore: internal}
}

// Compute is the externally consumed reputation operation. The store-bound
// caller fetches the user's eligible guesses, assigns sequence indexes by
// chronological rank among them, and persists both scores afterwards.
func Compute(history model.ResolvedHistory) model.ReputationResult {
	return Aggregate(history)
}
