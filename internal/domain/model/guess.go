// Package model contains domain models passed between layers.
package model

import "errors"

// ErrUnorderedHistory reports a resolved-guess slice whose sequence indexes
// are not strictly increasing. The aggregator must never silently reorder
// its input, so construction fails loudly instead.
var ErrUnorderedHistory = errors.New("resolved guesses not ordered by sequence index")

// Guess is a single price prediction entering consensus estimation.
// Prices are whole currency units; no minor units, no floats.
type Guess struct {
	GuessedPrice int64 // predicted sale price, > 0
	Reputation   int   // guesser's public karma at computation time, may be <= 0
}

// ResolvedGuess pairs a historical prediction with the realized sale price.
type ResolvedGuess struct {
	GuessedPrice  int64
	ActualPrice   int64
	SequenceIndex int // rank among the user's resolved, non-meme guesses, 0-based
}

// ResolvedHistory wraps a user's resolved guesses in submission order.
// It can only be built through NewResolvedHistory, which rejects unordered
// input; application code never assembles the slice ad hoc.
type ResolvedHistory struct {
	guesses []ResolvedGuess
}

// NewResolvedHistory validates that sequence indexes start at zero and are
// strictly increasing, then wraps the slice. The slice is not copied; the
// caller hands over ownership.
func NewResolvedHistory(guesses []ResolvedGuess) (ResolvedHistory, error) {
	for i, g := range guesses {
		if g.SequenceIndex != i {
			return ResolvedHistory{}, ErrUnorderedHistory
		}
	}
	return ResolvedHistory{guesses: guesses}, nil
}

// Guesses returns the resolved guesses in sequence order.
func (h ResolvedHistory) Guesses() []ResolvedGuess { return h.guesses }

// Len returns the number of resolved guesses in the history.
func (h ResolvedHistory) Len() int { return len(h.guesses) }
