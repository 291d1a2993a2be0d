// Package repository holds the in-memory stores backing the valuation
// service: the property/guess store feeding the engine, and the treap-based
// karma leaderboard.
package repository

import (
	"context"
	"time"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// Entry represents a karma leaderboard row.
type Entry struct {
	Rank   int
	UserID string
	Karma  int
}

// GuessRow is a stored price guess with its submission metadata.
type GuessRow struct {
	ID         string
	PropertyID string
	UserID     string
	Price      int64
	Meme       bool // flagged at submission time, permanently excludes from reputation
	Submitted  time.Time
}

// PropertySnapshot is a consistent read of one property's valuation inputs.
type PropertySnapshot struct {
	OfficialValue *int64
	AskingPrice   *int64
	SalePrice     *int64
	Guesses       []GuessRow
}

// Board provides read/write access to the karma ranking state.
type Board interface {
	// SetScore upserts a user's public karma score.
	SetScore(ctx context.Context, userID string, karma int) error

	// Score returns the user's current karma score, defaulting to 0 for
	// unknown users.
	Score(ctx context.Context, userID string) int

	// Rank returns the current rank and karma for a user.
	// Returns ErrNotFound if the user is unknown.
	Rank(ctx context.Context, userID string) (Entry, error)

	// TopN returns the top-N entries ordered by karma desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of users tracked on the board.
	Count(ctx context.Context) int
}

// Properties provides read/write access to guesses, sales and reference
// valuations, and derives the ordered resolved histories the reputation
// engine consumes.
type Properties interface {
	// UpsertProperty records or updates a property's reference prices.
	UpsertProperty(ctx context.Context, propertyID string, official, asking *int64) error

	// AddGuess stores a guess. The property is created implicitly when it
	// has not been registered yet.
	AddGuess(ctx context.Context, row GuessRow) error

	// RecordSale records a sale event and returns the IDs of all users
	// whose guesses on the property became resolved by it.
	RecordSale(ctx context.Context, propertyID string, price int64, at time.Time) ([]string, error)

	// Snapshot returns a consistent copy of a property's valuation inputs.
	// Returns ErrUnknownProperty for properties never seen.
	Snapshot(ctx context.Context, propertyID string) (PropertySnapshot, error)

	// ResolvedHistory assembles a user's resolved, non-meme guesses in
	// submission order, assigning sequence indexes by chronological rank
	// among exactly those guesses.
	ResolvedHistory(ctx context.Context, userID string) (model.ResolvedHistory, error)

	// UserIDs lists every user that has submitted at least one guess.
	UserIDs(ctx context.Context) []string

	// PropertyCount returns the number of properties tracked.
	PropertyCount(ctx context.Context) int
}
