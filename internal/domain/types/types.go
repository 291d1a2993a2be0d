// Package types contains common types used across the application
package types

import "github.com/plotcrowd/fairval/internal/domain/model"

// Entry represents a karma leaderboard entry
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Karma  int    `json:"karma"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
}

// KarmaStatus is the full public reputation view for one user. Rank is the
// board position, 0 when the user has never been ranked. Badge carries the
// legacy display vocabulary alongside the rank title.
type KarmaStatus struct {
	UserID string          `json:"user_id"`
	Karma  int             `json:"karma"`
	Rank   int             `json:"rank"`
	Title  string          `json:"title"`
	Level  int             `json:"level"`
	Badge  model.KarmaRank `json:"badge"`
}
