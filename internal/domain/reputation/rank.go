package reputation

import "github.com/plotcrowd/fairval/internal/domain/model"

// rankStep is one row of a descending threshold table.
type rankStep struct {
	min   int
	title string
	level int
}

// engineRanks is the authoritative tier table: it decides the level shown
// next to a user's karma and is aligned with the thresholds the scoring
// engine was tuned against.
var engineRanks = []rankStep{
	{min: 500, title: "Meester Taxateur", level: 6},
	{min: 200, title: "Taxateur", level: 5},
	{min: 100, title: "Wijkexpert", level: 4},
	{min: 50, title: "Buurtkenner", level: 3},
	{min: 10, title: "Speurder", level: 2},
	{min: 0, title: "Nieuwkomer", level: 1},
}

// displayBadges is the legacy English vocabulary used for display
// formatting. Its thresholds disagree with the engine table and the two are
// intentionally kept separate: merging them would move user-visible rank
// boundaries.
var displayBadges = []rankStep{
	{min: 10000, title: "Legend", level: 6},
	{min: 5000, title: "Oracle", level: 5},
	{min: 1000, title: "Expert", level: 4},
	{min: 250, title: "Analyst", level: 3},
	{min: 50, title: "Scout", level: 2},
	{min: 0, title: "Rookie", level: 1},
}

func classify(table []rankStep, score int) model.KarmaRank {
	if score < 0 {
		score = 0
	}
	for _, s := range table {
		if score >= s.min {
			return model.KarmaRank{Title: s.title, Level: s.level}
		}
	}
	// Unreachable: the last row matches every clamped score.
	last := table[len(table)-1]
	return model.KarmaRank{Title: last.title, Level: last.level}
}

// Rank maps a public karma score to its displayed tier. Negative input is
// already excluded upstream but the classifier still clamps.
func Rank(publicScore int) model.KarmaRank {
	return classify(engineRanks, publicScore)
}

// DisplayBadge maps a public karma score to the legacy display vocabulary.
func DisplayBadge(publicScore int) model.KarmaRank {
	return classify(displayBadges, publicScore)
}
