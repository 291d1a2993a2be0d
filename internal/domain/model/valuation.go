package model

// Confidence is a coarse bucket derived from guess volume. It governs how
// much weight the crowd estimate receives versus the official valuation.
type Confidence string

// Confidence tiers, from no signal to enough independent signal that the
// official valuation is ignored entirely.
const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Distribution holds percentile statistics over the raw guessed prices.
// Invariant: Min <= P10 <= P25 <= P50 <= P75 <= P90 <= Max.
type Distribution struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	Min int64   `json:"min"`
	Max int64   `json:"max"`
}

// FMVResult is the consensus valuation for a property. Field names and
// nullability form the wire contract consumed by the UI: Distribution is nil
// iff GuessCount is zero, DivergencePercent is nil iff FMV or AskingPrice is
// absent or zero.
type FMVResult struct {
	FMV               *int64        `json:"fmv"`
	Confidence        Confidence    `json:"confidence"`
	GuessCount        int           `json:"guessCount"`
	Distribution      *Distribution `json:"distribution"`
	OfficialValue     *int64        `json:"officialValue"`
	AskingPrice       *int64        `json:"askingPrice"`
	DivergencePercent *float64      `json:"divergencePercent"`
}

// ReputationResult carries both reputation scores for a user. PublicScore is
// what the UI shows and is never negative; InternalScore keeps tracking
// abusive or low-quality guessers below zero without exposing that.
type ReputationResult struct {
	PublicScore   int `json:"public_score"`
	InternalScore int `json:"internal_score"`
}

// KarmaRank is a displayed reputation tier. It has no persisted identity;
// it is a pure function of the public score.
type KarmaRank struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}
