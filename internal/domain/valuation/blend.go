package valuation

import "github.com/plotcrowd/fairval/internal/domain/model"

// Guess-count thresholds for the confidence tiers.
const (
	lowConfidenceCount    = 1
	mediumConfidenceCount = 3
	highConfidenceCount   = 10
)

// Blend ratios: at low confidence the official valuation dominates, at
// medium the crowd does.
const (
	lowOfficialShare    = 0.7
	mediumOfficialShare = 0.3
)

// Confidence maps the number of guesses to a confidence tier. It operates
// on the unfiltered count, not the post-trim count.
func Confidence(guessCount int) model.Confidence {
	switch {
	case guessCount >= highConfidenceCount:
		return model.ConfidenceHigh
	case guessCount >= mediumConfidenceCount:
		return model.ConfidenceMedium
	case guessCount >= lowConfidenceCount:
		return model.ConfidenceLow
	default:
		return model.ConfidenceNone
	}
}

// Blend mixes the crowd estimate with the official reference valuation
// according to confidence. Without a usable official value the crowd
// estimate stands on its own; at high confidence the official valuation is
// ignored because enough independent signal exists. Rounding to whole
// currency units is the orchestrator's job, not Blend's.
func Blend(crowdEstimate float64, officialValue *int64, confidence model.Confidence) float64 {
	if confidence == model.ConfidenceNone {
		if officialValue != nil && *officialValue > 0 {
			return float64(*officialValue)
		}
		return 0
	}
	if officialValue == nil || *officialValue <= 0 {
		return crowdEstimate
	}
	official := float64(*officialValue)
	switch confidence {
	case model.ConfidenceLow:
		return lowOfficialShare*official + (1-lowOfficialShare)*crowdEstimate
	case model.ConfidenceMedium:
		return mediumOfficialShare*official + (1-mediumOfficialShare)*crowdEstimate
	default: // high
		return crowdEstimate
	}
}
