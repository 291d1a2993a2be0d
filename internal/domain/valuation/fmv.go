package valuation

import (
	"math"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// round2 rounds to two decimal places, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Divergence expresses FMV versus the listed asking price as a signed
// percentage, rounded to two decimals. Positive means the crowd believes
// the property is underpriced relative to the ask. Nil when either side is
// missing or the ask is non-positive.
func Divergence(fmv, askingPrice *int64) *float64 {
	if fmv == nil || *fmv == 0 || askingPrice == nil || *askingPrice <= 0 {
		return nil
	}
	d := round2(100 * float64(*fmv-*askingPrice) / float64(*askingPrice))
	return &d
}

// ComputeFMV turns a property's guess set plus the official reference
// valuation into a consensus valuation: trim outliers, take the
// reputation-weighted mean, blend with the official value according to
// confidence, and summarize the (trimmed) price distribution. With no
// guesses at all, the official valuation passes through as the FMV.
func ComputeFMV(guesses []model.Guess, officialValue, askingPrice *int64) model.FMVResult {
	res := model.FMVResult{
		GuessCount:    len(guesses),
		Confidence:    model.ConfidenceNone,
		OfficialValue: officialValue,
		AskingPrice:   askingPrice,
	}

	if len(guesses) == 0 {
		res.FMV = officialValue
	} else {
		trimmed := Trim(guesses)
		crowd := WeightedMean(trimmed)
		res.Confidence = Confidence(len(guesses))

		fmv := int64(math.Round(Blend(crowd, officialValue, res.Confidence)))
		res.FMV = &fmv

		prices := make([]int64, len(trimmed))
		for i, g := range trimmed {
			prices[i] = g.GuessedPrice
		}
		res.Distribution = Summarize(prices)
	}

	res.DivergencePercent = Divergence(res.FMV, askingPrice)
	return res
}
