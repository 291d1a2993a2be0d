package valuation

import (
	"math"
	"slices"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// percentile computes the p-th percentile of an ascending-sorted price
// slice by linear interpolation between order statistics: the fractional
// rank p*(n-1) falls between two neighbours and the value is interpolated
// between them. It reduces to the exact element when the rank is integral,
// e.g. the median of an odd-length set.
func percentile(sorted []float64, p float64) float64 {
	r := p * float64(len(sorted)-1)
	lo := int(math.Floor(r))
	hi := int(math.Ceil(r))
	frac := r - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Summarize computes percentile statistics over the raw guessed prices.
// Nil on empty input; otherwise min <= p10 <= p25 <= p50 <= p75 <= p90 <= max
// holds for every input.
func Summarize(prices []int64) *model.Distribution {
	if len(prices) == 0 {
		return nil
	}
	sorted := make([]float64, len(prices))
	for i, p := range prices {
		sorted[i] = float64(p)
	}
	slices.Sort(sorted)

	return &model.Distribution{
		P10: percentile(sorted, 0.10),
		P25: percentile(sorted, 0.25),
		P50: percentile(sorted, 0.50),
		P75: percentile(sorted, 0.75),
		P90: percentile(sorted, 0.90),
		Min: int64(sorted[0]),
		Max: int64(sorted[len(sorted)-1]),
	}
}
