package valuation_test

import (
	"testing"

	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/valuation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeightedMean(t *testing.T) {
	Convey("Given an empty guess set", t, func() {
		So(valuation.WeightedMean(nil), ShouldEqual, 0)
	})

	Convey("Given guesses with equal reputation", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 100, Reputation: 7},
			{GuessedPrice: 200, Reputation: 7},
			{GuessedPrice: 300, Reputation: 7},
		}

		Convey("Then the weighted mean reduces to the arithmetic mean", func() {
			So(valuation.WeightedMean(guesses), ShouldAlmostEqual, 200)
		})
	})

	Convey("Given unequal reputations", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 100, Reputation: 3},
			{GuessedPrice: 200, Reputation: 1},
		}

		Convey("Then higher karma pulls the mean toward its guess", func() {
			So(valuation.WeightedMean(guesses), ShouldAlmostEqual, 125)
		})

		Convey("And the mean stays within the price bounds", func() {
			m := valuation.WeightedMean(guesses)
			So(m, ShouldBeGreaterThanOrEqualTo, 100)
			So(m, ShouldBeLessThanOrEqualTo, 200)
		})
	})

	Convey("Given zero and negative reputations", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 100, Reputation: 0},
			{GuessedPrice: 300, Reputation: -50},
		}

		Convey("Then each still counts for weight one", func() {
			So(valuation.WeightedMean(guesses), ShouldAlmostEqual, 200)
		})
	})
}

func TestTrim(t *testing.T) {
	Convey("Given fewer than three guesses", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 100, Reputation: 1},
			{GuessedPrice: 1_000_000, Reputation: 1},
		}

		Convey("Then the set passes through untouched", func() {
			So(valuation.Trim(guesses), ShouldResemble, guesses)
		})
	})

	Convey("Given identical prices", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 500, Reputation: 1},
			{GuessedPrice: 500, Reputation: 9},
			{GuessedPrice: 500, Reputation: 0},
		}

		Convey("Then nothing is dropped despite zero spread", func() {
			So(valuation.Trim(guesses), ShouldHaveLength, 3)
		})
	})

	Convey("Given a clustered set with one extreme guess", t, func() {
		guesses := []model.Guess{
			{GuessedPrice: 400_000, Reputation: 10},
			{GuessedPrice: 410_000, Reputation: 10},
			{GuessedPrice: 390_000, Reputation: 10},
			{GuessedPrice: 405_000, Reputation: 10},
			{GuessedPrice: 1_000_000, Reputation: 1},
		}

		Convey("Then the extreme guess is trimmed", func() {
			kept := valuation.Trim(guesses)
			So(kept, ShouldHaveLength, 4)
			for _, g := range kept {
				So(g.GuessedPrice, ShouldBeLessThan, 1_000_000)
			}
		})

		Convey("And trimming never grows the set", func() {
			So(len(valuation.Trim(guesses)), ShouldBeLessThanOrEqualTo, len(guesses))
		})
	})

	Convey("Given a heavily weighted guess far from a tight cluster", t, func() {
		// Twenty unit-weight guesses on one side, a single guess carrying
		// the same total weight on the other. The weighted center lands
		// midway, outside every guess's 2-sigma band.
		guesses := make([]model.Guess, 0, 21)
		for i := 0; i < 20; i++ {
			guesses = append(guesses, model.Guess{GuessedPrice: 400_000, Reputation: 0})
		}
		guesses = append(guesses, model.Guess{GuessedPrice: 440_000, Reputation: 20})

		Convey("Then the full set survives instead of trimming to nothing", func() {
			So(valuation.Trim(guesses), ShouldHaveLength, 21)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given no prices", t, func() {
		So(valuation.Summarize(nil), ShouldBeNil)
	})

	Convey("Given a single price", t, func() {
		d := valuation.Summarize([]int64{350_000})

		Convey("Then all seven fields equal that price", func() {
			So(d.Min, ShouldEqual, 350_000)
			So(d.Max, ShouldEqual, 350_000)
			So(d.P10, ShouldEqual, 350_000)
			So(d.P25, ShouldEqual, 350_000)
			So(d.P50, ShouldEqual, 350_000)
			So(d.P75, ShouldEqual, 350_000)
			So(d.P90, ShouldEqual, 350_000)
		})
	})

	Convey("Given an odd-length set", t, func() {
		d := valuation.Summarize([]int64{300, 100, 200})

		Convey("Then the median is the exact middle element", func() {
			So(d.P50, ShouldEqual, 200)
		})
	})

	Convey("Given an even-length set", t, func() {
		d := valuation.Summarize([]int64{100, 200, 300, 400})

		Convey("Then percentiles interpolate between order statistics", func() {
			So(d.P50, ShouldAlmostEqual, 250)
			So(d.P25, ShouldAlmostEqual, 175)
			So(d.P75, ShouldAlmostEqual, 325)
		})
	})

	Convey("Given any unsorted input", t, func() {
		d := valuation.Summarize([]int64{900, 100, 500, 300, 700, 200, 800, 400, 600})

		Convey("Then the percentile chain is monotonic", func() {
			So(float64(d.Min), ShouldBeLessThanOrEqualTo, d.P10)
			So(d.P10, ShouldBeLessThanOrEqualTo, d.P25)
			So(d.P25, ShouldBeLessThanOrEqualTo, d.P50)
			So(d.P50, ShouldBeLessThanOrEqualTo, d.P75)
			So(d.P75, ShouldBeLessThanOrEqualTo, d.P90)
			So(d.P90, ShouldBeLessThanOrEqualTo, float64(d.Max))
		})
	})
}
