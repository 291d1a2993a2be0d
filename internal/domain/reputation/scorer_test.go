package reputation_test

import (
	"testing"

	"github.com/plotcrowd/fairval/internal/domain/reputation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given a resolved guess and its realized sale price", t, func() {
		Convey("When the guess is within 5% of the sale price", func() {
			reward, deviation := reputation.Score(402_000, 400_000)
			So(reward, ShouldEqual, 10)
			So(deviation, ShouldAlmostEqual, 0.005)
		})

		Convey("When the guess sits exactly on a tier boundary", func() {
			Convey("Then 5% earns the top reward", func() {
				reward, _ := reputation.Score(420_000, 400_000)
				So(reward, ShouldEqual, 10)
			})
			Convey("And 10% earns the second tier", func() {
				reward, _ := reputation.Score(440_000, 400_000)
				So(reward, ShouldEqual, 5)
			})
			Convey("And 20% earns the third tier", func() {
				reward, _ := reputation.Score(480_000, 400_000)
				So(reward, ShouldEqual, 2)
			})
			Convey("And 50% is still neutral", func() {
				reward, _ := reputation.Score(600_000, 400_000)
				So(reward, ShouldEqual, 0)
			})
		})

		Convey("When the guess misses by more than half", func() {
			reward, deviation := reputation.Score(1_000_000, 400_000)
			So(reward, ShouldEqual, -3)
			So(deviation, ShouldAlmostEqual, 1.5)
		})

		Convey("When undershooting, deviation is symmetric", func() {
			reward, deviation := reputation.Score(200_000, 400_000)
			So(reward, ShouldEqual, 0)
			So(deviation, ShouldAlmostEqual, 0.5)
		})

		Convey("When the sale price is degenerate", func() {
			Convey("Then zero yields the neutral pair", func() {
				reward, deviation := reputation.Score(400_000, 0)
				So(reward, ShouldEqual, 0)
				So(deviation, ShouldEqual, 1)
			})
			Convey("And a negative price does too", func() {
				reward, deviation := reputation.Score(400_000, -1)
				So(reward, ShouldEqual, 0)
				So(deviation, ShouldEqual, 1)
			})
		})
	})
}

func TestIsMeme(t *testing.T) {
	Convey("Given an official reference valuation of 400000", t, func() {
		official := int64(400_000)

		Convey("When the guess is inside the plausible band", func() {
			So(reputation.IsMeme(400_000, &official), ShouldBeFalse)
			So(reputation.IsMeme(120_000, &official), ShouldBeFalse)
		})

		Convey("When the guess sits exactly on a boundary ratio", func() {
			// 0.2 and 5.0 are themselves not flagged.
			So(reputation.IsMeme(80_000, &official), ShouldBeFalse)
			So(reputation.IsMeme(2_000_000, &official), ShouldBeFalse)
		})

		Convey("When the guess crosses a boundary", func() {
			So(reputation.IsMeme(79_999, &official), ShouldBeTrue)
			So(reputation.IsMeme(2_000_001, &official), ShouldBeTrue)
		})
	})

	Convey("Given no usable reference valuation", t, func() {
		Convey("When the official value is absent", func() {
			So(reputation.IsMeme(1, nil), ShouldBeFalse)
		})
		Convey("When the official value is non-positive", func() {
			zero := int64(0)
			negative := int64(-5)
			So(reputation.IsMeme(1_000_000_000, &zero), ShouldBeFalse)
			So(reputation.IsMeme(1_000_000_000, &negative), ShouldBeFalse)
		})
	})
}
