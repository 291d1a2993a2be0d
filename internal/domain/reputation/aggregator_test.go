package reputation_test

import (
	"testing"

	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/reputation"
	. "github.com/smartystreets/goconvey/convey"
)

func resolved(t *testing.T, pairs ...[2]int64) model.ResolvedHistory {
	t.Helper()
	guesses := make([]model.ResolvedGuess, len(pairs))
	for i, p := range pairs {
		guesses[i] = model.ResolvedGuess{GuessedPrice: p[0], ActualPrice: p[1], SequenceIndex: i}
	}
	h, err := model.NewResolvedHistory(guesses)
	if err != nil {
		t.Fatalf("building history: %v", err)
	}
	return h
}

func TestAggregate(t *testing.T) {
	Convey("Given an empty history", t, func() {
		res := reputation.Aggregate(model.ResolvedHistory{})
		So(res.PublicScore, ShouldEqual, 0)
		So(res.InternalScore, ShouldEqual, 0)
	})

	Convey("Given six consecutive perfect guesses", t, func() {
		perfect := [2]int64{400_000, 400_000}
		h := resolved(t, perfect, perfect, perfect, perfect, perfect, perfect)

		Convey("Then damping halves the first five and one streak bonus lands", func() {
			// 5*(10*0.5) + 10 + 2 = 37
			res := reputation.Aggregate(h)
			So(res.InternalScore, ShouldEqual, 37)
			So(res.PublicScore, ShouldEqual, 37)
		})
	})

	Convey("Given five perfect guesses only", t, func() {
		perfect := [2]int64{400_000, 400_000}
		h := resolved(t, perfect, perfect, perfect, perfect, perfect)

		Convey("Then the fifth accurate guess completes a streak", func() {
			// 5*(10*0.5) + 2
			res := reputation.Aggregate(h)
			So(res.InternalScore, ShouldEqual, 27)
		})
	})

	Convey("Given a wildly wrong guess in the middle", t, func() {
		perfect := [2]int64{400_000, 400_000}
		wild := [2]int64{1_000_000, 400_000}
		h := resolved(t, perfect, perfect, wild, perfect, perfect)

		Convey("Then the streak resets and no bonus is paid", func() {
			// rewards 10,10,-3,10,10 all at half weight = 18.5, rounded away from zero
			res := reputation.Aggregate(h)
			So(res.InternalScore, ShouldEqual, 19)
		})
	})

	Convey("Given a history of nothing but wild guesses", t, func() {
		wild := [2]int64{1_000_000, 400_000}
		h := resolved(t, wild, wild, wild, wild, wild, wild)

		Convey("Then the internal score goes negative and the public score clamps", func() {
			// 5*(-3*0.5) + (-3) = -10.5 -> -11
			res := reputation.Aggregate(h)
			So(res.InternalScore, ShouldEqual, -11)
			So(res.PublicScore, ShouldEqual, 0)
		})
	})

	Convey("Given the streak bonus lands after the damping window", t, func() {
		fair := [2]int64{480_000, 400_000} // exactly 20% off, reward 2, keeps streak
		h := resolved(t, fair, fair, fair, fair, fair, fair, fair, fair, fair, fair)

		Convey("Then the bonus is flat, not weight-scaled", func() {
			// 5*(2*0.5) + 2 + 5*2 + 2 = 19
			res := reputation.Aggregate(h)
			So(res.InternalScore, ShouldEqual, 19)
		})
	})
}

func TestNewResolvedHistory(t *testing.T) {
	Convey("Given resolved guesses out of sequence order", t, func() {
		_, err := model.NewResolvedHistory([]model.ResolvedGuess{
			{GuessedPrice: 1, ActualPrice: 1, SequenceIndex: 1},
			{GuessedPrice: 1, ActualPrice: 1, SequenceIndex: 0},
		})

		Convey("Then construction fails loudly", func() {
			So(err, ShouldEqual, model.ErrUnorderedHistory)
		})
	})

	Convey("Given a gap in the sequence", t, func() {
		_, err := model.NewResolvedHistory([]model.ResolvedGuess{
			{GuessedPrice: 1, ActualPrice: 1, SequenceIndex: 0},
			{GuessedPrice: 1, ActualPrice: 1, SequenceIndex: 2},
		})
		So(err, ShouldEqual, model.ErrUnorderedHistory)
	})

	Convey("Given a well-formed sequence", t, func() {
		h, err := model.NewResolvedHistory([]model.ResolvedGuess{
			{GuessedPrice: 1, ActualPrice: 1, SequenceIndex: 0},
			{GuessedPrice: 2, ActualPrice: 2, SequenceIndex: 1},
		})
		So(err, ShouldBeNil)
		So(h.Len(), ShouldEqual, 2)
	})
}
