package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/plotcrowd/fairval/internal/adapters/mq/queue"
	"github.com/plotcrowd/fairval/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func guessSubmission(id string) model.Submission {
	return model.Submission{
		ID:         id,
		Kind:       model.SubmissionGuess,
		PropertyID: "prop-1",
		UserID:     "user-1",
		Price:      400_000,
		TS:         time.Now(),
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with small capacity", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueueing within capacity", func() {
			So(q.Enqueue(ctx, guessSubmission("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, guessSubmission("b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then the queue rejects overflow without blocking", func() {
				So(q.Enqueue(ctx, guessSubmission("c")), ShouldBeFalse)
			})

			Convey("And dequeue yields submissions in order", func() {
				ch := q.Dequeue(ctx)
				first := <-ch
				second := <-ch
				So(first.ID, ShouldEqual, "a")
				So(second.ID, ShouldEqual, "b")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then it reports closed and refuses new submissions", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, guessSubmission("x")), ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the dequeue channel drains then closes", func() {
				_, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})
		})
	})
}
