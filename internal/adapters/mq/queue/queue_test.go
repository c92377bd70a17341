package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/scoretable/scoretable/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh queue", t, func() {
		q := queue.NewMemQueue(queue.WithCapacity(2))

		Convey("When enqueueing a job", func() {
			ok := q.Enqueue(ctx, queue.Job{Stream: "match-1"})

			Convey("Then it is accepted and counted", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})

			Convey("And a second job for the same stream coalesces", func() {
				So(q.Enqueue(ctx, queue.Job{Stream: "match-1"}), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full of distinct streams", func() {
			So(q.Enqueue(ctx, queue.Job{Stream: "m1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{Stream: "m2"}), ShouldBeTrue)

			Convey("Then a third distinct stream is refused", func() {
				So(q.Enqueue(ctx, queue.Job{Stream: "m3"}), ShouldBeFalse)
			})

			Convey("But an already pending stream is still acknowledged", func() {
				So(q.Enqueue(ctx, queue.Job{Stream: "m1"}), ShouldBeTrue)
			})
		})

		Convey("When dequeueing", func() {
			So(q.Enqueue(ctx, queue.Job{Stream: "match-1"}), ShouldBeTrue)

			jobs := q.Dequeue(ctx)

			Convey("Then the job is delivered", func() {
				select {
				case j := <-jobs:
					So(j.Stream, ShouldEqual, "match-1")
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}

				Convey("And the same stream can be enqueued again", func() {
					So(q.Enqueue(ctx, queue.Job{Stream: "match-1"}), ShouldBeTrue)
					So(q.Len(ctx), ShouldEqual, 1)
				})
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Job{Stream: "match-1"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused", func() {
				So(q.Enqueue(ctx, queue.Job{Stream: "match-2"}), ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})

			Convey("Then the dequeue channel drains and closes", func() {
				jobs := q.Dequeue(ctx)

				var delivered []queue.Job
				for j := range jobs {
					delivered = append(delivered, j)
				}
				So(delivered, ShouldHaveLength, 1)
			})
		})
	})
}
