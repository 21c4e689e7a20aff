package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/songleague/internal/adapters/mq/queue"
	worker "github.com/okian/songleague/internal/adapters/mq/worker"
	. "github.com/smartystreets/goconvey/convey"
)

// recorder is a Processor that remembers the leagues it saw.
type recorder struct {
	mu      sync.Mutex
	leagues []string
	fail    map[string]error
	delay   time.Duration
}

func (r *recorder) Process(ctx context.Context, job queue.Job) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leagues = append(r.leagues, job.League)
	return r.fail[job.League]
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.leagues...)
}

func TestPool(t *testing.T) {
	Convey("Given a pool over an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		rec := &recorder{fail: map[string]error{"broken": errors.New("boom")}}
		pool := worker.NewPool(3, q, rec)

		Convey("When jobs are queued and the queue is closed", func() {
			for _, league := range []string{"a", "b", "broken", "c"} {
				So(q.Enqueue(ctx, queue.NewJob(league, false)), ShouldBeNil)
			}
			So(q.Close(), ShouldBeNil)
			pool.Start(ctx)
			pool.Wait()

			Convey("Then every job is processed, failures included", func() {
				So(rec.seen(), ShouldHaveLength, 4)
				So(rec.seen(), ShouldContain, "broken")
				So(pool.Size(), ShouldEqual, 3)
			})
		})

		Convey("When the pool is shut down while idle", func() {
			pool.Start(ctx)
			err := pool.Shutdown(ctx)

			Convey("Then it stops and closes the queue", func() {
				So(err, ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a zero worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), &recorder{})

		Convey("Then one worker per CPU is used", func() {
			So(pool.Size(), ShouldBeGreaterThan, 0)
		})
	})
}

func TestWorkerTimeout(t *testing.T) {
	Convey("Given a worker with a short job timeout", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		rec := &recorder{delay: time.Second}
		var done []error
		var mu sync.Mutex
		proc := worker.ProcessorFunc(func(ctx context.Context, job queue.Job) error {
			err := rec.Process(ctx, job)
			mu.Lock()
			done = append(done, err)
			mu.Unlock()
			return err
		})
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("slow"), worker.WithJobTimeout(20*time.Millisecond))

		So(q.Enqueue(ctx, queue.NewJob("slow", false)), ShouldBeNil)
		So(q.Close(), ShouldBeNil)
		w.Run(ctx)

		Convey("Then the job sees its deadline", func() {
			So(done, ShouldHaveLength, 1)
			So(errors.Is(done[0], context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, &recorder{})
		go w.Run(context.Background())

		Convey("When it is shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			Convey("Then it exits in time", func() {
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
