// Package queue defines the contract for scheduling replay jobs.
//
// A job names a stream whose log changed and whose snapshot must be
// recomputed. Jobs for the same stream coalesce while one is still pending:
// the replay always reads the full log, so one recompute covers any number
// of appends.
package queue

import (
	"context"
	"sync"

	"github.com/scoretable/scoretable/pkg/metrics"
)

// Job names a stream to replay.
type Job struct {
	Stream string
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue schedules a replay. Returns false if the queue is full.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel delivering jobs as they become
	// available. The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close shuts the queue down; no new jobs can be enqueued after.
	Close() error
}

// MemQueue implements Queue with a buffered channel and a pending-set for
// coalescing.
type MemQueue struct {
	jobs     chan Job
	capacity int

	mu      sync.Mutex
	pending map[string]bool
	closed  bool
}

const defaultCapacity = 1024

// Option applies a configuration option to the MemQueue.
type Option func(*MemQueue)

// WithCapacity bounds the number of queued jobs.
func WithCapacity(n int) Option {
	return func(q *MemQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// NewMemQueue creates an in-memory replay queue.
func NewMemQueue(opts ...Option) *MemQueue {
	q := &MemQueue{
		capacity: defaultCapacity,
		pending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue schedules a replay of the job's stream. A stream already pending
// is reported as accepted without queueing a second job.
func (q *MemQueue) Enqueue(_ context.Context, j Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return false
	}
	if q.pending[j.Stream] {
		return true
	}

	select {
	case q.jobs <- j:
		q.pending[j.Stream] = true
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	default:
		metrics.RecordQueueDropped()
		return false
	}
}

// Dequeue returns the job channel. Consumers must call Done-like semantics
// implicitly: the pending mark clears on delivery, so a later append while
// the replay runs schedules a fresh job.
func (q *MemQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			q.mu.Lock()
			delete(q.pending, j.Stream)
			q.mu.Unlock()
			metrics.UpdateQueueSize(len(q.jobs))

			select {
			case out <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *MemQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close shuts the queue down.
func (q *MemQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}
