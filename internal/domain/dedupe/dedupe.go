// Package dedupe defines the interface for idempotency tracking of
// submitted event ids.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event ids so that retried submissions are
// acknowledged instead of appended twice.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing a retry. Used
	// when an event was marked seen but failed to be processed (e.g.
	// queue backpressure).
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked ids.
	Size() int64
}

// memoryDeduper implements Deduper with a bounded seen-set. Eviction is
// FIFO over a ring of ids: once maxSize ids are tracked, recording a new id
// drops the oldest one. maxSize <= 0 disables eviction.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int
	maxSize int
}

// Option applies a configuration option to the deduper.
type Option func(*memoryDeduper)

// WithMaxSize bounds the number of tracked ids. Non-positive means
// unbounded.
func WithMaxSize(n int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = n
	}
}

// defaultMaxSize comfortably covers a full match log.
const defaultMaxSize = 50_000

// NewMemoryDeduper creates an in-memory deduper.
func NewMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if evicted := d.ring[d.head]; evicted != "" {
			delete(d.seen, evicted)
		}
		d.ring[d.head] = id
		d.head = (d.head + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
