// Package worker runs the replay pipeline: it consumes replay jobs, feeds
// the stream's full log through the annotate/reduce engine and materializes
// the snapshot.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/scoretable/scoretable/internal/adapters/mq/queue"
	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/reduce"
	"github.com/scoretable/scoretable/internal/domain/timeline"
	"github.com/scoretable/scoretable/pkg/logger"
	"github.com/scoretable/scoretable/pkg/metrics"
)

// Source defines how workers receive jobs.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Log provides read access to a stream's event log.
type Log interface {
	Events(ctx context.Context, stream string) ([]game.Event, error)
}

// Sink receives materialized snapshots.
type Sink interface {
	SetSnapshot(ctx context.Context, stream string, state game.GlobalState, asOf int64)
}

// Notifier is told when a stream's snapshot changed. Optional.
type Notifier interface {
	StreamUpdated(stream string, state game.GlobalState)
}

// Replayer processes replay jobs until stopped.
type Replayer struct {
	source   Source
	log      Log
	sink     Sink
	notifier Notifier

	rules  game.Rules
	policy timeline.Policy
	now    game.Stamper
	name   string

	done chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Replayer.
type Option func(*Replayer)

// WithName sets the worker name for logging.
func WithName(name string) Option {
	return func(w *Replayer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithRules sets the domain parameters used by the engine.
func WithRules(r game.Rules) Option {
	return func(w *Replayer) {
		w.rules = r
	}
}

// WithPolicy sets the annotator's sequencing policy.
func WithPolicy(p timeline.Policy) Option {
	return func(w *Replayer) {
		w.policy = p
	}
}

// WithNotifier sets the snapshot-change notifier.
func WithNotifier(n Notifier) Option {
	return func(w *Replayer) {
		w.notifier = n
	}
}

// WithStamper sets the wall-clock source for snapshot timestamps.
func WithStamper(now game.Stamper) Option {
	return func(w *Replayer) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Replayer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewReplayer creates a replay worker.
func NewReplayer(source Source, log Log, sink Sink, opts ...Option) *Replayer {
	w := &Replayer{
		source: source,
		log:    log,
		sink:   sink,
		rules:  game.DefaultRules(),
		policy: timeline.PolicyLenient,
		now:    game.WallClock,
		name:   "replayer",
		done:   make(chan struct{}),
		logger: logger.Get().Named("replayer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is canceled or the queue closes.
func (w *Replayer) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.replay(ctx, j.Stream); err != nil {
				metrics.RecordReplayError()
				w.logger.Error(ctx, "replay failed",
					logger.String("stream", j.Stream),
					logger.Error(err),
				)
			}
		}
	}
}

// replay recomputes the stream's snapshot from its full log.
func (w *Replayer) replay(ctx context.Context, stream string) error {
	start := time.Now()
	defer func() {
		metrics.RecordReplayLatency(float64(time.Since(start).Milliseconds()))
	}()

	events, err := w.log.Events(ctx, stream)
	if err != nil {
		return fmt.Errorf("load events for %s: %w", stream, err)
	}

	annotated, err := timeline.Annotate(events,
		timeline.WithRules(w.rules),
		timeline.WithPolicy(w.policy),
	)
	if err != nil {
		return fmt.Errorf("annotate %s: %w", stream, err)
	}

	state := reduce.Reduce(annotated, reduce.WithRules(w.rules))
	w.sink.SetSnapshot(ctx, stream, state, w.now())
	metrics.RecordReplay()

	if w.notifier != nil {
		w.notifier.StreamUpdated(stream, state)
	}
	return nil
}

// Pool manages a fixed set of replay workers.
type Pool struct {
	workers []*Replayer
	logger  logger.Logger
}

const poolShutdownTimeout = 10 * time.Second

// NewPool creates workerCount replay workers sharing the same source, log
// and sink.
func NewPool(workerCount int, source Source, log Log, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Pool{
		workers: make([]*Replayer, workerCount),
		logger:  logger.Get().Named("replay-pool"),
	}
	for i := range p.workers {
		named := append([]Option{WithName("replayer-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewReplayer(source, log, sink, named...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop waits for all workers to finish. The queue must be closed (or the
// run context canceled) first.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(poolShutdownTimeout):
			p.logger.Warn(context.Background(), "worker shutdown timed out",
				logger.String("worker", w.name),
			)
		}
	}
}
