// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the live feed.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jonboulle/clockwork"

	eventqueue "github.com/scoretable/scoretable/internal/adapters/mq/queue"
	workerpool "github.com/scoretable/scoretable/internal/adapters/mq/worker"
	"github.com/scoretable/scoretable/internal/adapters/repository"
	"github.com/scoretable/scoretable/internal/domain/clock"
	"github.com/scoretable/scoretable/internal/domain/dedupe"
	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/reduce"
	"github.com/scoretable/scoretable/internal/domain/timeline"
	"github.com/scoretable/scoretable/pkg/logger"
	"github.com/scoretable/scoretable/pkg/metrics"
)

// Service implements the API dependencies for the scorekeeping system.
type Service struct {
	mu sync.RWMutex

	// Core components
	log        repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	factory    *game.Factory

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	rules       game.Rules
	policy      timeline.Policy
	wall        clockwork.Clock
	idGen       game.IDGen
	notifier    workerpool.Notifier

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of replay worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the replay queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRules sets the match parameters used for annotation, reduction and
// clock sampling.
func WithRules(r game.Rules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithPolicy sets the sequencing policy for the timing annotator.
func WithPolicy(p timeline.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithClock sets the wall clock. Tests inject a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.wall = c
		}
	}
}

// WithIDGen sets the generator for event ids assigned server-side.
func WithIDGen(gen game.IDGen) Option {
	return func(s *Service) {
		if gen != nil {
			s.idGen = gen
		}
	}
}

// WithNotifier sets the sink notified after each successful replay,
// typically the live-feed hub.
func WithNotifier(n workerpool.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50000,
		rules:       game.DefaultRules(),
		policy:      timeline.PolicyLenient,
		wall:        clockwork.NewRealClock(),
		idGen:       game.UUIDGen,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoretable service")

	s.log = repository.NewMemLog()
	s.deduper = dedupe.NewMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewMemQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.factory = game.NewFactory(
		game.WithStamper(s.now),
		game.WithIDGen(s.idGen),
	)

	workerOpts := []workerpool.Option{
		workerpool.WithRules(s.rules),
		workerpool.WithPolicy(s.policy),
		workerpool.WithStamper(s.now),
		workerpool.WithLogger(s.logger.Named("replay")),
	}
	if s.notifier != nil {
		workerOpts = append(workerOpts, workerpool.WithNotifier(s.notifier))
	}
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.log, s.log, workerOpts...)
	s.workerPool.Start(ctx)

	metrics.UpdateWorkerCount(s.workerCount)
	metrics.UpdateQueueCapacity(s.queueSize)

	s.started = true
	s.logger.Info(ctx, "scoretable service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoretable service")

	// Closing the queue first lets the workers drain and exit.
	if s.eventQueue != nil {
		_ = s.eventQueue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "scoretable service stopped")
}

// now returns the current wall time in unix milliseconds.
func (s *Service) now() int64 {
	return s.wall.Now().UnixMilli()
}

// AppendEvent records an event on a stream and returns the full log.
// Missing id and timestamp are assigned server-side. A duplicate id is
// acknowledged with the current log and no replay.
func (s *Service) AppendEvent(ctx context.Context, stream string, ev game.Event) ([]game.Event, bool, error) {
	if stream == "" {
		return nil, false, repository.ErrInvalidStream
	}

	if ev.ID == "" {
		ev.ID = s.idGen()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, ev.ID) {
		metrics.RecordEventDuplicate()
		events, err := s.log.Events(ctx, stream)
		if err != nil {
			return nil, true, fmt.Errorf("load events: %w", err)
		}
		return events, true, nil
	}

	events, err := s.log.Append(ctx, stream, ev)
	if err != nil {
		s.deduper.Unrecord(ctx, ev.ID)
		metrics.RecordEventRejected()
		return nil, false, fmt.Errorf("append event: %w", err)
	}

	if !s.eventQueue.Enqueue(ctx, eventqueue.Job{Stream: stream}) {
		// The event is in the log; a retry re-appends idempotently and
		// re-enqueues the replay.
		s.deduper.Unrecord(ctx, ev.ID)
		return nil, false, fmt.Errorf("enqueue replay: %w", eventqueue.ErrBackpressure)
	}
	metrics.UpdateQueueSize(s.eventQueue.Len(ctx))

	s.logger.Debug(ctx, "event appended",
		logger.String("stream", stream),
		logger.String("event", string(ev.Name)),
		logger.String("id", ev.ID),
	)

	return events, false, nil
}

// Events returns the raw event log for a stream.
func (s *Service) Events(ctx context.Context, stream string) ([]game.Event, error) {
	return s.log.Events(ctx, stream)
}

// Annotated returns the event log enriched with timing annotations.
func (s *Service) Annotated(ctx context.Context, stream string) ([]game.AnnotatedEvent, error) {
	events, err := s.log.Events(ctx, stream)
	if err != nil {
		return nil, err
	}
	return timeline.Annotate(events,
		timeline.WithRules(s.rules),
		timeline.WithPolicy(s.policy),
	)
}

// ClearStream removes a stream, its events and its snapshot.
func (s *Service) ClearStream(ctx context.Context, stream string) error {
	if err := s.log.Clear(ctx, stream); err != nil {
		return err
	}
	s.logger.Info(ctx, "stream cleared", logger.String("stream", stream))
	return nil
}

// State returns the reduced match state for a stream. A cached snapshot
// is preferred; a cold cache triggers a synchronous replay.
func (s *Service) State(ctx context.Context, stream string) (game.GlobalState, error) {
	if state, _, ok := s.log.Snapshot(ctx, stream); ok {
		return state, nil
	}

	annotated, err := s.Annotated(ctx, stream)
	if err != nil {
		return game.GlobalState{}, err
	}
	state := reduce.Reduce(annotated, reduce.WithRules(s.rules))
	s.log.SetSnapshot(ctx, stream, state, s.now())
	return state, nil
}

// Clock returns the sampled clock values for a stream at the current
// wall time.
func (s *Service) Clock(ctx context.Context, stream string) (clock.Times, error) {
	state, err := s.State(ctx, stream)
	if err != nil {
		return clock.Times{}, err
	}
	return clock.Sample(state.Timers, s.now(), clock.WithRules(s.rules)), nil
}

// Snapshot exposes the cached snapshot for the live feed.
func (s *Service) Snapshot(ctx context.Context, stream string) (game.GlobalState, int64, bool) {
	return s.log.Snapshot(ctx, stream)
}

// Factory returns the event factory bound to the service clock.
func (s *Service) Factory() *game.Factory {
	return s.factory
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		streams := s.log.Streams(ctx)

		total := 0
		for _, stream := range streams {
			total += s.log.Count(ctx, stream)
		}

		stats["queueLength"] = queueLen
		stats["streams"] = len(streams)
		stats["totalEvents"] = total

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStreamCount(len(streams))
	}

	return stats
}
