// Package ws pushes live scoreboard frames over websockets.
//
// Displays subscribe per match stream and receive two frame kinds: a state
// frame whenever a replay materializes a new snapshot, and clock frames on
// a fixed interval carrying the sampled countdown values. The display loop
// of the original table client runs server-side here so every connected
// scoreboard shows the same clocks.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/scoretable/scoretable/internal/domain/clock"
	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/pkg/logger"
	"github.com/scoretable/scoretable/pkg/metrics"
)

// SnapshotSource provides the cached snapshot for a stream.
type SnapshotSource interface {
	Snapshot(ctx context.Context, stream string) (game.GlobalState, int64, bool)
}

// Frame is a single message pushed to live clients.
type Frame struct {
	Type   string            `json:"type"` // "state" or "clock"
	Stream string            `json:"stream"`
	State  *game.GlobalState `json:"state,omitempty"`
	Clock  *clock.Times      `json:"clock,omitempty"`
}

// Default feed configuration.
const (
	// DefaultPushInterval matches the original display refresh rate.
	DefaultPushInterval = 50 * time.Millisecond
	defaultSendBuffer   = 32
)

// Hub manages live-feed subscriptions per stream.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[*client]bool

	snapshots SnapshotSource
	rules     game.Rules
	wall      clockwork.Clock
	interval  time.Duration

	logger logger.Logger
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithRules sets the domain parameters used for clock sampling.
func WithRules(r game.Rules) Option {
	return func(h *Hub) {
		h.rules = r
	}
}

// WithClock sets the wall clock driving the push ticker. Tests inject a
// fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(h *Hub) {
		if c != nil {
			h.wall = c
		}
	}
}

// WithPushInterval sets the clock-frame push interval.
func WithPushInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates a live-feed hub reading snapshots from the given source.
func NewHub(snapshots SnapshotSource, opts ...Option) *Hub {
	h := &Hub{
		streams:   make(map[string]map[*client]bool),
		snapshots: snapshots,
		rules:     game.DefaultRules(),
		wall:      clockwork.NewRealClock(),
		interval:  DefaultPushInterval,
		logger:    logger.Get().Named("live"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run pushes clock frames on the configured interval until ctx is
// canceled.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.wall.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.pushClocks(ctx)
		}
	}
}

// StreamUpdated broadcasts a state frame to the stream's subscribers. It
// implements the replay worker's Notifier contract.
func (h *Hub) StreamUpdated(stream string, state game.GlobalState) {
	h.broadcast(stream, Frame{Type: "state", Stream: stream, State: &state})
}

// ClientCount returns the number of connected clients across streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.streams {
		total += len(clients)
	}
	return total
}

func (h *Hub) pushClocks(ctx context.Context) {
	h.mu.RLock()
	subscribed := make([]string, 0, len(h.streams))
	for stream, clients := range h.streams {
		if len(clients) > 0 {
			subscribed = append(subscribed, stream)
		}
	}
	h.mu.RUnlock()

	now := h.wall.Now().UnixMilli()
	for _, stream := range subscribed {
		state, _, ok := h.snapshots.Snapshot(ctx, stream)
		if !ok {
			continue
		}
		times := clock.Sample(state.Timers, now, clock.WithRules(h.rules))
		h.broadcast(stream, Frame{Type: "clock", Stream: stream, Clock: &times})
	}
}

func (h *Hub) broadcast(stream string, f Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		h.logger.Error(context.Background(), "frame marshal failed", logger.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.streams[stream]))
	for c := range h.streams[stream] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
			metrics.RecordFrameSent()
		default:
			// A client that cannot keep up with the display rate is
			// dropped rather than allowed to stall the feed.
			h.unregister(c)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	clients, ok := h.streams[c.stream]
	if !ok {
		clients = make(map[*client]bool)
		h.streams[c.stream] = clients
	}
	clients[c] = true
	total := h.clientCountLocked()
	h.mu.Unlock()

	metrics.UpdateLiveClients(total)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if clients, ok := h.streams[c.stream]; ok && clients[c] {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.streams, c.stream)
		}
		c.closeOnce.Do(func() { close(c.send) })
	}
	total := h.clientCountLocked()
	h.mu.Unlock()

	metrics.UpdateLiveClients(total)
}

func (h *Hub) clientCountLocked() int {
	total := 0
	for _, clients := range h.streams {
		total += len(clients)
	}
	return total
}
