package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/pkg/metrics"
)

// MemLog is the in-memory Store implementation.
//
// Each stream keeps its events sorted by id. Event ids are time-sortable
// tokens assigned before the core sees them, so id order is the causal
// order; out-of-order arrivals (a slow scorer's retry) are inserted at the
// right position rather than rejected.
type MemLog struct {
	mu      sync.RWMutex
	streams map[string]*streamLog
}

type streamLog struct {
	events []game.Event
	ids    map[string]bool

	snapshot     game.GlobalState
	snapshotAsOf int64
	hasSnapshot  bool
}

// NewMemLog creates an empty in-memory event log store.
func NewMemLog() *MemLog {
	return &MemLog{streams: make(map[string]*streamLog)}
}

// Append adds ev to the stream's log, keeping id order, and returns a copy
// of the full log. Duplicate ids are ignored.
func (m *MemLog) Append(_ context.Context, stream string, ev game.Event) ([]game.Event, error) {
	if stream == "" {
		return nil, ErrInvalidStream
	}
	if ev.ID == "" {
		return nil, ErrMissingEventID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sl, ok := m.streams[stream]
	if !ok {
		sl = &streamLog{ids: make(map[string]bool)}
		m.streams[stream] = sl
		metrics.UpdateStreamCount(len(m.streams))
	}

	if !sl.ids[ev.ID] {
		sl.ids[ev.ID] = true
		at := sort.Search(len(sl.events), func(i int) bool {
			return sl.events[i].ID > ev.ID
		})
		sl.events = append(sl.events, game.Event{})
		copy(sl.events[at+1:], sl.events[at:])
		sl.events[at] = ev
		metrics.RecordEventAppended()
		metrics.UpdateEventsStored(m.totalLocked())
	}

	return copyEvents(sl.events), nil
}

// Events returns a copy of the stream's ordered log.
func (m *MemLog) Events(_ context.Context, stream string) ([]game.Event, error) {
	if stream == "" {
		return nil, ErrInvalidStream
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sl, ok := m.streams[stream]
	if !ok {
		return []game.Event{}, nil
	}
	return copyEvents(sl.events), nil
}

// Clear removes the stream entirely.
func (m *MemLog) Clear(_ context.Context, stream string) error {
	if stream == "" {
		return ErrInvalidStream
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.streams, stream)
	metrics.UpdateStreamCount(len(m.streams))
	metrics.UpdateEventsStored(m.totalLocked())
	return nil
}

// Streams lists the known stream ids in sorted order.
func (m *MemLog) Streams(_ context.Context) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.streams))
	for id := range m.streams {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of events in the stream's log.
func (m *MemLog) Count(_ context.Context, stream string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sl, ok := m.streams[stream]
	if !ok {
		return 0
	}
	return len(sl.events)
}

// SetSnapshot caches the materialized state for the stream.
func (m *MemLog) SetSnapshot(_ context.Context, stream string, state game.GlobalState, asOf int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sl, ok := m.streams[stream]
	if !ok {
		// The log was cleared while the replay ran; drop the snapshot.
		return
	}
	sl.snapshot = state
	sl.snapshotAsOf = asOf
	sl.hasSnapshot = true
}

// Snapshot returns the cached state for the stream.
func (m *MemLog) Snapshot(_ context.Context, stream string) (game.GlobalState, int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sl, ok := m.streams[stream]
	if !ok || !sl.hasSnapshot {
		return game.GlobalState{}, 0, false
	}
	return sl.snapshot, sl.snapshotAsOf, true
}

func (m *MemLog) totalLocked() int {
	total := 0
	for _, sl := range m.streams {
		total += len(sl.events)
	}
	return total
}

func copyEvents(events []game.Event) []game.Event {
	out := make([]game.Event, len(events))
	copy(out, events)
	return out
}
