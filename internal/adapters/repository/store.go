// Package repository defines the event log store interface and errors.
//
// The store is the single shared resource of the system: an append-only,
// id-ordered event log per match stream, plus a cache of the latest
// materialized snapshot. The engine never deletes entries; undo is a filter
// at reduction time, which keeps the log auditable.
package repository

import (
	"context"

	"github.com/scoretable/scoretable/internal/domain/game"
)

// Store provides access to per-stream event logs and snapshots.
type Store interface {
	// Append adds an event to the stream's log and returns the full,
	// ordered log. Appending an id that is already present is a no-op
	// and returns the unchanged log.
	Append(ctx context.Context, stream string, ev game.Event) ([]game.Event, error)

	// Events returns the full ordered log of the stream. An unknown
	// stream yields an empty log, not an error.
	Events(ctx context.Context, stream string) ([]game.Event, error)

	// Clear removes the stream's log and snapshot.
	Clear(ctx context.Context, stream string) error

	// Streams lists the known stream ids.
	Streams(ctx context.Context) []string

	// Count returns the number of events in the stream's log.
	Count(ctx context.Context, stream string) int

	// SetSnapshot caches the materialized state for the stream, stamped
	// with the wall-clock ms it was computed at.
	SetSnapshot(ctx context.Context, stream string, state game.GlobalState, asOf int64)

	// Snapshot returns the cached state and its compute time. ok is
	// false when no snapshot has been materialized yet.
	Snapshot(ctx context.Context, stream string) (state game.GlobalState, asOf int64, ok bool)
}
