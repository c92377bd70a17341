package game

import (
	"time"

	"github.com/google/uuid"
)

// Stamper supplies wall-clock timestamps in epoch milliseconds.
type Stamper func() int64

// WallClock is the production Stamper.
func WallClock() int64 {
	return time.Now().UnixMilli()
}

// IDGen supplies unique, time-sortable event ids.
type IDGen func() string

// UUIDGen issues UUIDv7 ids. Their lexicographic order follows creation
// time, which satisfies the monotonic id contract of the event log.
func UUIDGen() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 fails only when the entropy source does; fall back to a
		// random id rather than dropping the event.
		return uuid.NewString()
	}
	return id.String()
}

// Factory constructs events from injected capabilities so that tests can
// supply deterministic ids and timestamps.
type Factory struct {
	now    Stamper
	nextID IDGen
}

// FactoryOption applies a configuration option to the Factory.
type FactoryOption func(*Factory)

// WithStamper sets the timestamp source.
func WithStamper(now Stamper) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithIDGen sets the id generator.
func WithIDGen(gen IDGen) FactoryOption {
	return func(f *Factory) {
		if gen != nil {
			f.nextID = gen
		}
	}
}

// NewFactory creates an event factory with production defaults.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		now:    WallClock,
		nextID: UUIDGen,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) base(name EventName) Event {
	return Event{
		ID:        f.nextID(),
		Name:      name,
		Timestamp: f.now(),
	}
}

// MatchStart builds a match-start event (start, un-pause or next-period
// depending on context; the annotator disambiguates).
func (f *Factory) MatchStart() Event {
	return f.base(EventMatchStart)
}

// MatchPause builds a match-pause event.
func (f *Factory) MatchPause() Event {
	return f.base(EventMatchPause)
}

func (f *Factory) capEvent(name EventName, team Team, cap Cap) Event {
	ev := f.base(name)
	ev.Team = team
	ev.Cap = cap
	return ev
}

// GoalScored builds a goal event for the given cap.
func (f *Factory) GoalScored(team Team, cap Cap) Event {
	return f.capEvent(EventGoalScored, team, cap)
}

// Exclusion builds an ordinary 20-second exclusion event.
func (f *Factory) Exclusion(team Team, cap Cap) Event {
	return f.capEvent(EventExclusion, team, cap)
}

// Penalty builds a penalty event.
func (f *Factory) Penalty(team Team, cap Cap) Event {
	return f.capEvent(EventPenalty, team, cap)
}

// EM builds an exclusion-misconduct event.
func (f *Factory) EM(team Team, cap Cap) Event {
	return f.capEvent(EventEM, team, cap)
}

// EMS builds an exclusion-misconduct-with-substitute event.
func (f *Factory) EMS(team Team, cap Cap) Event {
	return f.capEvent(EventEMS, team, cap)
}

// ViolentAction builds a violent-action event.
func (f *Factory) ViolentAction(team Team, cap Cap) Event {
	return f.capEvent(EventViolentAction, team, cap)
}

// Timeout builds a team timeout event.
func (f *Factory) Timeout(team Team) Event {
	ev := f.base(EventTimeout)
	ev.Team = team
	return ev
}

// UndoEvents builds an undo event targeting the given event ids.
func (f *Factory) UndoEvents(ids ...string) Event {
	ev := f.base(EventUndo)
	ev.UndoIDs = append([]string(nil), ids...)
	return ev
}
