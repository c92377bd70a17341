// Package game contains the domain model shared by the annotation,
// reduction and clock-sampling stages: events, caps, timers and the
// materialized match state.
package game

// Team identifies one of the two sides of a match.
type Team string

// The two sides of a water polo match.
const (
	TeamWhite Team = "white"
	TeamBlue  Team = "blue"
)

// IsValid reports whether the team value is one of the two known sides.
func (t Team) IsValid() bool {
	return t == TeamWhite || t == TeamBlue
}

// Cap identifies the unit of per-individual tracking: a numbered player
// (1-12) or a support-staff role on the bench.
type Cap string

// Numbered caps.
const (
	Cap1  Cap = "1"
	Cap2  Cap = "2"
	Cap3  Cap = "3"
	Cap4  Cap = "4"
	Cap5  Cap = "5"
	Cap6  Cap = "6"
	Cap7  Cap = "7"
	Cap8  Cap = "8"
	Cap9  Cap = "9"
	Cap10 Cap = "10"
	Cap11 Cap = "11"
	Cap12 Cap = "12"
)

// Support-staff roles. They accrue offence counts like players but are never
// shown in the exclusion time-box display.
const (
	CapHeadCoach      Cap = "HC"
	CapAssistantCoach Cap = "AC"
	CapTeamManager    Cap = "TM"
)

// allCaps is the closed enumeration, in display order.
var allCaps = []Cap{
	Cap1, Cap2, Cap3, Cap4, Cap5, Cap6, Cap7, Cap8, Cap9, Cap10, Cap11, Cap12,
	CapHeadCoach, CapAssistantCoach, CapTeamManager,
}

// AllCaps returns the closed set of caps in display order. The returned
// slice is a copy and safe to modify.
func AllCaps() []Cap {
	out := make([]Cap, len(allCaps))
	copy(out, allCaps)
	return out
}

// IsSupportStaff reports whether the cap is a bench role rather than a
// numbered player.
func (c Cap) IsSupportStaff() bool {
	return c == CapHeadCoach || c == CapAssistantCoach || c == CapTeamManager
}

// IsValid reports whether the cap belongs to the closed enumeration.
func (c Cap) IsValid() bool {
	for _, known := range allCaps {
		if c == known {
			return true
		}
	}
	return false
}

// EventName tags an Event variant. Dispatch happens on this single tag.
type EventName string

// Operator-originated events.
const (
	EventMatchStart    EventName = "match-start"
	EventMatchPause    EventName = "match-pause"
	EventGoalScored    EventName = "goal-scored"
	EventExclusion     EventName = "exclusion"
	EventPenalty       EventName = "penalty"
	EventEM            EventName = "em"
	EventEMS           EventName = "ems"
	EventViolentAction EventName = "violent-action"
	EventTimeout       EventName = "timeout"
	EventUndo          EventName = "undo-events"
)

// Virtual timeline markers. Synthesized for display purposes only; never
// produced by operator input.
const (
	EventRestStart EventName = "rest-start"
	EventPeriodEnd EventName = "period-end"
)

// CarriesCap reports whether this event variant names an individual.
func (n EventName) CarriesCap() bool {
	switch n {
	case EventGoalScored, EventExclusion, EventPenalty, EventEM, EventEMS, EventViolentAction:
		return true
	default:
		return false
	}
}

// CarriesTeam reports whether this event variant names a side.
func (n EventName) CarriesTeam() bool {
	return n.CarriesCap() || n == EventTimeout
}

// Event is a single immutable entry in the match log. Events are
// append-only and identified by a unique, time-sortable id assigned before
// the engine ever sees them.
type Event struct {
	ID        string    `json:"id"`
	Name      EventName `json:"name"`
	Timestamp int64     `json:"timestamp"`
	Team      Team      `json:"team,omitempty"`
	Cap       Cap       `json:"cap,omitempty"`
	// UndoIDs carries the target event ids of an undo-events event.
	UndoIDs []string `json:"undo_ids,omitempty"`
	// Virtual marks synthesized timeline markers.
	Virtual bool `json:"virtual,omitempty"`
}

// Meaning disambiguates overloaded pause/start events after annotation.
type Meaning string

// Meanings assigned by the timing annotator.
const (
	MeaningStartOfMatch    Meaning = "start-of-match"
	MeaningUnPause         Meaning = "un-pause"
	MeaningStartNextPeriod Meaning = "start-next-period"
	MeaningPause           Meaning = "pause"
	MeaningResetInRest     Meaning = "reset-in-rest"
)

// AnnotatedEvent is an Event stamped with derived relative timing.
type AnnotatedEvent struct {
	Event

	// PeriodTime is elapsed play time in the current period, in ms,
	// capped at the period length.
	PeriodTime int64 `json:"period_time"`
	// Period is the 0-based period index.
	Period int `json:"period"`
	// MatchTime is cumulative play time across periods, ignoring rest.
	MatchTime int64 `json:"match_time"`
	// RestPeriodTime is elapsed time into the inter-period rest, 0 when
	// not resting.
	RestPeriodTime int64 `json:"rest_period_time"`
	// Meaning is set only on pause/start events.
	Meaning Meaning `json:"meaning,omitempty"`
}

// Timer is the (anchor, accumulated-before) encoding of a running clock.
// A nil At means stopped; when running, total = Before + (now - At). The
// encoding keeps clock sampling a pure function of "now".
type Timer struct {
	At     *int64 `json:"at,omitempty"`
	Before int64  `json:"before"`
}

// StartedAt builds a running timer anchored at the given instant.
func StartedAt(at, before int64) Timer {
	return Timer{At: &at, Before: before}
}

// Running reports whether the timer has an anchor.
func (t Timer) Running() bool {
	return t.At != nil
}

// Total returns the accumulated time as of now.
func (t Timer) Total(now int64) int64 {
	if t.At == nil {
		return t.Before
	}
	return t.Before + (now - *t.At)
}

// Start returns a copy anchored at now. Starting an already running timer
// is a no-op.
func (t Timer) Start(now int64) Timer {
	if t.At != nil {
		return t
	}
	return Timer{At: &now, Before: t.Before}
}

// Stop returns a copy with elapsed time folded into Before and the anchor
// cleared. Stopping a stopped timer is a no-op.
func (t Timer) Stop(now int64) Timer {
	if t.At == nil {
		return t
	}
	return Timer{Before: t.Before + (now - *t.At)}
}

// GlobalTimers composes the four logical match clocks. At most one of
// Period/RestPeriod runs at a time; Timeout may run concurrently with a
// stopped Period only during a timeout window.
type GlobalTimers struct {
	Match      Timer `json:"match"`
	Period     Timer `json:"period"`
	RestPeriod Timer `json:"rest_period"`
	Timeout    Timer `json:"timeout"`
}

// Exclusion is a time-boxed penalty window in match-relative ms. It is
// never mutated; expiry is computed against the current clock.
type Exclusion struct {
	ID    string `json:"id"`
	Cap   Cap    `json:"cap"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// Card is a disciplinary card colour.
type Card string

// Card colours.
const (
	CardYellow Card = "YELLOW"
	CardRed    Card = "RED"
)

// OffenceCount is the per-cap disciplinary ledger entry. Count only
// increases across the whole match; the derived flags are frozen into the
// entry when assigned.
type OffenceCount struct {
	Count   int  `json:"count"`
	RedFlag bool `json:"red_flag,omitempty"`
	Card    Card `json:"card,omitempty"`
	// NoMoreEvents marks a benched individual: no further events may be
	// recorded against this cap.
	NoMoreEvents bool `json:"no_more_events,omitempty"`
}

// TeamStats is the per-side ledger.
type TeamStats struct {
	Goals        int                  `json:"goals"`
	Exclusions   []Exclusion          `json:"exclusions"`
	OffenceCount map[Cap]OffenceCount `json:"offence_count"`
	TimeoutsLeft int                  `json:"timeouts_left"`
}

// GlobalState is the root snapshot materialized from the event log.
type GlobalState struct {
	Period int       `json:"period"`
	White  TeamStats `json:"white"`
	Blue   TeamStats `json:"blue"`

	Timers GlobalTimers `json:"timers"`

	// EventsToUndo buffers the events recorded since the last
	// pause/start boundary; only those may be undone.
	EventsToUndo []AnnotatedEvent `json:"events_to_undo"`
	// DeletedEvents lists every event id named by an undo-events event.
	DeletedEvents []string `json:"deleted_events"`
}

// Side returns a pointer to the stats of the given team. Unknown teams
// resolve to white so that malformed events degrade instead of panicking.
func (s *GlobalState) Side(team Team) *TeamStats {
	if team == TeamBlue {
		return &s.Blue
	}
	return &s.White
}

// Rules carries the domain parameters shared by the annotator, the reducer
// and the clock sampler. All values are integer milliseconds.
type Rules struct {
	PeriodLength        int64 `json:"period_length"`
	RestLength          int64 `json:"rest_length"`
	ExclusionLength     int64 `json:"exclusion_length"`
	ViolentActionLength int64 `json:"violent_action_length"`
	TimeoutLength       int64 `json:"timeout_length"`
	TimeoutsPerTeam     int   `json:"timeouts_per_team"`
}

// Default rule constants (senior play: 8 minute periods, 2 minute rest).
const (
	DefaultPeriodLength        int64 = 8 * 60 * 1000
	DefaultRestLength          int64 = 2 * 60 * 1000
	DefaultExclusionLength     int64 = 20 * 1000
	DefaultViolentActionLength int64 = 4 * 60 * 1000
	DefaultTimeoutLength       int64 = 60 * 1000
	DefaultTimeoutsPerTeam           = 2
)

// DefaultRules returns the standard senior rule set.
func DefaultRules() Rules {
	return Rules{
		PeriodLength:        DefaultPeriodLength,
		RestLength:          DefaultRestLength,
		ExclusionLength:     DefaultExclusionLength,
		ViolentActionLength: DefaultViolentActionLength,
		TimeoutLength:       DefaultTimeoutLength,
		TimeoutsPerTeam:     DefaultTimeoutsPerTeam,
	}
}
