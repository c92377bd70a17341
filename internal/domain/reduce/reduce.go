// Package reduce folds an annotated event sequence into the materialized
// GlobalState snapshot: per-team ledgers, the four match timers, the undo
// buffer and the deleted-event set.
//
// The fold is deterministic and tolerant: unknown event names pass through
// without state change, and undo of nonexistent ids is a no-op. Replay from
// the full log is the only write path; the reducer never mutates its input.
package reduce

import (
	"github.com/scoretable/scoretable/internal/domain/game"
)

type reducer struct {
	rules game.Rules
}

// Option applies a configuration option to the reducer.
type Option func(*reducer)

// WithRules sets the domain parameters (window lengths, timeout budget).
func WithRules(r game.Rules) Option {
	return func(rd *reducer) {
		rd.rules = r
	}
}

// Reduce folds the annotated sequence into a GlobalState. The fold runs in
// two passes: undo resolution first (events named by any undo-events event
// are removed retroactively, as if they never occurred), then the state
// fold over the filtered sequence.
func Reduce(events []game.AnnotatedEvent, opts ...Option) game.GlobalState {
	rd := &reducer{rules: game.DefaultRules()}
	for _, opt := range opts {
		opt(rd)
	}

	deleted, filtered := resolveUndo(events)

	state := newState(rd.rules)
	state.DeletedEvents = deleted
	for _, ev := range filtered {
		state = rd.apply(state, ev)
	}
	return state
}

// resolveUndo collects every id targeted by an undo-events event and
// filters the sequence. Undo is retroactive regardless of where the undo
// itself sits in the log.
func resolveUndo(events []game.AnnotatedEvent) ([]string, []game.AnnotatedEvent) {
	targeted := make(map[string]bool)
	deleted := make([]string, 0)
	for _, ev := range events {
		if ev.Name != game.EventUndo {
			continue
		}
		for _, id := range ev.UndoIDs {
			if !targeted[id] {
				targeted[id] = true
				deleted = append(deleted, id)
			}
		}
	}

	filtered := make([]game.AnnotatedEvent, 0, len(events))
	for _, ev := range events {
		if targeted[ev.ID] {
			continue
		}
		filtered = append(filtered, ev)
	}
	return deleted, filtered
}

func newState(rules game.Rules) game.GlobalState {
	return game.GlobalState{
		White:         newTeamStats(rules),
		Blue:          newTeamStats(rules),
		EventsToUndo:  []game.AnnotatedEvent{},
		DeletedEvents: []string{},
	}
}

func newTeamStats(rules game.Rules) game.TeamStats {
	counts := make(map[game.Cap]game.OffenceCount, len(game.AllCaps()))
	for _, cap := range game.AllCaps() {
		counts[cap] = game.OffenceCount{}
	}
	return game.TeamStats{
		Exclusions:   []game.Exclusion{},
		OffenceCount: counts,
		TimeoutsLeft: rules.TimeoutsPerTeam,
	}
}

// apply folds a single event. Every event first joins the undo buffer;
// pause/start boundaries and undo events clear it again, so only events
// recorded since the last boundary remain undoable.
func (rd *reducer) apply(state game.GlobalState, ev game.AnnotatedEvent) game.GlobalState {
	state.EventsToUndo = append(state.EventsToUndo, ev)

	switch ev.Name {
	case game.EventMatchPause:
		state = rd.applyPause(state, ev)
	case game.EventMatchStart:
		state = rd.applyStart(state, ev)
	case game.EventGoalScored:
		state.Side(ev.Team).Goals++
	case game.EventPenalty:
		rd.recordOffence(&state, ev, false, 0)
	case game.EventExclusion:
		rd.recordOffence(&state, ev, false, rd.rules.ExclusionLength)
	case game.EventEM:
		rd.recordOffence(&state, ev, true, 0)
	case game.EventEMS:
		// EMS carries an automatic red like EM. The substitute enters
		// immediately, so no exclusion window is shown.
		rd.recordOffence(&state, ev, true, 0)
	case game.EventViolentAction:
		rd.recordOffence(&state, ev, true, rd.rules.ViolentActionLength)
	case game.EventTimeout:
		state.Timers.Timeout = game.StartedAt(ev.Timestamp, 0)
		state.Side(ev.Team).TimeoutsLeft--
	case game.EventUndo:
		// Targets were already removed in the resolution pass.
		state.EventsToUndo = []game.AnnotatedEvent{}
	default:
		// Unknown and virtual events change no state.
	}
	return state
}

func (rd *reducer) applyPause(state game.GlobalState, ev game.AnnotatedEvent) game.GlobalState {
	now := ev.Timestamp
	state.Timers.Match = state.Timers.Match.Stop(now)
	state.Timers.Period = state.Timers.Period.Stop(now)
	if ev.Meaning == game.MeaningResetInRest {
		// The rest actually began restPeriodTime ago; anchor the rest
		// timer in the past so the countdown is already under way.
		state.Timers.RestPeriod = game.StartedAt(now-ev.RestPeriodTime, 0)
	}
	state.EventsToUndo = []game.AnnotatedEvent{}
	return state
}

func (rd *reducer) applyStart(state game.GlobalState, ev game.AnnotatedEvent) game.GlobalState {
	now := ev.Timestamp
	if ev.Meaning == game.MeaningStartNextPeriod {
		state.Period++
		state.Timers.Match = game.StartedAt(now, int64(state.Period)*rd.rules.PeriodLength)
		state.Timers.Period = game.StartedAt(now, 0)
		state.Timers.RestPeriod = game.Timer{}
	} else {
		// start-of-match and un-pause resume the stopped clocks.
		state.Timers.Match = state.Timers.Match.Start(now)
		state.Timers.Period = state.Timers.Period.Start(now)
	}
	state.Timers.Timeout = game.Timer{}
	state.EventsToUndo = []game.AnnotatedEvent{}
	return state
}

// recordOffence applies the offence-count rule and optionally opens an
// exclusion window. Support staff accrue the count but are excluded from
// the time-box display.
func (rd *reducer) recordOffence(state *game.GlobalState, ev game.AnnotatedEvent, autoRed bool, window int64) {
	side := state.Side(ev.Team)
	side.OffenceCount[ev.Cap] = NextOffenceCount(side.OffenceCount[ev.Cap], ev.Cap, autoRed)

	if window > 0 && !ev.Cap.IsSupportStaff() {
		side.Exclusions = append(side.Exclusions, game.Exclusion{
			ID:    ev.ID,
			Cap:   ev.Cap,
			Start: ev.MatchTime,
			End:   ev.MatchTime + window,
		})
	}
}
