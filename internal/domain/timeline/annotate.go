// Package timeline stamps raw match events with derived relative timing.
//
// The annotator walks the ordered event log once, tracking a small
// running-clock state machine, and enriches every event with period-relative
// and match-relative times plus a meaning tag that disambiguates the
// overloaded pause/start events. It never performs I/O and never mutates
// its input.
package timeline

import (
	"fmt"

	"github.com/scoretable/scoretable/internal/domain/game"
)

// Policy names the contract for sequencing violations (pause-while-paused,
// start-while-running). The surrounding system allows manual clock
// corrections that can produce such sequences, so the default is to degrade
// gracefully; strict mode surfaces them instead so an operator can correct
// the log.
type Policy string

// Sequencing policies.
const (
	// PolicyLenient passes redundant pause/start events through without
	// advancing the clock state.
	PolicyLenient Policy = "lenient"
	// PolicyStrict aborts annotation on a redundant pause/start.
	PolicyStrict Policy = "strict"
)

type annotator struct {
	rules  game.Rules
	policy Policy
}

// Option applies a configuration option to the annotator.
type Option func(*annotator)

// WithRules sets the domain parameters (period and rest lengths).
func WithRules(r game.Rules) Option {
	return func(a *annotator) {
		a.rules = r
	}
}

// WithPolicy sets the sequencing-violation policy.
func WithPolicy(p Policy) Option {
	return func(a *annotator) {
		if p == PolicyLenient || p == PolicyStrict {
			a.policy = p
		}
	}
}

// clockState is the running state carried between events.
type clockState struct {
	timeBeforePause int64
	unPausedAt      *int64
	pausedAt        *int64
	period          int
	restPeriodTime  int64
	inRest          bool
}

// Annotate stamps each event with derived relative timing. The output has
// the same length and order as the input. Under PolicyLenient the function
// is total: it returns a nil error for every well-formed input, including
// out-of-order pause/start pairs.
func Annotate(events []game.Event, opts ...Option) ([]game.AnnotatedEvent, error) {
	a := &annotator{
		rules:  game.DefaultRules(),
		policy: PolicyLenient,
	}
	for _, opt := range opts {
		opt(a)
	}

	out := make([]game.AnnotatedEvent, 0, len(events))
	st := clockState{}

	for _, ev := range events {
		annotated, next, err := a.step(st, ev)
		if err != nil {
			return nil, err
		}
		out = append(out, annotated)
		st = next
	}
	return out, nil
}

// step processes a single event, returning its annotation and the next
// clock state.
func (a *annotator) step(st clockState, ev game.Event) (game.AnnotatedEvent, clockState, error) {
	switch ev.Name {
	case game.EventMatchPause:
		return a.stepPause(st, ev)
	case game.EventMatchStart:
		return a.stepStart(st, ev)
	default:
		return a.stamp(st, ev, ""), st, nil
	}
}

func (a *annotator) stepPause(st clockState, ev game.Event) (game.AnnotatedEvent, clockState, error) {
	if st.unPausedAt == nil {
		// Pause while already paused: a redundant event must not corrupt
		// the clock.
		if a.policy == PolicyStrict {
			return game.AnnotatedEvent{}, st, fmt.Errorf("event %s: %w", ev.ID, ErrAlreadyPaused)
		}
		return a.stamp(st, ev, ""), st, nil
	}

	elapsed := st.timeBeforePause + (ev.Timestamp - *st.unPausedAt)
	next := st
	next.timeBeforePause = elapsed
	next.unPausedAt = nil
	next.pausedAt = &ev.Timestamp

	annotated := a.enrich(ev, next.period, 0, 0, "")
	if elapsed > a.rules.PeriodLength {
		// The running clock overran the period: this pause closes the
		// period and the overflow counts as rest time.
		next.inRest = true
		next.restPeriodTime = elapsed - a.rules.PeriodLength
		annotated.PeriodTime = a.rules.PeriodLength
		annotated.RestPeriodTime = next.restPeriodTime
		annotated.Meaning = game.MeaningResetInRest
	} else {
		next.restPeriodTime = 0
		annotated.PeriodTime = elapsed
		annotated.Meaning = game.MeaningPause
	}
	annotated.MatchTime = int64(next.period)*a.rules.PeriodLength + annotated.PeriodTime
	return annotated, next, nil
}

func (a *annotator) stepStart(st clockState, ev game.Event) (game.AnnotatedEvent, clockState, error) {
	if st.inRest {
		// Starting out of rest advances to the next period.
		next := st
		next.timeBeforePause = 0
		next.period++
		next.inRest = false
		next.restPeriodTime = 0
		next.unPausedAt = &ev.Timestamp
		next.pausedAt = nil

		annotated := a.enrich(ev, next.period, 0, 0, game.MeaningStartNextPeriod)
		annotated.MatchTime = int64(next.period) * a.rules.PeriodLength
		return annotated, next, nil
	}

	if st.unPausedAt != nil {
		// Start while already running.
		if a.policy == PolicyStrict {
			return game.AnnotatedEvent{}, st, fmt.Errorf("event %s: %w", ev.ID, ErrAlreadyRunning)
		}
		return a.stamp(st, ev, ""), st, nil
	}

	next := st
	next.unPausedAt = &ev.Timestamp
	next.pausedAt = nil

	meaning := game.MeaningUnPause
	if st.timeBeforePause == 0 {
		meaning = game.MeaningStartOfMatch
	}
	periodTime := min(st.timeBeforePause, a.rules.PeriodLength)
	annotated := a.enrich(ev, next.period, periodTime, 0, meaning)
	annotated.MatchTime = int64(next.period)*a.rules.PeriodLength + periodTime
	return annotated, next, nil
}

// stamp annotates a passive event without advancing the clock state.
func (a *annotator) stamp(st clockState, ev game.Event, meaning game.Meaning) game.AnnotatedEvent {
	periodTime := st.timeBeforePause
	if st.unPausedAt != nil {
		periodTime += ev.Timestamp - *st.unPausedAt
	}
	periodTime = min(periodTime, a.rules.PeriodLength)

	var rest int64
	if st.inRest {
		rest = st.restPeriodTime
	}
	annotated := a.enrich(ev, st.period, periodTime, rest, meaning)
	annotated.MatchTime = int64(st.period)*a.rules.PeriodLength + periodTime
	return annotated
}

func (a *annotator) enrich(ev game.Event, period int, periodTime, rest int64, meaning game.Meaning) game.AnnotatedEvent {
	return game.AnnotatedEvent{
		Event:          ev,
		PeriodTime:     periodTime,
		Period:         period,
		RestPeriodTime: rest,
		Meaning:        meaning,
	}
}
