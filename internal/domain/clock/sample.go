// Package clock projects the timer pairs of a GlobalState into human-facing
// countdown values for a given "now".
//
// Sample is pure and cheap; the display layer calls it on every frame (tens
// of times per second) without touching the timers. Its branching encodes
// real domain rules: rest-period overrun and the timeout overlay are scoring
// decisions, not formatting.
package clock

import "github.com/scoretable/scoretable/internal/domain/game"

// RestOverrun is the sentinel RestClock value meaning the rest period ran
// out and the caller should advance the period without waiting for an
// explicit match-start.
const RestOverrun int64 = -1

// Times is a single projection of the match clocks.
type Times struct {
	// PeriodClock counts down the remaining play time in the period.
	PeriodClock int64 `json:"period_clock"`
	// RestClock counts up the elapsed rest time; RestOverrun past the cap.
	RestClock int64 `json:"rest_clock"`
	// MatchClock counts up cumulative play time across periods.
	MatchClock int64 `json:"match_clock"`
	// TimeoutClock counts up the elapsed timeout time, capped.
	TimeoutClock int64 `json:"timeout_clock"`
	// InTimeout is true while the timeout cap has not been reached.
	InTimeout bool `json:"in_timeout"`
	// ShowTimeout stays true after the cap so the display keeps showing
	// the expired timeout until the next match-start clears it.
	ShowTimeout bool `json:"show_timeout"`
	// PeriodBump signals the caller to bump the period display by one.
	PeriodBump int `json:"period_bump"`
}

type sampler struct {
	rules game.Rules
}

// Option applies a configuration option to the sampler.
type Option func(*sampler)

// WithRules sets the domain parameters (period, rest and timeout lengths).
func WithRules(r game.Rules) Option {
	return func(s *sampler) {
		s.rules = r
	}
}

// Sample projects the timers at the given instant. It never mutates timers.
func Sample(timers game.GlobalTimers, now int64, opts ...Option) Times {
	s := &sampler{rules: game.DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}

	if timers.RestPeriod.Running() {
		return s.sampleRest(timers, now)
	}
	return s.sampleRunning(timers, now)
}

// sampleRest handles the explicit rest window opened by a reset-in-rest
// pause.
func (s *sampler) sampleRest(timers game.GlobalTimers, now int64) Times {
	elapsed := timers.RestPeriod.Total(now)
	matchClock := timers.Match.Total(now)

	if elapsed > s.rules.RestLength {
		// Rest overran: the next period is due.
		return Times{
			PeriodClock: s.rules.PeriodLength,
			RestClock:   RestOverrun,
			MatchClock:  matchClock,
			PeriodBump:  1,
		}
	}
	return Times{
		RestClock:  elapsed,
		MatchClock: matchClock,
	}
}

// sampleRunning handles normal play, pause, period overrun without a
// recorded rest start, and the timeout overlay.
func (s *sampler) sampleRunning(timers game.GlobalTimers, now int64) Times {
	t := Times{}

	periodLeft := s.rules.PeriodLength - timers.Period.Total(now)
	matchClock := timers.Match.Total(now)

	if periodLeft >= 0 {
		t.PeriodClock = periodLeft
	} else {
		// The period ran out while the clock kept going; show the
		// implied rest instead and keep the overrun out of the match
		// clock.
		overrun := -periodLeft
		t.RestClock = min(overrun, s.rules.RestLength)
		matchClock -= overrun
	}
	t.MatchClock = matchClock

	if timers.Timeout.Running() && !timers.Period.Running() {
		elapsed := timers.Timeout.Total(now)
		t.TimeoutClock = min(elapsed, s.rules.TimeoutLength)
		t.InTimeout = elapsed <= s.rules.TimeoutLength
		t.ShowTimeout = true
	}
	return t
}
