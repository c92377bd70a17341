package clock_test

import (
	"testing"

	"github.com/scoretable/scoretable/internal/domain/clock"
	"github.com/scoretable/scoretable/internal/domain/game"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSample(t *testing.T) {
	rules := game.DefaultRules()

	Convey("Given running match and period timers", t, func() {
		timers := game.GlobalTimers{
			Match:  game.StartedAt(0, 0),
			Period: game.StartedAt(0, 0),
		}

		Convey("When sampled one minute in", func() {
			times := clock.Sample(timers, 60_000)

			Convey("Then the period clock counts down and the match clock up", func() {
				So(times.PeriodClock, ShouldEqual, rules.PeriodLength-60_000)
				So(times.MatchClock, ShouldEqual, 60_000)
				So(times.RestClock, ShouldEqual, 0)
				So(times.ShowTimeout, ShouldBeFalse)
				So(times.PeriodBump, ShouldEqual, 0)
			})
		})

		Convey("When the period ran out without a recorded pause", func() {
			times := clock.Sample(timers, rules.PeriodLength+30_000)

			Convey("Then the overrun shows as implied rest", func() {
				So(times.PeriodClock, ShouldEqual, 0)
				So(times.RestClock, ShouldEqual, 30_000)
			})

			Convey("Then the overrun stays out of the match clock", func() {
				So(times.MatchClock, ShouldEqual, rules.PeriodLength)
			})
		})

		Convey("When the implied rest exceeds the rest length", func() {
			times := clock.Sample(timers, rules.PeriodLength+rules.RestLength+30_000)

			Convey("Then the rest clock is capped", func() {
				So(times.RestClock, ShouldEqual, rules.RestLength)
			})
		})
	})

	Convey("Given stopped timers after a pause", t, func() {
		timers := game.GlobalTimers{
			Match:  game.Timer{Before: 120_000},
			Period: game.Timer{Before: 120_000},
		}
		times := clock.Sample(timers, 999_999)

		Convey("Then the clocks are frozen at the pause values", func() {
			So(times.PeriodClock, ShouldEqual, rules.PeriodLength-120_000)
			So(times.MatchClock, ShouldEqual, 120_000)
		})
	})

	Convey("Given a running rest timer", t, func() {
		timers := game.GlobalTimers{
			Match:      game.Timer{Before: rules.PeriodLength},
			RestPeriod: game.StartedAt(rules.PeriodLength, 0),
		}

		Convey("When sampled one minute into the rest", func() {
			times := clock.Sample(timers, rules.PeriodLength+60_000)

			Convey("Then the rest clock counts up", func() {
				So(times.RestClock, ShouldEqual, 60_000)
				So(times.MatchClock, ShouldEqual, rules.PeriodLength)
				So(times.PeriodBump, ShouldEqual, 0)
			})
		})

		Convey("When the rest ran out", func() {
			times := clock.Sample(timers, rules.PeriodLength+rules.RestLength+5_000)

			Convey("Then the sentinel asks the display to advance the period", func() {
				So(times.RestClock, ShouldEqual, clock.RestOverrun)
				So(times.PeriodClock, ShouldEqual, rules.PeriodLength)
				So(times.PeriodBump, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a timeout with the period clock stopped", t, func() {
		timers := game.GlobalTimers{
			Match:   game.Timer{Before: 90_000},
			Period:  game.Timer{Before: 90_000},
			Timeout: game.StartedAt(90_000, 0),
		}

		Convey("When sampled inside the timeout window", func() {
			times := clock.Sample(timers, 120_000)

			Convey("Then the timeout overlay is active", func() {
				So(times.TimeoutClock, ShouldEqual, 30_000)
				So(times.InTimeout, ShouldBeTrue)
				So(times.ShowTimeout, ShouldBeTrue)
			})
		})

		Convey("When sampled past the timeout length", func() {
			times := clock.Sample(timers, 90_000+rules.TimeoutLength+10_000)

			Convey("Then the overlay stays visible but expired", func() {
				So(times.TimeoutClock, ShouldEqual, rules.TimeoutLength)
				So(times.InTimeout, ShouldBeFalse)
				So(times.ShowTimeout, ShouldBeTrue)
			})
		})
	})

	Convey("Given a timeout timer left behind while play runs", t, func() {
		timers := game.GlobalTimers{
			Match:   game.StartedAt(0, 0),
			Period:  game.StartedAt(0, 0),
			Timeout: game.StartedAt(0, 0),
		}
		times := clock.Sample(timers, 60_000)

		Convey("Then no timeout overlay shows during play", func() {
			So(times.ShowTimeout, ShouldBeFalse)
			So(times.InTimeout, ShouldBeFalse)
		})
	})

	Convey("Given custom rules", t, func() {
		short := game.Rules{
			PeriodLength:  10_000,
			RestLength:    3_000,
			TimeoutLength: 1_000,
		}
		timers := game.GlobalTimers{
			Match:  game.StartedAt(0, 0),
			Period: game.StartedAt(0, 0),
		}
		times := clock.Sample(timers, 4_000, clock.WithRules(short))

		Convey("Then the countdown uses the configured period length", func() {
			So(times.PeriodClock, ShouldEqual, 6_000)
		})
	})
}
