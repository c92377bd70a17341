package timeline_test

import (
	"testing"

	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(id string, name game.EventName, ts int64) game.Event {
	return game.Event{ID: id, Name: name, Timestamp: ts}
}

func goal(id string, ts int64, team game.Team, cap game.Cap) game.Event {
	return game.Event{ID: id, Name: game.EventGoalScored, Timestamp: ts, Team: team, Cap: cap}
}

func TestAnnotate(t *testing.T) {
	rules := game.DefaultRules()

	Convey("Given an empty event log", t, func() {
		out, err := timeline.Annotate(nil)

		Convey("Then annotation yields an empty sequence", func() {
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a log that starts the match", t, func() {
		events := []game.Event{
			ev("e1", game.EventMatchStart, 1_000),
			goal("e2", 61_000, game.TeamWhite, game.Cap5),
		}
		out, err := timeline.Annotate(events)
		So(err, ShouldBeNil)

		Convey("Then the first start means start-of-match at time zero", func() {
			So(out[0].Meaning, ShouldEqual, game.MeaningStartOfMatch)
			So(out[0].Period, ShouldEqual, 0)
			So(out[0].PeriodTime, ShouldEqual, 0)
			So(out[0].MatchTime, ShouldEqual, 0)
		})

		Convey("Then a goal one minute in carries the elapsed play time", func() {
			So(out[1].Meaning, ShouldBeEmpty)
			So(out[1].PeriodTime, ShouldEqual, 60_000)
			So(out[1].MatchTime, ShouldEqual, 60_000)
		})
	})

	Convey("Given a pause and a resume", t, func() {
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchPause, 120_000),
			ev("e3", game.EventMatchStart, 125_000),
			goal("e4", 185_000, game.TeamBlue, game.Cap7),
		}
		out, err := timeline.Annotate(events)
		So(err, ShouldBeNil)

		Convey("Then the pause freezes the clock at the elapsed play time", func() {
			So(out[1].Meaning, ShouldEqual, game.MeaningPause)
			So(out[1].PeriodTime, ShouldEqual, 120_000)
		})

		Convey("Then the resume means un-pause at the same clock value", func() {
			So(out[2].Meaning, ShouldEqual, game.MeaningUnPause)
			So(out[2].PeriodTime, ShouldEqual, 120_000)
		})

		Convey("Then the paused gap does not count as play time", func() {
			So(out[3].PeriodTime, ShouldEqual, 180_000)
			So(out[3].MatchTime, ShouldEqual, 180_000)
		})
	})

	Convey("Given a pause after the period ran out", t, func() {
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchPause, rules.PeriodLength+1_000),
			goal("e3", rules.PeriodLength+20_000, game.TeamWhite, game.Cap2),
			ev("e4", game.EventMatchStart, rules.PeriodLength+121_000),
		}
		out, err := timeline.Annotate(events)
		So(err, ShouldBeNil)

		Convey("Then the pause closes the period and opens the rest", func() {
			So(out[1].Meaning, ShouldEqual, game.MeaningResetInRest)
			So(out[1].PeriodTime, ShouldEqual, rules.PeriodLength)
			So(out[1].RestPeriodTime, ShouldEqual, 1_000)
			So(out[1].MatchTime, ShouldEqual, rules.PeriodLength)
		})

		Convey("Then events during the rest are clamped to the period end", func() {
			So(out[2].PeriodTime, ShouldEqual, rules.PeriodLength)
			So(out[2].RestPeriodTime, ShouldEqual, 1_000)
		})

		Convey("Then the next start advances the period", func() {
			So(out[3].Meaning, ShouldEqual, game.MeaningStartNextPeriod)
			So(out[3].Period, ShouldEqual, 1)
			So(out[3].PeriodTime, ShouldEqual, 0)
			So(out[3].MatchTime, ShouldEqual, rules.PeriodLength)
		})
	})

	Convey("Given play that keeps running past the period length", t, func() {
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			goal("e2", rules.PeriodLength+10_000, game.TeamWhite, game.Cap4),
		}
		out, err := timeline.Annotate(events)
		So(err, ShouldBeNil)

		Convey("Then the stamped period time is clamped", func() {
			So(out[1].PeriodTime, ShouldEqual, rules.PeriodLength)
			So(out[1].MatchTime, ShouldEqual, rules.PeriodLength)
		})
	})

	Convey("Given an unknown event name", t, func() {
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			{ID: "e2", Name: "coin-toss", Timestamp: 5_000},
		}
		out, err := timeline.Annotate(events)

		Convey("Then it passes through with timing attached", func() {
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 2)
			So(out[1].Name, ShouldEqual, game.EventName("coin-toss"))
			So(out[1].PeriodTime, ShouldEqual, 5_000)
		})
	})

	Convey("Given redundant pause and start events", t, func() {
		doublePause := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchPause, 10_000),
			ev("e3", game.EventMatchPause, 11_000),
		}
		doubleStart := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchStart, 5_000),
		}

		Convey("When the policy is lenient", func() {
			Convey("Then a second pause passes through without advancing the clock", func() {
				out, err := timeline.Annotate(doublePause)
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 3)
				So(out[2].Meaning, ShouldBeEmpty)
				So(out[2].PeriodTime, ShouldEqual, 10_000)
			})

			Convey("Then a second start passes through without advancing the clock", func() {
				out, err := timeline.Annotate(doubleStart)
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 2)
				So(out[1].Meaning, ShouldBeEmpty)
				So(out[1].PeriodTime, ShouldEqual, 5_000)
			})
		})

		Convey("When the policy is strict", func() {
			Convey("Then a second pause aborts annotation", func() {
				_, err := timeline.Annotate(doublePause, timeline.WithPolicy(timeline.PolicyStrict))
				So(err, ShouldWrap, timeline.ErrAlreadyPaused)
			})

			Convey("Then a second start aborts annotation", func() {
				_, err := timeline.Annotate(doubleStart, timeline.WithPolicy(timeline.PolicyStrict))
				So(err, ShouldWrap, timeline.ErrAlreadyRunning)
			})

			Convey("Then a pause before any start aborts annotation", func() {
				_, err := timeline.Annotate(
					[]game.Event{ev("e1", game.EventMatchPause, 0)},
					timeline.WithPolicy(timeline.PolicyStrict),
				)
				So(err, ShouldWrap, timeline.ErrAlreadyPaused)
			})
		})
	})

	Convey("Given custom rules with a short period", t, func() {
		short := game.Rules{
			PeriodLength: 10_000,
			RestLength:   5_000,
		}
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchPause, 12_000),
		}
		out, err := timeline.Annotate(events, timeline.WithRules(short))
		So(err, ShouldBeNil)

		Convey("Then the overrun uses the configured period length", func() {
			So(out[1].Meaning, ShouldEqual, game.MeaningResetInRest)
			So(out[1].PeriodTime, ShouldEqual, 10_000)
			So(out[1].RestPeriodTime, ShouldEqual, 2_000)
		})
	})

	Convey("Given two full period transitions", t, func() {
		pl := rules.PeriodLength
		events := []game.Event{
			ev("e1", game.EventMatchStart, 0),
			ev("e2", game.EventMatchPause, pl+500),
			ev("e3", game.EventMatchStart, pl+120_500),
			ev("e4", game.EventMatchPause, 2*pl+121_000),
			ev("e5", game.EventMatchStart, 2*pl+241_000),
			goal("e6", 2*pl+271_000, game.TeamBlue, game.Cap11),
		}
		out, err := timeline.Annotate(events)
		So(err, ShouldBeNil)

		Convey("Then periods and match time accumulate", func() {
			So(out[4].Period, ShouldEqual, 2)
			So(out[4].MatchTime, ShouldEqual, 2*pl)
			So(out[5].PeriodTime, ShouldEqual, 30_000)
			So(out[5].MatchTime, ShouldEqual, 2*pl+30_000)
		})
	})
}
