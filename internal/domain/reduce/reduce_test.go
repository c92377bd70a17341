package reduce_test

import (
	"testing"

	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/reduce"
	"github.com/scoretable/scoretable/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

// replay runs the full annotate+reduce pipeline the way the workers do.
func replay(events []game.Event) game.GlobalState {
	annotated, err := timeline.Annotate(events)
	So(err, ShouldBeNil)
	return reduce.Reduce(annotated)
}

func ev(id string, name game.EventName, ts int64) game.Event {
	return game.Event{ID: id, Name: name, Timestamp: ts}
}

func capEv(id string, name game.EventName, ts int64, team game.Team, cap game.Cap) game.Event {
	return game.Event{ID: id, Name: name, Timestamp: ts, Team: team, Cap: cap}
}

func undoEv(id string, ts int64, targets ...string) game.Event {
	return game.Event{ID: id, Name: game.EventUndo, Timestamp: ts, UndoIDs: targets}
}

func TestReduceScoring(t *testing.T) {
	Convey("Given a started match", t, func() {
		base := []game.Event{ev("start", game.EventMatchStart, 0)}

		Convey("When white scores twice and blue once", func() {
			state := replay(append(base,
				capEv("g1", game.EventGoalScored, 10_000, game.TeamWhite, game.Cap5),
				capEv("g2", game.EventGoalScored, 20_000, game.TeamWhite, game.Cap8),
				capEv("g3", game.EventGoalScored, 30_000, game.TeamBlue, game.Cap2),
			))

			Convey("Then the goal tallies follow the teams", func() {
				So(state.White.Goals, ShouldEqual, 2)
				So(state.Blue.Goals, ShouldEqual, 1)
			})
		})

		Convey("When a goal is undone", func() {
			state := replay(append(base,
				capEv("g1", game.EventGoalScored, 10_000, game.TeamWhite, game.Cap5),
				undoEv("undo", 12_000, "g1"),
			))

			Convey("Then the goal never happened", func() {
				So(state.White.Goals, ShouldEqual, 0)
			})

			Convey("Then the undone id is listed as deleted", func() {
				So(state.DeletedEvents, ShouldResemble, []string{"g1"})
			})

			Convey("Then the undo buffer is cleared", func() {
				So(state.EventsToUndo, ShouldBeEmpty)
			})
		})

		Convey("When an undo targets an id that does not exist", func() {
			state := replay(append(base,
				capEv("g1", game.EventGoalScored, 10_000, game.TeamWhite, game.Cap5),
				undoEv("undo", 12_000, "ghost"),
			))

			Convey("Then nothing else changes", func() {
				So(state.White.Goals, ShouldEqual, 1)
				So(state.DeletedEvents, ShouldResemble, []string{"ghost"})
			})
		})

		Convey("When an unknown event name appears", func() {
			state := replay(append(base,
				ev("x1", "coin-toss", 5_000),
				capEv("g1", game.EventGoalScored, 10_000, game.TeamWhite, game.Cap5),
			))

			Convey("Then it changes no tallies but stays undoable", func() {
				So(state.White.Goals, ShouldEqual, 1)
				So(len(state.EventsToUndo), ShouldEqual, 2)
			})
		})
	})
}

func TestReduceUndoBuffer(t *testing.T) {
	Convey("Given events recorded around clock boundaries", t, func() {
		state := replay([]game.Event{
			ev("start", game.EventMatchStart, 0),
			capEv("g1", game.EventGoalScored, 10_000, game.TeamWhite, game.Cap5),
			ev("pause", game.EventMatchPause, 20_000),
			capEv("g2", game.EventGoalScored, 21_000, game.TeamBlue, game.Cap3),
		})

		Convey("Then only events since the last boundary remain undoable", func() {
			So(len(state.EventsToUndo), ShouldEqual, 1)
			So(state.EventsToUndo[0].ID, ShouldEqual, "g2")
		})
	})
}

func TestReduceExclusions(t *testing.T) {
	rules := game.DefaultRules()

	Convey("Given a started match", t, func() {
		base := []game.Event{ev("start", game.EventMatchStart, 0)}

		Convey("When a player is excluded at 1.5 seconds of play", func() {
			state := replay(append(base,
				capEv("x1", game.EventExclusion, 1_500, game.TeamBlue, game.Cap3),
			))

			Convey("Then a twenty second window opens at the match time", func() {
				So(state.Blue.Exclusions, ShouldHaveLength, 1)
				So(state.Blue.Exclusions[0].ID, ShouldEqual, "x1")
				So(state.Blue.Exclusions[0].Cap, ShouldEqual, game.Cap3)
				So(state.Blue.Exclusions[0].Start, ShouldEqual, 1_500)
				So(state.Blue.Exclusions[0].End, ShouldEqual, 1_500+rules.ExclusionLength)
			})

			Convey("Then the offence count starts at one without a flag", func() {
				oc := state.Blue.OffenceCount[game.Cap3]
				So(oc.Count, ShouldEqual, 1)
				So(oc.RedFlag, ShouldBeFalse)
				So(oc.NoMoreEvents, ShouldBeFalse)
			})
		})

		Convey("When a violent action is recorded", func() {
			state := replay(append(base,
				capEv("v1", game.EventViolentAction, 1_500, game.TeamBlue, game.Cap9),
			))

			Convey("Then the window spans four minutes", func() {
				So(state.Blue.Exclusions, ShouldHaveLength, 1)
				So(state.Blue.Exclusions[0].End, ShouldEqual, 1_500+rules.ViolentActionLength)
			})

			Convey("Then the player is benched with a red card", func() {
				oc := state.Blue.OffenceCount[game.Cap9]
				So(oc.Card, ShouldEqual, game.CardRed)
				So(oc.NoMoreEvents, ShouldBeTrue)
			})
		})

		Convey("When an exclusion with substitute is recorded", func() {
			state := replay(append(base,
				capEv("m1", game.EventEMS, 2_000, game.TeamWhite, game.Cap6),
			))

			Convey("Then no window opens because the substitute enters at once", func() {
				So(state.White.Exclusions, ShouldBeEmpty)
			})

			Convey("Then the player is still benched", func() {
				oc := state.White.OffenceCount[game.Cap6]
				So(oc.Card, ShouldEqual, game.CardRed)
				So(oc.NoMoreEvents, ShouldBeTrue)
			})
		})

		Convey("When the head coach is excluded", func() {
			state := replay(append(base,
				capEv("h1", game.EventExclusion, 3_000, game.TeamWhite, game.CapHeadCoach),
			))

			Convey("Then no time-box window opens for bench staff", func() {
				So(state.White.Exclusions, ShouldBeEmpty)
				So(state.White.OffenceCount[game.CapHeadCoach].Card, ShouldEqual, game.CardYellow)
			})
		})

		Convey("When a player reaches three exclusions", func() {
			state := replay(append(base,
				capEv("x1", game.EventExclusion, 10_000, game.TeamBlue, game.Cap4),
				capEv("x2", game.EventExclusion, 60_000, game.TeamBlue, game.Cap4),
				capEv("x3", game.EventExclusion, 120_000, game.TeamBlue, game.Cap4),
			))

			Convey("Then all three windows exist", func() {
				So(state.Blue.Exclusions, ShouldHaveLength, 3)
			})

			Convey("Then the red flag raises but the player keeps playing", func() {
				oc := state.Blue.OffenceCount[game.Cap4]
				So(oc.Count, ShouldEqual, 3)
				So(oc.RedFlag, ShouldBeTrue)
				So(oc.NoMoreEvents, ShouldBeFalse)
			})
		})
	})
}

func TestReduceTimers(t *testing.T) {
	rules := game.DefaultRules()

	Convey("Given a match that starts and pauses", t, func() {
		state := replay([]game.Event{
			ev("start", game.EventMatchStart, 1_000),
			ev("pause", game.EventMatchPause, 121_000),
		})

		Convey("Then the match and period timers are stopped at the elapsed time", func() {
			So(state.Timers.Match.Running(), ShouldBeFalse)
			So(state.Timers.Match.Before, ShouldEqual, 120_000)
			So(state.Timers.Period.Before, ShouldEqual, 120_000)
		})
	})

	Convey("Given a pause past the end of the period", t, func() {
		state := replay([]game.Event{
			ev("start", game.EventMatchStart, 0),
			ev("pause", game.EventMatchPause, rules.PeriodLength+2_000),
		})

		Convey("Then the rest timer is anchored at the true period end", func() {
			So(state.Timers.RestPeriod.Running(), ShouldBeTrue)
			So(*state.Timers.RestPeriod.At, ShouldEqual, rules.PeriodLength)
		})

		Convey("Then the period is unchanged until the next start", func() {
			So(state.Period, ShouldEqual, 0)
		})
	})

	Convey("Given a start out of the rest break", t, func() {
		startNext := rules.PeriodLength + 2_000 + rules.RestLength
		state := replay([]game.Event{
			ev("start", game.EventMatchStart, 0),
			ev("pause", game.EventMatchPause, rules.PeriodLength+2_000),
			ev("start2", game.EventMatchStart, startNext),
		})

		Convey("Then the period advances and the timers restart", func() {
			So(state.Period, ShouldEqual, 1)
			So(state.Timers.Period.Running(), ShouldBeTrue)
			So(state.Timers.Period.Before, ShouldEqual, 0)
			So(state.Timers.Match.Before, ShouldEqual, rules.PeriodLength)
			So(state.Timers.RestPeriod.Running(), ShouldBeFalse)
		})
	})

	Convey("Given a timeout", t, func() {
		events := []game.Event{
			ev("start", game.EventMatchStart, 0),
			capEv("t1", game.EventTimeout, 90_000, game.TeamWhite, ""),
			ev("pause", game.EventMatchPause, 90_500),
		}
		state := replay(events)

		Convey("Then the timeout timer runs and the budget shrinks", func() {
			So(state.Timers.Timeout.Running(), ShouldBeTrue)
			So(state.White.TimeoutsLeft, ShouldEqual, game.DefaultRules().TimeoutsPerTeam-1)
			So(state.Blue.TimeoutsLeft, ShouldEqual, game.DefaultRules().TimeoutsPerTeam)
		})

		Convey("When play resumes", func() {
			state := replay(append(events, ev("start2", game.EventMatchStart, 150_000)))

			Convey("Then the timeout timer is cleared", func() {
				So(state.Timers.Timeout.Running(), ShouldBeFalse)
				So(state.Timers.Timeout.Before, ShouldEqual, 0)
			})
		})
	})
}
