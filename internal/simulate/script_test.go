package simulate_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/reduce"
	"github.com/scoretable/scoretable/internal/domain/timeline"
	"github.com/scoretable/scoretable/internal/simulate"
)

func replay(t *testing.T, s simulate.Script) game.GlobalState {
	t.Helper()
	annotated, err := timeline.Annotate(s.Events)
	if err != nil {
		t.Fatalf("annotate %s: %v", s.Name, err)
	}
	return reduce.Reduce(annotated)
}

func TestScenarios(t *testing.T) {
	Convey("Given the scenario catalogue", t, func() {
		names := simulate.Scenarios()

		Convey("Then every named scenario builds", func() {
			So(names, ShouldResemble, []string{"full-match", "near-period-end", "rest-break"})
			for _, name := range names {
				s, err := simulate.Build(name)
				So(err, ShouldBeNil)
				So(s.Name, ShouldEqual, name)
				So(len(s.Events), ShouldBeGreaterThan, 0)
				So(s.Duration, ShouldBeGreaterThan, 0)
			}
		})

		Convey("Then an unknown scenario is refused", func() {
			_, err := simulate.Build("golden-goal")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestScriptOrdering(t *testing.T) {
	Convey("Given any built script", t, func() {
		for _, name := range simulate.Scenarios() {
			s, err := simulate.Build(name)
			So(err, ShouldBeNil)

			Convey("Then "+name+" timestamps never go backwards", func() {
				for i := 1; i < len(s.Events); i++ {
					So(s.Events[i].Timestamp, ShouldBeGreaterThanOrEqualTo, s.Events[i-1].Timestamp)
				}
				So(s.Duration, ShouldBeGreaterThanOrEqualTo, s.Events[len(s.Events)-1].Timestamp)
			})

			Convey("Then "+name+" events carry distinct ids", func() {
				seen := make(map[string]bool, len(s.Events))
				for _, ev := range s.Events {
					So(ev.ID, ShouldNotBeEmpty)
					So(seen[ev.ID], ShouldBeFalse)
					seen[ev.ID] = true
				}
			})
		}
	})
}

func TestFullMatchReplays(t *testing.T) {
	Convey("Given the full-match scenario", t, func() {
		s, err := simulate.Build("full-match")
		So(err, ShouldBeNil)

		state := replay(t, s)

		Convey("Then the match reaches the fourth period", func() {
			So(state.Period, ShouldEqual, 3)
		})

		Convey("Then the score reflects the scripted goals minus the undo", func() {
			So(state.White.Goals, ShouldEqual, 3)
			So(state.Blue.Goals, ShouldEqual, 2)
			So(len(state.DeletedEvents), ShouldEqual, 1)
		})

		Convey("Then both sides burned one timeout", func() {
			So(state.White.TimeoutsLeft, ShouldEqual, game.DefaultRules().TimeoutsPerTeam-1)
			So(state.Blue.TimeoutsLeft, ShouldEqual, game.DefaultRules().TimeoutsPerTeam-1)
		})

		Convey("Then the white head coach was sent off on the second misconduct", func() {
			hc := state.White.OffenceCount[game.CapHeadCoach]
			So(hc.Count, ShouldEqual, 2)
			So(hc.Card, ShouldEqual, game.CardRed)
			So(hc.NoMoreEvents, ShouldBeTrue)
		})

		Convey("Then the violent action benched blue cap 9", func() {
			nine := state.Blue.OffenceCount[game.Cap9]
			So(nine.Card, ShouldEqual, game.CardRed)
			So(nine.NoMoreEvents, ShouldBeTrue)
		})

		Convey("Then the match clock is paused at the final whistle", func() {
			So(state.Timers.Match.Running(), ShouldBeFalse)
			So(state.Timers.Period.Running(), ShouldBeFalse)
		})
	})
}

func TestNearPeriodEndReplays(t *testing.T) {
	Convey("Given the near-period-end scenario", t, func() {
		s, err := simulate.Build("near-period-end")
		So(err, ShouldBeNil)

		state := replay(t, s)

		Convey("Then the first period is still running at one goal apiece", func() {
			So(state.Period, ShouldEqual, 0)
			So(state.White.Goals, ShouldEqual, 1)
			So(state.Blue.Goals, ShouldEqual, 1)
			So(state.Timers.Period.Running(), ShouldBeTrue)
		})
	})
}

func TestRestBreakReplays(t *testing.T) {
	Convey("Given the rest-break scenario", t, func() {
		s, err := simulate.Build("rest-break")
		So(err, ShouldBeNil)

		state := replay(t, s)

		Convey("Then the match is parked in the rest between periods", func() {
			So(state.Period, ShouldEqual, 0)
			So(state.Timers.Period.Running(), ShouldBeFalse)
			So(state.Timers.RestPeriod.Running(), ShouldBeTrue)
		})

		Convey("Then the runner is given time to sit inside the break", func() {
			So(s.Duration, ShouldEqual, game.DefaultRules().PeriodLength+1_000+60_000)
		})
	})
}
