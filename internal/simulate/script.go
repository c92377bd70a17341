package simulate

import (
	"fmt"
	"sort"

	"github.com/scoretable/scoretable/internal/domain/game"
)

// Script is a scripted match timeline. Event timestamps are offsets in
// milliseconds from the first whistle; the runner rebases them onto the
// wall clock.
type Script struct {
	Name     string
	Events   []game.Event
	Duration int64
}

type builder struct {
	cursor  int64
	factory *game.Factory
	events  []game.Event
}

func newBuilder() *builder {
	b := &builder{}
	b.factory = game.NewFactory(
		game.WithStamper(func() int64 { return b.cursor }),
	)
	return b
}

func (b *builder) at(offset int64, build func(f *game.Factory) game.Event) {
	b.cursor = offset
	b.events = append(b.events, build(b.factory))
}

func (b *builder) script(name string) Script {
	var duration int64
	for _, ev := range b.events {
		if ev.Timestamp > duration {
			duration = ev.Timestamp
		}
	}
	return Script{Name: name, Events: b.events, Duration: duration}
}

// Scenarios lists the available scenario names.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the script for the named scenario.
func Build(scenario string) (Script, error) {
	build, ok := scenarios[scenario]
	if !ok {
		return Script{}, fmt.Errorf("unknown scenario %q, have %v", scenario, Scenarios())
	}
	return build(), nil
}

var scenarios = map[string]func() Script{
	"full-match":      fullMatch,
	"near-period-end": nearPeriodEnd,
	"rest-break":      restBreak,
}

// fullMatch plays four periods with goals, exclusions, a timeout, an
// offence escalation on the white head coach and an undo.
func fullMatch() Script {
	rules := game.DefaultRules()
	pl := rules.PeriodLength

	b := newBuilder()

	// Period 1. A short stoppage at 2:00, the period whistle comes a
	// second after regulation time ran out.
	b.at(0, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(60_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamWhite, "5") })
	b.at(90_000, func(f *game.Factory) game.Event { return f.Exclusion(game.TeamBlue, "3") })
	b.at(120_000, func(f *game.Factory) game.Event { return f.MatchPause() })
	b.at(125_000, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(300_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamBlue, "7") })
	b.at(pl+6_000, func(f *game.Factory) game.Event { return f.MatchPause() })

	// Period 2 starts after the rest break. White burns a timeout, a
	// mistaken goal is undone right after.
	p2 := pl + 6_000 + rules.RestLength
	b.at(p2, func(f *game.Factory) game.Event { return f.MatchStart() })
	wrongGoal := ""
	b.at(p2+44_000, func(f *game.Factory) game.Event {
		ev := f.GoalScored(game.TeamWhite, "9")
		wrongGoal = ev.ID
		return ev
	})
	b.at(p2+50_000, func(f *game.Factory) game.Event { return f.UndoEvents(wrongGoal) })
	b.at(p2+52_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamWhite, "8") })
	b.at(p2+94_000, func(f *game.Factory) game.Event { return f.Timeout(game.TeamWhite) })
	b.at(p2+94_500, func(f *game.Factory) game.Event { return f.MatchPause() })
	b.at(p2+154_000, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(p2+200_000, func(f *game.Factory) game.Event { return f.ViolentAction(game.TeamBlue, "9") })
	p2End := p2 + 60_500 + pl + 1_000
	b.at(p2End, func(f *game.Factory) game.Event { return f.MatchPause() })

	// Period 3. The white head coach picks up both cards.
	p3 := p2End + rules.RestLength
	b.at(p3, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(p3+30_000, func(f *game.Factory) game.Event { return f.Exclusion(game.TeamWhite, game.CapHeadCoach) })
	b.at(p3+200_000, func(f *game.Factory) game.Event { return f.Penalty(game.TeamBlue, "4") })
	b.at(p3+201_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamWhite, "4") })
	b.at(p3+390_000, func(f *game.Factory) game.Event { return f.EM(game.TeamWhite, game.CapHeadCoach) })
	p3End := p3 + pl + 2_000
	b.at(p3End, func(f *game.Factory) game.Event { return f.MatchPause() })

	// Period 4.
	p4 := p3End + rules.RestLength
	b.at(p4, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(p4+110_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamBlue, "11") })
	b.at(p4+320_000, func(f *game.Factory) game.Event { return f.Timeout(game.TeamBlue) })
	b.at(p4+320_500, func(f *game.Factory) game.Event { return f.MatchPause() })
	b.at(p4+380_000, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(p4+pl+60_500, func(f *game.Factory) game.Event { return f.MatchPause() })

	return b.script("full-match")
}

// nearPeriodEnd leaves the first period running with ten seconds left on
// the clock.
func nearPeriodEnd() Script {
	rules := game.DefaultRules()

	b := newBuilder()
	b.at(0, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(45_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamWhite, "2") })
	b.at(rules.PeriodLength-10_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamBlue, "6") })

	return b.script("near-period-end")
}

// restBreak parks the match one minute into the rest between the first
// and second periods.
func restBreak() Script {
	rules := game.DefaultRules()

	b := newBuilder()
	b.at(0, func(f *game.Factory) game.Event { return f.MatchStart() })
	b.at(200_000, func(f *game.Factory) game.Event { return f.GoalScored(game.TeamBlue, "10") })
	b.at(rules.PeriodLength+1_000, func(f *game.Factory) game.Event { return f.MatchPause() })

	s := b.script("rest-break")
	s.Duration += 60_000
	return s
}
