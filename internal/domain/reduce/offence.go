package reduce

import "github.com/scoretable/scoretable/internal/domain/game"

// NextOffenceCount computes the ledger entry that replaces prev after one
// more offence by cap. The entry is derived fresh from the previous count,
// never mutated in place.
//
// Escalation:
//   - automatic red (em/ems/violent-action): red card, benched;
//   - Head Coach: yellow on the first offence, red and benched after;
//   - Assistant Coach / Team Manager: red and benched on any offence;
//   - numbered players: a red flag once the count reaches three, but they
//     keep playing; only staff are benched.
func NextOffenceCount(prev game.OffenceCount, cap game.Cap, autoRed bool) game.OffenceCount {
	count := prev.Count + 1

	switch {
	case autoRed:
		return game.OffenceCount{Count: count, Card: game.CardRed, NoMoreEvents: true}
	case cap == game.CapHeadCoach:
		if prev.Count == 0 {
			return game.OffenceCount{Count: count, Card: game.CardYellow}
		}
		return game.OffenceCount{Count: count, Card: game.CardRed, NoMoreEvents: true}
	case cap.IsSupportStaff():
		// Assistant Coach and Team Manager are single-strike roles.
		return game.OffenceCount{Count: count, Card: game.CardRed, NoMoreEvents: true}
	default:
		oc := game.OffenceCount{Count: count}
		if count >= 3 {
			oc.RedFlag = true
		}
		return oc
	}
}
