package bracket

// BuildRound composes a round over the currently active players.
//
// Round 0 is the qualifier: ok is false when no qualifier is needed and nothing is built.
// Any other round number pairs every active player; a round without matches is complete at once.
func (e *Engine) BuildRound(players []Player, roundNumber int) (Round, bool) {
	active := ActivePlayers(players)

	if roundNumber == QualifierRound {
		plan := PlanQualifier(len(active))
		if plan == nil {
			return Round{}, false
		}
		matches, byes := e.groupShuffled(Shuffle(e.rand, active), plan.QualifierMatches)
		return Round{
			RoundNumber: QualifierRound,
			Matches:     matches,
			Byes:        byes,
			IsComplete:  false,
		}, true
	}

	matches, byes := e.Pair(active)
	return Round{
		RoundNumber: roundNumber,
		Matches:     matches,
		Byes:        byes,
		IsComplete:  len(matches) == 0,
	}, true
}
