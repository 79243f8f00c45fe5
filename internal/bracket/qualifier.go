package bracket

type QualifierPlan struct {
	Target             int
	ToEliminate        int
	QualifierMatches   int
	PlayersInQualifier int
	QualifierByes      int
}

// bracketTarget is the largest power of two <= count, never below 4.
func bracketTarget(count int) int {
	target := MinPlayers
	for target*2 <= count {
		target *= 2
	}
	return target
}

// PlanQualifier decides whether a round 0 is needed to bring the active count down towards a
// power of two. Each qualifier match removes exactly two players, so an odd surplus lands one
// above the target; that is accepted as is.
func PlanQualifier(activeCount int) *QualifierPlan {
	target := bracketTarget(activeCount)
	toEliminate := activeCount - target
	if toEliminate < 2 {
		return nil
	}

	matches := toEliminate / 2
	inQualifier := matches * PlayersPerMatch
	return &QualifierPlan{
		Target:             target,
		ToEliminate:        toEliminate,
		QualifierMatches:   matches,
		PlayersInQualifier: inQualifier,
		QualifierByes:      activeCount - inQualifier,
	}
}
