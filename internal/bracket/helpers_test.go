package bracket

import "fmt"

// identitySource makes Shuffle keep the input order, so pairings are predictable.
type identitySource struct{}

func (identitySource) IntN(n int) int { return n - 1 }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestEngine() *Engine {
	return NewEngine(identitySource{}, sequentialIDs("m"))
}

func makePlayers(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Player %d", i+1)}
	}
	return players
}

func pendingTournament(n int) *Tournament {
	return &Tournament{
		ID:      "t1",
		Name:    "Friday Tiebreak",
		Status:  TournamentPending,
		Players: makePlayers(n),
	}
}

func activeIDs(players []Player) []string {
	var ids []string
	for _, p := range ActivePlayers(players) {
		ids = append(ids, p.ID)
	}
	return ids
}
