package bracket

type Player struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	IsEliminated bool   `json:"isEliminated" bson:"isEliminated"`
}

// ActivePlayers returns the players that have not been eliminated, in roster order.
func ActivePlayers(players []Player) []Player {
	active := make([]Player, 0, len(players))
	for _, p := range players {
		if !p.IsEliminated {
			active = append(active, p)
		}
	}
	return active
}

func ActiveCount(players []Player) int {
	n := 0
	for _, p := range players {
		if !p.IsEliminated {
			n++
		}
	}
	return n
}

// VictoryReached reports whether fewer than four active players remain.
func VictoryReached(players []Player) bool {
	return ActiveCount(players) < MinPlayers
}

func findPlayer(players []Player, id string) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}

func setEliminated(players []Player, ids []string, eliminated bool) {
	for _, id := range ids {
		if i := findPlayer(players, id); i >= 0 {
			players[i].IsEliminated = eliminated
		}
	}
}
