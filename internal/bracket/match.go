package bracket

// TeamSlot identifies one side of a match.
type TeamSlot int

const (
	Team1 TeamSlot = 1
	Team2 TeamSlot = 2
)

func (s TeamSlot) Valid() bool {
	return s == Team1 || s == Team2
}

type Team struct {
	PlayerIDs [2]string `json:"playerIds" bson:"playerIds"`
}

type Match struct {
	ID    string `json:"id" bson:"id"`
	Team1 Team   `json:"team1" bson:"team1"`
	Team2 Team   `json:"team2" bson:"team2"`

	// Nil until the match is decided
	WinnerTeam *TeamSlot `json:"winnerTeam" bson:"winnerTeam"`
}

func (m *Match) IsDecided() bool {
	return m.WinnerTeam != nil
}

func (m *Match) IsWinner(slot TeamSlot) bool {
	return m.WinnerTeam != nil && *m.WinnerTeam == slot
}

func (m *Match) IsLoser(slot TeamSlot) bool {
	return m.WinnerTeam != nil && *m.WinnerTeam != slot
}

// LosingPlayerIDs returns the ids of the losing team, or nil while undecided.
func (m *Match) LosingPlayerIDs() []string {
	switch {
	case m.IsWinner(Team1):
		return m.Team2.PlayerIDs[:]
	case m.IsWinner(Team2):
		return m.Team1.PlayerIDs[:]
	}
	return nil
}

func (m *Match) PlayerIDs() []string {
	return []string{m.Team1.PlayerIDs[0], m.Team1.PlayerIDs[1], m.Team2.PlayerIDs[0], m.Team2.PlayerIDs[1]}
}

func (m *Match) Has(playerID string) bool {
	for _, id := range m.PlayerIDs() {
		if id == playerID {
			return true
		}
	}
	return false
}
