package views

import (
	"fmt"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
)

type TeamView struct {
	Players [2]string
	Won     bool
	Lost    bool
}

type MatchView struct {
	ID      string
	Team1   TeamView
	Team2   TeamView
	Decided bool
}

type RoundView struct {
	Number     int
	Title      string
	Matches    []MatchView
	Byes       []string
	IsComplete bool
	IsCurrent  bool
}

type TournamentData struct {
	Name          string
	Status        bracket.TournamentStatus
	ShareHash     string
	LiveURL       string
	Rounds        []RoundView
	Players       []bracket.Player
	ActivePlayers int
	Winners       []string
}

// RoundDisplayName names a round after the number of teams still playing in it.
func RoundDisplayName(round *bracket.Round) string {
	if round.RoundNumber == bracket.QualifierRound {
		return "Qualifier"
	}

	switch len(round.Matches) * 2 {
	case 2:
		return "Final"
	case 4:
		return "Semifinals"
	case 8:
		return "Quarterfinals"
	case 16:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round %d", round.RoundNumber)
	}
}

// PrepareTournamentData resolves player ids to names and orders rounds newest first for display.
func PrepareTournamentData(t *bracket.Tournament, shareHash string) TournamentData {
	names := make(map[string]string, len(t.Players))
	for _, p := range t.Players {
		names[p.ID] = p.Name
	}
	nameOf := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}

	data := TournamentData{
		Name:          t.Name,
		Status:        t.Status,
		ShareHash:     shareHash,
		LiveURL:       "/tournaments/" + t.ID + "/live",
		Rounds:        make([]RoundView, 0, len(t.Rounds)),
		Players:       t.Players,
		ActivePlayers: bracket.ActiveCount(t.Players),
	}

	for i := len(t.Rounds) - 1; i >= 0; i-- {
		round := &t.Rounds[i]
		view := RoundView{
			Number:     round.RoundNumber,
			Title:      RoundDisplayName(round),
			Matches:    make([]MatchView, 0, len(round.Matches)),
			Byes:       make([]string, 0, len(round.Byes)),
			IsComplete: round.IsComplete,
			IsCurrent:  i == len(t.Rounds)-1 && t.Status == bracket.TournamentActive,
		}
		for j := range round.Matches {
			m := &round.Matches[j]
			view.Matches = append(view.Matches, MatchView{
				ID: m.ID,
				Team1: TeamView{
					Players: [2]string{nameOf(m.Team1.PlayerIDs[0]), nameOf(m.Team1.PlayerIDs[1])},
					Won:     m.IsWinner(bracket.Team1),
					Lost:    m.IsLoser(bracket.Team1),
				},
				Team2: TeamView{
					Players: [2]string{nameOf(m.Team2.PlayerIDs[0]), nameOf(m.Team2.PlayerIDs[1])},
					Won:     m.IsWinner(bracket.Team2),
					Lost:    m.IsLoser(bracket.Team2),
				},
				Decided: m.IsDecided(),
			})
		}
		for _, id := range round.Byes {
			view.Byes = append(view.Byes, nameOf(id))
		}
		data.Rounds = append(data.Rounds, view)
	}

	for _, p := range t.Winners() {
		data.Winners = append(data.Winners, p.Name)
	}
	return data
}
