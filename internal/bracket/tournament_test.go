package bracket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	owner := "u1"
	tour := mustApply(t, newTestEngine(), pendingTournament(8), StartTournament{})
	tour.OwnerID = &owner

	c := tour.Clone()
	winner := Team1
	c.Rounds[0].Matches[0].WinnerTeam = &winner
	c.Rounds[0].Byes = append(c.Rounds[0].Byes, "p9")
	c.Players[0].IsEliminated = true
	*c.OwnerID = "u2"

	assert.Nil(t, tour.Rounds[0].Matches[0].WinnerTeam)
	assert.Empty(t, tour.Rounds[0].Byes)
	assert.False(t, tour.Players[0].IsEliminated)
	assert.Equal(t, "u1", *tour.OwnerID)
}

func TestValidate(t *testing.T) {
	match := func(id string, players ...string) Match {
		return Match{
			ID:    id,
			Team1: Team{PlayerIDs: [2]string{players[0], players[1]}},
			Team2: Team{PlayerIDs: [2]string{players[2], players[3]}},
		}
	}

	testCases := []struct {
		name        string
		tournament  Tournament
		expectError bool
	}{
		{
			name:       "pending without rounds",
			tournament: Tournament{Status: TournamentPending},
		},
		{
			name: "qualifier followed by round one",
			tournament: Tournament{
				Status:       TournamentActive,
				CurrentRound: 1,
				Rounds:       []Round{{RoundNumber: 0}, {RoundNumber: 1}},
			},
		},
		{
			name: "gap in round numbers",
			tournament: Tournament{
				Status:       TournamentActive,
				CurrentRound: 3,
				Rounds:       []Round{{RoundNumber: 1}, {RoundNumber: 3}},
			},
			expectError: true,
		},
		{
			name: "current round behind last round",
			tournament: Tournament{
				Status:       TournamentActive,
				CurrentRound: 1,
				Rounds:       []Round{{RoundNumber: 1}, {RoundNumber: 2}},
			},
			expectError: true,
		},
		{
			name:        "current round without rounds",
			tournament:  Tournament{Status: TournamentPending, CurrentRound: 2},
			expectError: true,
		},
		{
			name: "player drawn twice",
			tournament: Tournament{
				Status:       TournamentActive,
				CurrentRound: 1,
				Rounds: []Round{{
					RoundNumber: 1,
					Matches:     []Match{match("m1", "p1", "p2", "p3", "p4")},
					Byes:        []string{"p2"},
				}},
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tournament.Validate()
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	engine := newTestEngine()
	tour := mustApply(t, engine, pendingTournament(9), StartTournament{})
	tour = mustApply(t, engine, tour, RecordMatchResult{MatchID: "m1", WinnerTeam: Team2})

	assert.Equal(t, Summary{
		PlayerCount:           9,
		ActivePlayerCount:     7,
		RoundCount:            1,
		CompletedMatchesCount: 1,
	}, tour.Summary())
}

func TestWinnersOnlyWhenCompleted(t *testing.T) {
	tour := pendingTournament(3)
	assert.Nil(t, tour.Winners())

	tour.Status = TournamentCompleted
	require.Len(t, tour.Winners(), 3)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPrecondition, KindOf(fmt.Errorf("start: %w", ErrTooFewPlayers)))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("delete_round: %w", fmt.Errorf("%w: 3", ErrRoundNotFound))))
	assert.Equal(t, KindConflict, KindOf(ErrAlreadyDecided))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "not_found", KindNotFound.String())
}
