package views

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	users "github.com/AdamBeresnev/tiebreak/internal/user"
	"github.com/AdamBeresnev/tiebreak/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundWithMatches(number, matches int) *bracket.Round {
	return &bracket.Round{RoundNumber: number, Matches: make([]bracket.Match, matches)}
}

func team(a, b string) bracket.Team {
	return bracket.Team{PlayerIDs: [2]string{a, b}}
}

// qualifierTournament has six players: a decided qualifier followed by an undecided final.
func qualifierTournament() *bracket.Tournament {
	t := &bracket.Tournament{
		ID:           "t1",
		Name:         "Friday <Tiebreak>",
		Status:       bracket.TournamentActive,
		CurrentRound: 1,
	}
	for i := 1; i <= 6; i++ {
		t.Players = append(t.Players, bracket.Player{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)})
	}
	t.Players[0].IsEliminated = true
	t.Players[1].IsEliminated = true

	t.Rounds = []bracket.Round{
		{
			RoundNumber: 0,
			Matches:     []bracket.Match{{ID: "m1", Team1: team("p1", "p2"), Team2: team("p3", "p4"), WinnerTeam: utils.Ptr(bracket.Team2)}},
			Byes:        []string{"p5", "p6"},
			IsComplete:  true,
		},
		{
			RoundNumber: 1,
			Matches:     []bracket.Match{{ID: "m2", Team1: team("p3", "p4"), Team2: team("p5", "p6")}},
			Byes:        []string{},
		},
	}
	return t
}

func TestRoundDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		round *bracket.Round
		want  string
	}{
		{"qualifier", roundWithMatches(0, 3), "Qualifier"},
		{"final", roundWithMatches(3, 1), "Final"},
		{"semifinals", roundWithMatches(2, 2), "Semifinals"},
		{"quarterfinals", roundWithMatches(1, 4), "Quarterfinals"},
		{"round of 16", roundWithMatches(1, 8), "Round of 16"},
		{"other sizes use the number", roundWithMatches(2, 3), "Round 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundDisplayName(tt.round))
		})
	}
}

func TestPrepareTournamentData(t *testing.T) {
	data := PrepareTournamentData(qualifierTournament(), "dDE")

	assert.Equal(t, "Friday <Tiebreak>", data.Name)
	assert.Equal(t, "dDE", data.ShareHash)
	assert.Equal(t, "/tournaments/t1/live", data.LiveURL)
	assert.Equal(t, 4, data.ActivePlayers)
	assert.Empty(t, data.Winners)

	require.Len(t, data.Rounds, 2)

	latest := data.Rounds[0]
	assert.Equal(t, 1, latest.Number)
	assert.Equal(t, "Final", latest.Title)
	assert.True(t, latest.IsCurrent)
	assert.False(t, latest.IsComplete)
	require.Len(t, latest.Matches, 1)
	assert.Equal(t, [2]string{"Player 3", "Player 4"}, latest.Matches[0].Team1.Players)
	assert.False(t, latest.Matches[0].Decided)

	qualifier := data.Rounds[1]
	assert.Equal(t, "Qualifier", qualifier.Title)
	assert.False(t, qualifier.IsCurrent)
	assert.True(t, qualifier.IsComplete)
	assert.Equal(t, []string{"Player 5", "Player 6"}, qualifier.Byes)
	match := qualifier.Matches[0]
	assert.True(t, match.Decided)
	assert.True(t, match.Team1.Lost)
	assert.True(t, match.Team2.Won)
	assert.False(t, match.Team2.Lost)
}

func TestPrepareTournamentDataWinners(t *testing.T) {
	tournament := qualifierTournament()
	tournament.Rounds[1].Matches[0].WinnerTeam = utils.Ptr(bracket.Team1)
	tournament.Rounds[1].IsComplete = true
	tournament.Players[4].IsEliminated = true
	tournament.Players[5].IsEliminated = true
	tournament.Status = bracket.TournamentCompleted

	data := PrepareTournamentData(tournament, "")

	assert.Equal(t, []string{"Player 3", "Player 4"}, data.Winners)
	assert.False(t, data.Rounds[0].IsCurrent)
}

func TestTournamentPageEscapesNames(t *testing.T) {
	var buf bytes.Buffer
	err := TournamentPage(PrepareTournamentData(qualifierTournament(), "dDE")).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Friday &lt;Tiebreak&gt;")
	assert.NotContains(t, html, "<Tiebreak>")
	assert.Contains(t, html, "Qualifier")
	assert.Contains(t, html, `/players/dDE`)
	assert.Contains(t, html, `data-live-url="/tournaments/t1/live"`)
	assert.Contains(t, html, `class="player player-eliminated"`)
	assert.Contains(t, html, `class="team team-won"`)
	assert.Contains(t, html, "Player 5 &amp; Player 6")
	assert.Contains(t, html, `class="round round-current"`)
}

func TestNotFoundPageEscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NotFoundPage(`<script>alert("x")</script>`).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "<title>Not found</title>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, `<script>alert`)
}

func TestHomePage(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HomePage(nil).Render(context.Background(), &buf))
		assert.Contains(t, buf.String(), "Continue as guest")
	})

	t.Run("logged in", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), users.UserKey, &users.User{Username: "Ada"})

		var buf bytes.Buffer
		require.NoError(t, HomePage([]*bracket.Tournament{qualifierTournament()}).Render(ctx, &buf))
		html := buf.String()
		assert.Contains(t, html, "Ada")
		assert.Contains(t, html, `href="/tournaments/t1"`)
		assert.NotContains(t, html, "Continue as guest")
	})
}
