package bracket

import (
	"fmt"
	"time"
)

type TournamentStatus string

const (
	TournamentPending   TournamentStatus = "PENDING"
	TournamentActive    TournamentStatus = "ACTIVE"
	TournamentCompleted TournamentStatus = "COMPLETED"
)

// MinPlayers is both the start threshold and the victory threshold.
const MinPlayers = 4

// Tournament is the aggregate loaded, mutated and stored as a whole.
type Tournament struct {
	ID           string           `json:"id" bson:"_id"`
	Name         string           `json:"name" bson:"name"`
	PasswordHash string           `json:"-" bson:"passwordHash"`
	Status       TournamentStatus `json:"status" bson:"status"`
	CurrentRound int              `json:"currentRound" bson:"currentRound"`
	Players      []Player         `json:"players" bson:"players"`
	Rounds       []Round          `json:"rounds" bson:"rounds"`
	OwnerID      *string          `json:"ownerId,omitempty" bson:"ownerId,omitempty"`
	IsDemo       bool             `json:"isDemo" bson:"isDemo"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
}

// Summary carries the counters shown on the admin overview.
type Summary struct {
	PlayerCount           int `json:"playerCount"`
	ActivePlayerCount     int `json:"activePlayerCount"`
	RoundCount            int `json:"roundCount"`
	CompletedMatchesCount int `json:"completedMatchesCount"`
}

// Clone returns a deep copy so an operation can mutate it without aliasing the caller's value.
func (t *Tournament) Clone() *Tournament {
	c := *t
	if t.Players != nil {
		c.Players = append(make([]Player, 0, len(t.Players)), t.Players...)
	}
	if t.OwnerID != nil {
		owner := *t.OwnerID
		c.OwnerID = &owner
	}
	c.Rounds = nil
	if t.Rounds != nil {
		c.Rounds = make([]Round, len(t.Rounds))
		for i := range t.Rounds {
			c.Rounds[i] = t.Rounds[i].clone()
		}
	}
	return &c
}

// LastRound returns the only mutable round, or nil before the tournament starts.
func (t *Tournament) LastRound() *Round {
	if len(t.Rounds) == 0 {
		return nil
	}
	return &t.Rounds[len(t.Rounds)-1]
}

func (t *Tournament) roundIndex(number int) int {
	for i := range t.Rounds {
		if t.Rounds[i].RoundNumber == number {
			return i
		}
	}
	return -1
}

func (t *Tournament) isLocked(matchID string) bool {
	for i := 0; i < len(t.Rounds)-1; i++ {
		if t.Rounds[i].findMatch(matchID) >= 0 {
			return true
		}
	}
	return false
}

// Winners returns the surviving players of a completed tournament. There may be one to three.
func (t *Tournament) Winners() []Player {
	if t.Status != TournamentCompleted {
		return nil
	}
	return ActivePlayers(t.Players)
}

func (t *Tournament) Summary() Summary {
	s := Summary{
		PlayerCount:       len(t.Players),
		ActivePlayerCount: ActiveCount(t.Players),
		RoundCount:        len(t.Rounds),
	}
	for i := range t.Rounds {
		s.CompletedMatchesCount += t.Rounds[i].DecidedCount()
	}
	return s
}

// Validate checks the structural invariants of the aggregate.
func (t *Tournament) Validate() error {
	for i := range t.Rounds {
		want := i + 1
		if t.Rounds[0].RoundNumber == QualifierRound {
			want = i
		}
		if t.Rounds[i].RoundNumber != want {
			return fmt.Errorf("round at position %d has number %d, want %d", i, t.Rounds[i].RoundNumber, want)
		}
		if err := checkRoundPlayers(&t.Rounds[i]); err != nil {
			return err
		}
	}
	if last := t.LastRound(); last != nil && t.Status != TournamentPending && t.CurrentRound != last.RoundNumber {
		return fmt.Errorf("current round %d does not match last round %d", t.CurrentRound, last.RoundNumber)
	}
	if len(t.Rounds) == 0 && t.CurrentRound != 0 {
		return fmt.Errorf("current round %d without rounds", t.CurrentRound)
	}
	return nil
}

func checkRoundPlayers(r *Round) error {
	seen := make(map[string]bool)
	mark := func(id string) error {
		if seen[id] {
			return fmt.Errorf("player %s appears twice in round %d", id, r.RoundNumber)
		}
		seen[id] = true
		return nil
	}
	for i := range r.Matches {
		for _, id := range r.Matches[i].PlayerIDs() {
			if err := mark(id); err != nil {
				return err
			}
		}
	}
	for _, id := range r.Byes {
		if err := mark(id); err != nil {
			return err
		}
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
