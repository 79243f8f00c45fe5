package bracket

import (
	"fmt"
	"strings"
)

// Operation is one request against the tournament aggregate.
// All precondition checks live in the apply methods below.
type Operation interface {
	Name() string
	apply(e *Engine, t *Tournament) error
}

type (
	StartTournament struct{}

	AddPlayers struct {
		Names []string
	}

	RemovePlayer struct {
		PlayerID string
	}

	RecordMatchResult struct {
		MatchID    string
		WinnerTeam TeamSlot
	}

	UndoMatchResult struct {
		MatchID string
	}

	AdvanceRound struct{}

	DeleteRound struct {
		RoundNumber int
	}

	RedrawRound struct {
		RoundNumber int
	}

	// ResetResults clears every result across all rounds and puts the tournament back to PENDING.
	ResetResults struct{}
)

func (StartTournament) Name() string   { return "start" }
func (AddPlayers) Name() string        { return "add_players" }
func (RemovePlayer) Name() string      { return "remove_player" }
func (RecordMatchResult) Name() string { return "record_result" }
func (UndoMatchResult) Name() string   { return "undo_result" }
func (AdvanceRound) Name() string      { return "advance_round" }
func (DeleteRound) Name() string       { return "delete_round" }
func (RedrawRound) Name() string       { return "redraw_round" }
func (ResetResults) Name() string      { return "reset_results" }

// Apply runs op against a private copy of t. On success the mutated copy is returned and t is
// left as it was; on failure nothing is returned and t is untouched as well.
// A result that breaks the structural invariants is rejected rather than handed out for storage.
func (e *Engine) Apply(t *Tournament, op Operation) (*Tournament, error) {
	next := t.Clone()
	if err := op.apply(e, next); err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name(), err)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid tournament: %w", op.Name(), err)
	}
	return next, nil
}

func (StartTournament) apply(e *Engine, t *Tournament) error {
	if t.Status != TournamentPending {
		return ErrNotPending
	}
	if ActiveCount(t.Players) < MinPlayers {
		return ErrTooFewPlayers
	}

	// Rounds left behind by a reset are discarded, the draw starts over.
	t.Rounds = nil
	round, ok := e.BuildRound(t.Players, QualifierRound)
	if !ok {
		round, _ = e.BuildRound(t.Players, 1)
	}
	t.Rounds = append(t.Rounds, round)
	t.CurrentRound = round.RoundNumber
	t.Status = TournamentActive
	return nil
}

func (op AddPlayers) apply(e *Engine, t *Tournament) error {
	if t.Status != TournamentPending {
		return ErrNotPending
	}
	added := 0
	for _, name := range op.Names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t.Players = append(t.Players, Player{ID: e.newID(), Name: name})
		added++
	}
	if added == 0 {
		return ErrNoPlayerNames
	}
	return nil
}

func (op RemovePlayer) apply(_ *Engine, t *Tournament) error {
	if t.Status != TournamentPending {
		return ErrNotPending
	}
	i := findPlayer(t.Players, op.PlayerID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, op.PlayerID)
	}
	t.Players = append(t.Players[:i], t.Players[i+1:]...)
	return nil
}

func (op RecordMatchResult) apply(_ *Engine, t *Tournament) error {
	if t.Status != TournamentActive {
		return ErrNotActive
	}
	round := t.LastRound()
	if round == nil {
		return ErrNoCurrentRound
	}
	if round.findMatch(op.MatchID) < 0 && t.isLocked(op.MatchID) {
		return fmt.Errorf("%w: %s", ErrMatchLocked, op.MatchID)
	}
	if err := ApplyResult(round, t.Players, op.MatchID, op.WinnerTeam); err != nil {
		return err
	}
	if round.IsComplete && VictoryReached(t.Players) {
		t.Status = TournamentCompleted
	}
	return nil
}

func (op UndoMatchResult) apply(_ *Engine, t *Tournament) error {
	// Undoing a result means the tournament is no longer decided.
	if t.Status == TournamentCompleted {
		t.Status = TournamentActive
	}
	if t.Status != TournamentActive {
		return ErrNotActive
	}
	round := t.LastRound()
	if round == nil {
		return ErrNoCurrentRound
	}
	if round.findMatch(op.MatchID) < 0 && t.isLocked(op.MatchID) {
		return fmt.Errorf("%w: %s", ErrMatchLocked, op.MatchID)
	}
	return UndoResult(round, t.Players, op.MatchID)
}

func (AdvanceRound) apply(e *Engine, t *Tournament) error {
	if t.Status != TournamentActive {
		return ErrNotActive
	}
	last := t.LastRound()
	if last == nil || !last.IsComplete {
		return ErrRoundNotComplete
	}
	if VictoryReached(t.Players) {
		t.Status = TournamentCompleted
		return nil
	}

	round, _ := e.BuildRound(t.Players, t.CurrentRound+1)
	t.Rounds = append(t.Rounds, round)
	t.CurrentRound = round.RoundNumber
	return nil
}

// mutableRound resolves number to the last round, rejecting unknown and locked rounds.
func mutableRound(t *Tournament, number int) (*Round, error) {
	i := t.roundIndex(number)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrRoundNotFound, number)
	}
	if i != len(t.Rounds)-1 {
		return nil, fmt.Errorf("%w: round %d", ErrRoundLocked, number)
	}
	round := &t.Rounds[i]
	if round.HasDecidedMatch() {
		return nil, fmt.Errorf("%w: round %d", ErrHasCompletedMatches, number)
	}
	return round, nil
}

func (op DeleteRound) apply(_ *Engine, t *Tournament) error {
	if t.Status != TournamentActive {
		return ErrNotActive
	}
	round, err := mutableRound(t, op.RoundNumber)
	if err != nil {
		return err
	}

	for i := range round.Matches {
		setEliminated(t.Players, round.Matches[i].LosingPlayerIDs(), false)
	}
	t.Rounds = t.Rounds[:len(t.Rounds)-1]

	if last := t.LastRound(); last != nil {
		t.CurrentRound = last.RoundNumber
	} else {
		t.CurrentRound = 0
		t.Status = TournamentPending
	}
	return nil
}

func (op RedrawRound) apply(e *Engine, t *Tournament) error {
	if t.Status != TournamentActive {
		return ErrNotActive
	}
	round, err := mutableRound(t, op.RoundNumber)
	if err != nil {
		return err
	}

	round.Matches, round.Byes = e.Pair(ActivePlayers(t.Players))
	round.IsComplete = len(round.Matches) == 0
	return nil
}

func (ResetResults) apply(_ *Engine, t *Tournament) error {
	for i := range t.Rounds {
		for j := range t.Rounds[i].Matches {
			t.Rounds[i].Matches[j].WinnerTeam = nil
		}
		t.Rounds[i].IsComplete = false
	}
	for i := range t.Players {
		t.Players[i].IsEliminated = false
	}
	t.CurrentRound = 0
	t.Status = TournamentPending
	return nil
}
