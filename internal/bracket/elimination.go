package bracket

import "fmt"

// ApplyResult decides a match of round and eliminates the losing team.
// Only round and players are touched.
func ApplyResult(round *Round, players []Player, matchID string, winner TeamSlot) error {
	if !winner.Valid() {
		return ErrInvalidWinner
	}
	i := round.findMatch(matchID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	match := &round.Matches[i]
	if match.IsDecided() {
		return fmt.Errorf("%w: %s", ErrAlreadyDecided, matchID)
	}

	match.WinnerTeam = &winner
	setEliminated(players, match.LosingPlayerIDs(), true)
	round.IsComplete = round.AllDecided()
	return nil
}

// UndoResult clears a decided match and brings its losing team back.
func UndoResult(round *Round, players []Player, matchID string) error {
	i := round.findMatch(matchID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	match := &round.Matches[i]
	if !match.IsDecided() {
		return fmt.Errorf("%w: %s", ErrNoResultToUndo, matchID)
	}

	losers := match.LosingPlayerIDs()
	match.WinnerTeam = nil
	setEliminated(players, losers, false)
	round.IsComplete = false
	return nil
}
