package bracket

import "errors"

// ErrorKind groups core errors so callers can map them without knowing every condition.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// The tournament is in the wrong state for the operation.
	KindPrecondition
	// A referenced match, round or player does not exist.
	KindNotFound
	// The operation was already applied or has nothing to undo.
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrNotPending          = newError(KindPrecondition, "not_pending", "tournament has already started")
	ErrNotActive           = newError(KindPrecondition, "not_active", "tournament is not active")
	ErrTooFewPlayers       = newError(KindPrecondition, "too_few_players", "at least 4 players are required to start the tournament")
	ErrNoPlayerNames       = newError(KindPrecondition, "no_player_names", "at least one player name is required")
	ErrNoCurrentRound      = newError(KindPrecondition, "no_current_round", "no current round found")
	ErrRoundNotComplete    = newError(KindPrecondition, "round_not_complete", "current round is not complete")
	ErrRoundLocked         = newError(KindPrecondition, "round_locked", "previous rounds are locked")
	ErrMatchLocked         = newError(KindPrecondition, "match_locked", "match belongs to a locked round")
	ErrHasCompletedMatches = newError(KindPrecondition, "has_completed_matches", "round has completed matches, undo them first")
	ErrInvalidWinner       = newError(KindPrecondition, "invalid_winner", "winner team must be 1 or 2")

	ErrMatchNotFound  = newError(KindNotFound, "match_not_found", "match not found")
	ErrRoundNotFound  = newError(KindNotFound, "round_not_found", "round not found")
	ErrPlayerNotFound = newError(KindNotFound, "player_not_found", "player not found")

	ErrAlreadyDecided = newError(KindConflict, "already_decided", "match result has already been recorded")
	ErrNoResultToUndo = newError(KindConflict, "no_result_to_undo", "match has no result to undo")
)

// KindOf returns the kind of the first core error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
