package bracket

// QualifierRound is the round number reserved for the optional preliminary round.
const QualifierRound = 0

type Round struct {
	RoundNumber int      `json:"roundNumber" bson:"roundNumber"`
	Matches     []Match  `json:"matches" bson:"matches"`
	Byes        []string `json:"byes" bson:"byes"`
	IsComplete  bool     `json:"isComplete" bson:"isComplete"`
}

// AllDecided reports whether every match has a winner. A round without matches is trivially decided.
func (r *Round) AllDecided() bool {
	for i := range r.Matches {
		if !r.Matches[i].IsDecided() {
			return false
		}
	}
	return true
}

func (r *Round) HasDecidedMatch() bool {
	for i := range r.Matches {
		if r.Matches[i].IsDecided() {
			return true
		}
	}
	return false
}

func (r *Round) DecidedCount() int {
	n := 0
	for i := range r.Matches {
		if r.Matches[i].IsDecided() {
			n++
		}
	}
	return n
}

func (r *Round) findMatch(id string) int {
	for i := range r.Matches {
		if r.Matches[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Round) clone() Round {
	c := Round{
		RoundNumber: r.RoundNumber,
		Matches:     nil,
		Byes:        cloneStrings(r.Byes),
		IsComplete:  r.IsComplete,
	}
	if r.Matches != nil {
		c.Matches = make([]Match, len(r.Matches))
	}
	for i, m := range r.Matches {
		if m.WinnerTeam != nil {
			w := *m.WinnerTeam
			m.WinnerTeam = &w
		}
		c.Matches[i] = m
	}
	return c
}
