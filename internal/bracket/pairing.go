package bracket

import "github.com/google/uuid"

// PlayersPerMatch is the size of one 2v2 match.
const PlayersPerMatch = 4

// Engine holds the injected collaborators of the core: randomness and id generation.
type Engine struct {
	rand  Source
	newID func() string
}

// NewEngine returns an engine; nil arguments fall back to math/rand/v2 and random UUIDs.
func NewEngine(src Source, newID func() string) *Engine {
	if src == nil {
		src = DefaultSource
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Engine{rand: src, newID: newID}
}

func (e *Engine) NewID() string {
	return e.newID()
}

// Pair shuffles the given players and groups them four at a time into matches.
// The 0-3 players left over at the tail of the shuffle get byes.
func (e *Engine) Pair(active []Player) ([]Match, []string) {
	return e.groupShuffled(Shuffle(e.rand, active), len(active)/PlayersPerMatch)
}

// groupShuffled turns the first matchCount*4 players into matches, the rest into byes.
func (e *Engine) groupShuffled(shuffled []Player, matchCount int) ([]Match, []string) {
	matches := make([]Match, 0, matchCount)
	for k := 0; k < matchCount; k++ {
		p := shuffled[k*PlayersPerMatch : (k+1)*PlayersPerMatch]
		matches = append(matches, Match{
			ID:    e.newID(),
			Team1: Team{PlayerIDs: [2]string{p[0].ID, p[1].ID}},
			Team2: Team{PlayerIDs: [2]string{p[2].ID, p[3].ID}},
		})
	}

	rest := shuffled[matchCount*PlayersPerMatch:]
	byes := make([]string, 0, len(rest))
	for _, p := range rest {
		byes = append(byes, p.ID)
	}
	return matches, byes
}
