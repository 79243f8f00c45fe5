package bracket

import "math/rand/v2"

// Source supplies uniformly distributed integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultSource draws from the process-wide math/rand/v2 generator.
var DefaultSource Source = globalSource{}

// Shuffle returns a Fisher-Yates permutation of items. The input slice is left untouched.
func Shuffle[T any](src Source, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
