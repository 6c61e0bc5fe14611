// internal/game/tally.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// OptionCount is the number of candidate words offered each turn.
const OptionCount = 4

// ResolveVotes returns the option index with the most votes. Ties are broken uniformly at
// random among the tied indices, and an empty vote set picks uniformly among all options,
// so a decision is always produced. Out-of-range votes are not counted.
func ResolveVotes(votes map[uuid.UUID]int, rng *rand.Rand) int {
	var tally [OptionCount]int
	for _, idx := range votes {
		if validOption(idx) {
			tally[idx]++
		}
	}

	best := -1
	candidates := make([]int, 0, OptionCount)
	for i, count := range tally {
		switch {
		case count > best:
			best = count
			candidates = append(candidates[:0], i)
		case count == best:
			candidates = append(candidates, i)
		}
	}

	if len(votes) == 0 || len(candidates) == 0 {
		return rng.Intn(OptionCount)
	}
	return candidates[rng.Intn(len(candidates))]
}

func validOption(idx int) bool {
	return idx >= 0 && idx < OptionCount
}
