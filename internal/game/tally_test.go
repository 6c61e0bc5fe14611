// internal/game/tally_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveVotesMajority(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	votes := map[uuid.UUID]int{
		uuid.New(): 0,
		uuid.New(): 0,
		uuid.New(): 1,
	}
	for i := 0; i < 50; i++ {
		assert.Equal(t, 0, ResolveVotes(votes, rng))
	}
}

func TestResolveVotesTieBreaksAmongTied(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	votes := map[uuid.UUID]int{
		uuid.New(): 0,
		uuid.New(): 1,
	}
	seen := make(map[int]int)
	for i := 0; i < 500; i++ {
		seen[ResolveVotes(votes, rng)]++
	}
	assert.Greater(t, seen[0], 0, "option 0 should win some ties")
	assert.Greater(t, seen[1], 0, "option 1 should win some ties")
	assert.Zero(t, seen[2])
	assert.Zero(t, seen[3])
}

func TestResolveVotesEmptyPicksAnyOption(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		idx := ResolveVotes(map[uuid.UUID]int{}, rng)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, OptionCount)
		seen[idx] = true
	}
	assert.Len(t, seen, OptionCount, "every option should be reachable with no votes")
}

func TestResolveVotesIgnoresOutOfRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	votes := map[uuid.UUID]int{
		uuid.New(): 3,
		uuid.New(): 9,
		uuid.New(): -1,
	}
	assert.Equal(t, 3, ResolveVotes(votes, rng))
}
