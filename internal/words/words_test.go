package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolLoadsEmbeddedList(t *testing.T) {
	p := DefaultPool()
	assert.Greater(t, p.Len(), 50)
}

func TestPickOptionsNeverRepeatsWithinMatch(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}, 1)
	used := map[string]struct{}{}
	seen := map[string]bool{}

	for turn := 0; turn < 3; turn++ {
		opts := p.PickOptions(used, 4)
		require.Len(t, opts, 4)
		for _, w := range opts {
			assert.False(t, seen[w], "word %q handed out twice", w)
			seen[w] = true
			_, marked := used[w]
			assert.True(t, marked, "word %q not marked used", w)
		}
	}
	assert.Len(t, used, 12)
}

func TestPickOptionsSkipsUsedWords(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d", "e", "f"}, 7)
	used := map[string]struct{}{"a": {}, "b": {}}
	opts := p.PickOptions(used, 4)
	assert.ElementsMatch(t, []string{"c", "d", "e", "f"}, opts)
}

func TestPickOptionsFallsBackWhenExhausted(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d", "e"}, 3)
	used := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	opts := p.PickOptions(used, 4)
	require.Len(t, opts, 4)
	assert.Contains(t, opts, "d")
	assert.Contains(t, opts, "e")

	distinct := map[string]struct{}{}
	for _, w := range opts {
		distinct[w] = struct{}{}
	}
	assert.Len(t, distinct, 4)
}

func TestNewPoolDropsBlanksAndDuplicates(t *testing.T) {
	p := NewPool([]string{"a", " ", "a", "b", ""}, 1)
	assert.Equal(t, 2, p.Len())
}
