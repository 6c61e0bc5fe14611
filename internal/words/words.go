// internal/words/words.go
package words

import (
	"bufio"
	_ "embed"
	"math/rand"
	"strings"
	"sync"
	"time"
)

//go:embed words.txt
var defaultList string

// Pool hands out candidate words. It is safe for concurrent use by many rooms; the used
// set passed to PickOptions belongs to the caller's room.
type Pool struct {
	mu    sync.Mutex
	words []string
	rng   *rand.Rand
}

// NewPool builds a pool over words. Blank and duplicate entries are dropped.
func NewPool(words []string, seed int64) *Pool {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		clean = append(clean, w)
	}
	return &Pool{words: clean, rng: rand.New(rand.NewSource(seed))}
}

// DefaultPool returns a pool over the embedded word list, one word per line.
func DefaultPool() *Pool {
	var list []string
	scanner := bufio.NewScanner(strings.NewReader(defaultList))
	for scanner.Scan() {
		list = append(list, scanner.Text())
	}
	return NewPool(list, time.Now().UnixNano())
}

// Len returns the number of distinct words in the pool.
func (p *Pool) Len() int {
	return len(p.words)
}

// PickOptions returns count distinct words that are not in used and marks them used.
// When fewer than count unused words remain, the rest is filled from already used words so
// a turn always gets a full set of options.
func (p *Pool) PickOptions(used map[string]struct{}, count int) []string {
	p.mu.Lock()
	order := p.rng.Perm(len(p.words))
	p.mu.Unlock()

	options := make([]string, 0, count)
	chosen := make(map[string]struct{}, count)
	for _, i := range order {
		if len(options) == count {
			break
		}
		w := p.words[i]
		if _, ok := used[w]; ok {
			continue
		}
		options = append(options, w)
		chosen[w] = struct{}{}
	}
	for _, i := range order {
		if len(options) == count {
			break
		}
		w := p.words[i]
		if _, ok := chosen[w]; ok {
			continue
		}
		options = append(options, w)
		chosen[w] = struct{}{}
	}

	for _, w := range options {
		used[w] = struct{}{}
	}
	return options
}
