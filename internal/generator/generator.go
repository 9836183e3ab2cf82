// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"sync"
	"time"
	"unicode"
)

// DefaultPunctSet is the punctuation appended to words when enabled.
const DefaultPunctSet = ".,!?;:"

// Generator produces randomized word sequences. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Options control word decoration.
type Options struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Generate selects count words uniformly and applies caps/punctuation rules.
// Adjacent duplicates are avoided when the pool allows it.
func (g *Generator) Generate(words []string, count int, opts Options) []string {
	if count <= 0 || len(words) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]string, 0, count)
	prev := -1
	for i := 0; i < count; i++ {
		idx := g.rnd.Intn(len(words))
		if idx == prev && len(words) > 1 {
			idx = (idx + 1 + g.rnd.Intn(len(words)-1)) % len(words)
		}
		prev = idx
		word := applyCaps(g.rnd, words[idx], opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
		result = append(result, word)
	}
	return result
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
