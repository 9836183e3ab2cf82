package generator

import (
	"strings"
	"testing"
	"unicode"
)

func TestGenerateCount(t *testing.T) {
	g := NewSeeded(1)
	words := g.Generate([]string{"alpha", "beta", "gamma"}, 10, Options{})
	if len(words) != 10 {
		t.Fatalf("expected 10 words, got %d", len(words))
	}
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			t.Fatalf("expected no adjacent duplicates, got %v", words)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	g := NewSeeded(1)
	if words := g.Generate(nil, 5, Options{}); words != nil {
		t.Fatalf("expected nil for empty pool, got %v", words)
	}
	if words := g.Generate([]string{"a"}, 0, Options{}); words != nil {
		t.Fatalf("expected nil for zero count, got %v", words)
	}
}

func TestGenerateDecorations(t *testing.T) {
	g := NewSeeded(7)
	words := g.Generate([]string{"word"}, 20, Options{CapsPct: 1, PunctPct: 1, PunctSet: []rune(DefaultPunctSet)})
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			t.Fatalf("expected capitalized word, got %q", w)
		}
		if !strings.ContainsRune(DefaultPunctSet, runes[len(runes)-1]) {
			t.Fatalf("expected trailing punctuation, got %q", w)
		}
	}
}
