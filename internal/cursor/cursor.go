// Package cursor maps a caret position to the active word.
package cursor

import (
	"unicode/utf8"

	"github.com/verte-zerg/keysprint/internal/ledger"
)

// WordSpan is the ledger range of one word. CharCount includes the trailing
// separator.
type WordSpan struct {
	Start     int
	CharCount int
}

// End returns the first position after the span.
func (w WordSpan) End() int {
	return w.Start + w.CharCount
}

// Location is the cursor state derived for one caret position.
type Location struct {
	Current   int
	Completed map[int]struct{}
}

// IsCompleted reports whether word i is fully correct.
func (l Location) IsCompleted(i int) bool {
	_, ok := l.Completed[i]
	return ok
}

// Spans lays out word spans in ledger order.
func Spans(words []string) []WordSpan {
	spans := make([]WordSpan, 0, len(words))
	start := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w) + 1
		spans = append(spans, WordSpan{Start: start, CharCount: n})
		start += n
	}
	return spans
}

// Locate finds the word containing caret and the set of fully correct words.
// A caret past every span selects the last word.
func Locate(caret int, spans []WordSpan, states []ledger.CharState) Location {
	loc := Location{Completed: map[int]struct{}{}}
	if len(spans) == 0 {
		return loc
	}
	loc.Current = len(spans) - 1
	for i, span := range spans {
		if caret >= span.Start && caret < span.End() {
			loc.Current = i
			break
		}
	}
	for i, span := range spans {
		if wordCorrect(span, states) {
			loc.Completed[i] = struct{}{}
		}
	}
	return loc
}

// The separator is excluded from completion.
func wordCorrect(span WordSpan, states []ledger.CharState) bool {
	last := span.End() - 1
	if last <= span.Start || last > len(states) {
		return false
	}
	for i := span.Start; i < last; i++ {
		if states[i] != ledger.Correct {
			return false
		}
	}
	return true
}
