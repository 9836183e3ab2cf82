// Package ledger flattens session words into the expected character sequence
// and compares typed input against it.
package ledger

import "fmt"

// Separator is the comparison value of the character that follows each word.
const Separator = ' '

// SeparatorDisplay is how a separator is drawn.
const SeparatorDisplay = '\u00a0'

// CharState is the derived state of one ledger position.
type CharState int

const (
	// Unset means the position has not been typed yet.
	Unset CharState = iota
	// Correct means the typed rune matches the expected one.
	Correct
	// Incorrect means the typed rune differs from the expected one.
	Incorrect
)

func (s CharState) String() string {
	switch s {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unset"
	}
}

// MarshalText encodes the state by name.
func (s CharState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *CharState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unset":
		*s = Unset
	case "correct":
		*s = Correct
	case "incorrect":
		*s = Incorrect
	default:
		return fmt.Errorf("unknown char state %q", text)
	}
	return nil
}

// ExpectedChar is one position of the ledger.
type ExpectedChar struct {
	Rune      rune
	Display   rune
	Separator bool
	Word      int
}

// Ledger is the immutable character sequence of one session text.
type Ledger struct {
	words []string
	chars []ExpectedChar
}

// Build creates a ledger with one entry per code point of each word followed
// by one separator entry.
func Build(words []string) Ledger {
	size := 0
	for _, w := range words {
		size += len([]rune(w)) + 1
	}
	chars := make([]ExpectedChar, 0, size)
	for i, w := range words {
		for _, r := range w {
			chars = append(chars, ExpectedChar{Rune: r, Display: r, Word: i})
		}
		chars = append(chars, ExpectedChar{Rune: Separator, Display: SeparatorDisplay, Separator: true, Word: i})
	}
	return Ledger{words: append([]string(nil), words...), chars: chars}
}

// Len returns the number of expected characters.
func (l Ledger) Len() int {
	return len(l.chars)
}

// At returns the expected character at position i.
func (l Ledger) At(i int) ExpectedChar {
	return l.chars[i]
}

// Words returns a copy of the words the ledger was built from.
func (l Ledger) Words() []string {
	return append([]string(nil), l.words...)
}

// Compare derives the state of every position from the typed runes. Typed
// runes past the end of the ledger are ignored.
func (l Ledger) Compare(typed []rune) []CharState {
	states := make([]CharState, len(l.chars))
	n := len(typed)
	if n > len(l.chars) {
		n = len(l.chars)
	}
	for i := 0; i < n; i++ {
		if typed[i] == l.chars[i].Rune {
			states[i] = Correct
		} else {
			states[i] = Incorrect
		}
	}
	return states
}

// Clamp truncates typed so it never exceeds the ledger length.
func (l Ledger) Clamp(typed []rune) []rune {
	if len(typed) > len(l.chars) {
		return typed[:len(l.chars)]
	}
	return typed
}

// Count tallies correct and incorrect positions.
func Count(states []CharState) (correct, incorrect int) {
	for _, s := range states {
		switch s {
		case Correct:
			correct++
		case Incorrect:
			incorrect++
		}
	}
	return correct, incorrect
}
