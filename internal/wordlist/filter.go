package wordlist

import (
	"strings"
	"unicode"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns the word filter for a language. English pools keep
// lowercase ASCII words only; other languages keep any run of letters.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en", "":
		return lowerASCII
	default:
		return lettersOnly
	}
}

func lowerASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

func lettersOnly(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
