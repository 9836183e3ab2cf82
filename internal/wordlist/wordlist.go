// Package wordlist loads word pools.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed english.txt
var embeddedEnglish string

// Default returns the built-in English pool.
func Default() []string {
	words, err := Parse(strings.NewReader(embeddedEnglish), FilterForLang("en"))
	if err != nil {
		return []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog"}
	}
	return words
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path, lang string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return Parse(file, FilterForLang(lang))
}

// Parse reads whitespace-separated words, keeping those accepted by filter.
// Duplicates are dropped, first occurrence wins.
func Parse(r io.Reader, filter FilterFunc) ([]string, error) {
	var words []string
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			if filter != nil && !filter(word) {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
