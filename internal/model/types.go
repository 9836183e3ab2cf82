// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Mode selects how a test is boxed.
type Mode string

const (
	// ModeTime ends the test when the clock runs out.
	ModeTime Mode = "time"
	// ModeWords ends the test when every character has been typed.
	ModeWords Mode = "words"
)

// Source selects where session text comes from.
type Source string

const (
	// SourceWords samples words from the local pool.
	SourceWords Source = "words"
	// SourceQuotes fetches a quote and falls back to the pool.
	SourceQuotes Source = "quotes"
)

// Defaults used when a value is missing or degenerate.
const (
	DefaultMode      = ModeTime
	DefaultDuration  = 30 * time.Second
	DefaultWordCount = 25
	DefaultLang      = "en"
	DefaultSource    = SourceWords
	DefaultTheme     = "default"
	DefaultQuoteURL  = "https://api.quotable.io/random"
)

// Preset cycles offered in the typing screen.
var (
	DurationPresets  = []time.Duration{15 * time.Second, 30 * time.Second, 60 * time.Second, 120 * time.Second}
	WordCountPresets = []int{10, 25, 50, 100}
)

// Config defines test settings.
type Config struct {
	Mode      Mode
	Duration  time.Duration
	WordCount int
	Lang      string
	Source    Source
	QuoteURL  string
	CapsPct   float64
	PunctPct  float64
	Theme     string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Mode:      DefaultMode,
		Duration:  DefaultDuration,
		WordCount: DefaultWordCount,
		Lang:      DefaultLang,
		Source:    DefaultSource,
		QuoteURL:  DefaultQuoteURL,
		Theme:     DefaultTheme,
	}
}

// Normalize replaces degenerate values with defaults. The returned warnings
// describe each replacement; none of them is fatal.
func (c Config) Normalize() (Config, []string) {
	var warnings []string
	switch Mode(strings.ToLower(string(c.Mode))) {
	case ModeTime, "":
		c.Mode = ModeTime
	case ModeWords:
		c.Mode = ModeWords
	default:
		warnings = append(warnings, fmt.Sprintf("unknown mode %q, using %q", c.Mode, DefaultMode))
		c.Mode = DefaultMode
	}
	if c.Duration <= 0 {
		warnings = append(warnings, fmt.Sprintf("invalid duration %s, using %s", c.Duration, DefaultDuration))
		c.Duration = DefaultDuration
	}
	if c.WordCount <= 0 {
		warnings = append(warnings, fmt.Sprintf("invalid word count %d, using %d", c.WordCount, DefaultWordCount))
		c.WordCount = DefaultWordCount
	}
	if strings.TrimSpace(c.Lang) == "" {
		c.Lang = DefaultLang
	}
	switch Source(strings.ToLower(string(c.Source))) {
	case SourceWords, "":
		c.Source = SourceWords
	case SourceQuotes:
		c.Source = SourceQuotes
	default:
		warnings = append(warnings, fmt.Sprintf("unknown source %q, using %q", c.Source, DefaultSource))
		c.Source = DefaultSource
	}
	if strings.TrimSpace(c.QuoteURL) == "" {
		c.QuoteURL = DefaultQuoteURL
	}
	if c.CapsPct < 0 || c.CapsPct > 1 {
		warnings = append(warnings, fmt.Sprintf("caps must be between 0 and 1, got %.2f", c.CapsPct))
		c.CapsPct = 0
	}
	if c.PunctPct < 0 || c.PunctPct > 1 {
		warnings = append(warnings, fmt.Sprintf("punct must be between 0 and 1, got %.2f", c.PunctPct))
		c.PunctPct = 0
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = DefaultTheme
	}
	return c, warnings
}

// TextWords returns how many words a session needs. Time mode sizes the text
// so a 240 WPM typist cannot exhaust it before the clock does.
func (c Config) TextWords() int {
	if c.Mode == ModeWords {
		return c.WordCount
	}
	n := int(math.Ceil(c.Duration.Seconds() * 4))
	if n < DefaultWordCount {
		n = DefaultWordCount
	}
	return n
}

// ParseDuration accepts plain seconds ("30") or a Go duration ("45s", "1m").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("duration must be > 0")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be > 0")
	}
	return d, nil
}
