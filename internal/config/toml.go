package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keysprint/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Test  TestConfig  `toml:"test"`
	Serve ServeConfig `toml:"serve"`
}

// TestConfig maps test-related settings. Nil fields are unset.
type TestConfig struct {
	Mode     *string  `toml:"mode"`
	Time     *string  `toml:"time"`
	Words    *int     `toml:"words"`
	Lang     *string  `toml:"lang"`
	Source   *string  `toml:"source"`
	QuoteURL *string  `toml:"quote-url"`
	CapsPct  *float64 `toml:"caps"`
	PunctPct *float64 `toml:"punct"`
	Theme    *string  `toml:"theme"`
	WordList *string  `toml:"wordlist"`
}

// ServeConfig maps the snapshot feed settings.
type ServeConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the values set in the file onto cfg. An unparseable
// duration is reported and leaves the previous value in place.
func (f FileConfig) Apply(cfg model.Config) (model.Config, []string) {
	var warnings []string
	t := f.Test
	if t.Mode != nil {
		cfg.Mode = model.Mode(strings.TrimSpace(*t.Mode))
	}
	if t.Time != nil {
		d, err := model.ParseDuration(*t.Time)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("config time: %v", err))
		} else {
			cfg.Duration = d
		}
	}
	if t.Words != nil {
		cfg.WordCount = *t.Words
	}
	if t.Lang != nil {
		cfg.Lang = *t.Lang
	}
	if t.Source != nil {
		cfg.Source = model.Source(strings.TrimSpace(*t.Source))
	}
	if t.QuoteURL != nil {
		cfg.QuoteURL = *t.QuoteURL
	}
	if t.CapsPct != nil {
		cfg.CapsPct = *t.CapsPct
	}
	if t.PunctPct != nil {
		cfg.PunctPct = *t.PunctPct
	}
	if t.Theme != nil {
		cfg.Theme = *t.Theme
	}
	return cfg, warnings
}

// DefaultTemplate is written by the config command.
func DefaultTemplate() string {
	return fmt.Sprintf(`# keysprint configuration
# Uncomment a value to enable it. CLI flags override config values.
# Edits are picked up while a test is open.

[test]
# mode = %q          # "time" or "words"
# time = "%ds"           # Test length in time mode (30, 45s, 1m)
# words = %d            # Words per test in words mode
# lang = %q            # Word list language
# source = %q       # "words" or "quotes"
# quote-url = %q
# caps = 0.0            # Probability of capitalized first letter (0-1)
# punct = 0.0           # Punctuation probability per word (0-1)
# theme = %q      # See: keysprint themes
# wordlist = ""         # Custom word list file, one word per line

[serve]
# addr = "127.0.0.1:8421"  # Stream live snapshots over websocket
`,
		model.DefaultMode,
		int(model.DefaultDuration.Seconds()),
		model.DefaultWordCount,
		model.DefaultLang,
		model.DefaultSource,
		model.DefaultQuoteURL,
		model.DefaultTheme,
	)
}
