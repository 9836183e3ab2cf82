// Package main provides the CLI entrypoint for keysprint.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/keysprint/internal/broadcast"
	"github.com/verte-zerg/keysprint/internal/config"
	"github.com/verte-zerg/keysprint/internal/generator"
	"github.com/verte-zerg/keysprint/internal/model"
	"github.com/verte-zerg/keysprint/internal/session"
	"github.com/verte-zerg/keysprint/internal/store"
	"github.com/verte-zerg/keysprint/internal/tui"
	"github.com/verte-zerg/keysprint/internal/wordlist"
	"github.com/verte-zerg/keysprint/internal/wordsource"
)

const logEnv = "KEYSPRINT_LOG"

type practiceOptions struct {
	mode     string
	time     string
	words    int
	lang     string
	source   string
	quoteURL string
	caps     float64
	punct    float64
	theme    string
	wordList string
	serve    string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &practiceOptions{}
	rootCmd := &cobra.Command{
		Use:           "keysprint",
		Short:         "Terminal typing speed test",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd, opts)
		},
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newThemesCmd())
	rootCmd.AddCommand(newWordlistCmd())
	rootCmd.AddCommand(newLangsCmd())
	return rootCmd
}

func (o *practiceOptions) bind(cmd *cobra.Command) {
	defaults := model.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVar(&o.mode, "mode", string(defaults.Mode), `test mode: "time" or "words"`)
	flags.StringVar(&o.time, "time", defaults.Duration.String(), "test length in time mode (30, 45s, 1m)")
	flags.IntVar(&o.words, "words", defaults.WordCount, "words per test in words mode")
	flags.StringVar(&o.lang, "lang", defaults.Lang, "word list language")
	flags.StringVar(&o.source, "source", string(defaults.Source), `text source: "words" or "quotes"`)
	flags.StringVar(&o.quoteURL, "quote-url", defaults.QuoteURL, "JSON quote endpoint for the quotes source")
	flags.Float64Var(&o.caps, "caps", defaults.CapsPct, "probability of capitalized first letter (0-1)")
	flags.Float64Var(&o.punct, "punct", defaults.PunctPct, "punctuation probability per word (0-1)")
	flags.StringVar(&o.theme, "theme", defaults.Theme, "color theme (see: keysprint themes)")
	flags.StringVar(&o.wordList, "wordlist", "", "custom word list file, one word per line")
	flags.StringVar(&o.serve, "serve", "", "stream live snapshots over websocket on ADDR (browser pages must be same-origin or on localhost)")
}

// resolve merges defaults, stored preferences, the config file and the
// flags set on cmd, in increasing priority.
func (o *practiceOptions) resolve(cmd *cobra.Command, prefs store.Prefs, file config.FileConfig) (model.Config, []string) {
	cfg := prefs.Apply(model.DefaultConfig())
	cfg, warnings := file.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = model.Mode(strings.TrimSpace(o.mode))
	}
	if flags.Changed("time") {
		d, err := model.ParseDuration(o.time)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("--time: %v", err))
			cfg.Duration = 0
		} else {
			cfg.Duration = d
		}
	}
	if flags.Changed("words") {
		cfg.WordCount = o.words
	}
	if flags.Changed("lang") {
		cfg.Lang = o.lang
	}
	if flags.Changed("source") {
		cfg.Source = model.Source(strings.TrimSpace(o.source))
	}
	if flags.Changed("quote-url") {
		cfg.QuoteURL = o.quoteURL
	}
	if flags.Changed("caps") {
		cfg.CapsPct = o.caps
	}
	if flags.Changed("punct") {
		cfg.PunctPct = o.punct
	}
	if flags.Changed("theme") {
		cfg.Theme = o.theme
	}

	cfg, normWarnings := cfg.Normalize()
	warnings = append(warnings, normWarnings...)
	if key, exact := tui.ResolveTheme(cfg.Theme); !exact {
		warnings = append(warnings, fmt.Sprintf("unknown theme %q, using %q", cfg.Theme, key))
		cfg.Theme = key
	}
	return cfg, warnings
}

func (o *practiceOptions) wordListPath(cmd *cobra.Command, file config.FileConfig) string {
	if cmd.Flags().Changed("wordlist") {
		return o.wordList
	}
	if file.Test.WordList != nil {
		return *file.Test.WordList
	}
	return ""
}

func (o *practiceOptions) serveAddr(cmd *cobra.Command, file config.FileConfig) string {
	if cmd.Flags().Changed("serve") {
		return o.serve
	}
	if file.Serve.Addr != nil {
		return *file.Serve.Addr
	}
	return ""
}

func runPractice(cmd *cobra.Command, opts *practiceOptions) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("keysprint needs an interactive terminal")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("preferences disabled: %v\n", err)
	}
	defer func() {
		if st == nil {
			return
		}
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	configPath := config.DefaultConfigPath()
	loadPrefs := func() store.Prefs {
		if st == nil {
			return store.Prefs{}
		}
		prefs, err := st.LoadPrefs(context.Background())
		if err != nil {
			log.Printf("failed to load preferences: %v", err)
		}
		return prefs
	}
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logErrf("ignoring config: %v\n", err)
	}
	cfg, warnings := opts.resolve(cmd, loadPrefs(), fileCfg)
	for _, w := range warnings {
		logErrf("warning: %s\n", w)
	}

	sources := newSources(opts.wordListPath(cmd, fileCfg))
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	words := sources(cfg).Fetch(ctx, cfg.TextWords())

	var (
		reportMu   sync.Mutex
		lastReport *session.Report
	)
	ctrl := session.New(cfg, words, session.WithFinishHandler(func(r session.Report) {
		reportMu.Lock()
		defer reportMu.Unlock()
		lastReport = &r
	}))

	if addr := opts.serveAddr(cmd, fileCfg); addr != "" {
		hub := broadcast.NewHub()
		bound, err := hub.Start(ctx, addr)
		if err != nil {
			return fmt.Errorf("failed to start snapshot feed: %w", err)
		}
		ctrl.AddRenderer(hub)
		logErrf("streaming snapshots on ws://%s/ws\n", bound)
	}

	restoreLog, err := redirectLog()
	if err != nil {
		return err
	}

	var prefs tui.PrefsSaver
	if st != nil {
		prefs = st
	}
	program := tea.NewProgram(tui.NewModel(ctrl, sources, prefs), tea.WithAltScreen())

	watcher, err := config.Watch(configPath, func(file config.FileConfig, err error) {
		if err != nil {
			log.Printf("ignoring config change: %v", err)
			return
		}
		next, warnings := opts.resolve(cmd, loadPrefs(), file)
		for _, w := range warnings {
			log.Printf("warning: %s", w)
		}
		program.Send(tui.ConfigMsg{Config: next})
	})
	if err != nil {
		log.Printf("config reload disabled: %v", err)
	}

	_, runErr := program.Run()
	if watcher != nil {
		if cerr := watcher.Close(); cerr != nil {
			log.Printf("failed to close watcher: %v", cerr)
		}
	}
	cancel()
	restoreLog()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}

	reportMu.Lock()
	defer reportMu.Unlock()
	if lastReport != nil {
		if _, err := io.WriteString(cmd.OutOrStdout(), tui.FormatReport(*lastReport)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// newSources returns a SourceFunc backed by a word pool for the configured
// language. wordListPath overrides the per-language list.
func newSources(wordListPath string) tui.SourceFunc {
	gen := generator.New()
	return func(cfg model.Config) wordsource.Source {
		pool := wordsource.NewPool(gen, loadWordList(wordListPath, cfg.Lang), generator.Options{
			CapsPct:  cfg.CapsPct,
			PunctPct: cfg.PunctPct,
			PunctSet: []rune(generator.DefaultPunctSet),
		})
		return wordsource.For(cfg, pool)
	}
}

// loadWordList returns the words of path, or of the user list for lang.
// A nil result selects the built-in pool.
func loadWordList(path, lang string) []string {
	explicit := path != ""
	if !explicit {
		path = config.DefaultWordListPath(lang)
	}
	words, err := wordlist.LoadWords(path, lang)
	if err == nil {
		return words
	}
	if explicit || !os.IsNotExist(err) {
		log.Printf("failed to load word list %s, using built-in words: %v", path, err)
	} else if lang != model.DefaultLang {
		log.Printf("no word list for %q at %s, using built-in words (download with: keysprint wordlist --lang %s)", lang, path, lang)
	}
	return nil
}

// redirectLog keeps log output off the alt screen. With KEYSPRINT_LOG set it
// goes to that file, otherwise it is buffered and written to stderr on
// restore.
func redirectLog() (func(), error) {
	if path := strings.TrimSpace(os.Getenv(logEnv)); path != "" {
		f, err := tea.LogToFile(path, "keysprint")
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return func() {
			log.SetOutput(os.Stderr)
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close log file: %v\n", cerr)
			}
		}, nil
	}
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return func() {
		log.SetOutput(os.Stderr)
		if buf.Len() > 0 {
			logErrf("%s", buf.String())
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes [query]",
		Short: "List color themes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runThemesCmd,
	}
}

func runThemesCmd(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	names := tui.MatchThemes(query)
	if len(names) == 0 {
		return fmt.Errorf("no theme matches %q", query)
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, tui.Themes[name].Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
