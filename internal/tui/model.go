// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keysprint/internal/metrics"
	"github.com/verte-zerg/keysprint/internal/model"
	"github.com/verte-zerg/keysprint/internal/session"
	"github.com/verte-zerg/keysprint/internal/wordsource"
)

const (
	tickInterval = 100 * time.Millisecond
	fetchTimeout = 5 * time.Second
)

// SourceFunc selects the word source for a configuration.
type SourceFunc func(model.Config) wordsource.Source

// PrefsSaver persists settings changed from the typing screen.
type PrefsSaver interface {
	SavePrefs(ctx context.Context, cfg model.Config) error
}

// ConfigMsg delivers a reloaded configuration to a running program.
type ConfigMsg struct {
	Config model.Config
}

type tickMsg struct {
	gen uint64
}

type wordsMsg struct {
	seq   uint64
	words []string
}

// Model implements the Bubble Tea typing UI on top of a session controller.
type Model struct {
	ctrl    *session.Controller
	sources SourceFunc
	prefs   PrefsSaver

	cfg    model.Config
	theme  string
	styles styles
	keys   keyMap
	help   help.Model

	width  int
	height int

	snap     session.Snapshot
	fetchSeq uint64
	loading  bool
}

// NewModel constructs a typing TUI model. prefs may be nil.
func NewModel(ctrl *session.Controller, sources SourceFunc, prefs PrefsSaver) *Model {
	m := &Model{
		ctrl:    ctrl,
		sources: sources,
		prefs:   prefs,
		cfg:     ctrl.Config(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		snap:    ctrl.Snapshot(),
	}
	m.setTheme(m.cfg.Theme)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tickMsg:
		if msg.gen != m.ctrl.Generation() {
			return m, nil
		}
		m.snap = m.ctrl.Tick()
		if m.snap.State == session.Running {
			return m, tick(msg.gen)
		}
		return m, nil
	case wordsMsg:
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		m.loading = false
		m.snap = m.ctrl.NewText(msg.words)
		return m, nil
	case ConfigMsg:
		return m, m.applyConfig(msg.Config, false)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NewText):
		m.snap = m.ctrl.Reset()
		return m.requestText()
	case key.Matches(msg, m.keys.Retry):
		m.snap = m.ctrl.Reset()
		return nil
	case key.Matches(msg, m.keys.Duration):
		cfg := m.cfg
		cfg.Mode = model.ModeTime
		cfg.Duration = nextDuration(m.cfg)
		return m.applyConfig(cfg, true)
	case key.Matches(msg, m.keys.WordCount):
		cfg := m.cfg
		cfg.Mode = model.ModeWords
		cfg.WordCount = nextWordCount(m.cfg)
		return m.applyConfig(cfg, true)
	case key.Matches(msg, m.keys.Theme):
		cfg := m.cfg
		cfg.Theme = NextTheme(m.theme)
		return m.applyConfig(cfg, true)
	}

	if m.loading || m.snap.State == session.Finished {
		return nil
	}
	typed := []rune(m.ctrl.Typed())
	switch {
	case key.Matches(msg, m.keys.DeleteWord):
		return m.input(deleteLastWord(typed))
	case key.Matches(msg, m.keys.Backspace):
		if len(typed) == 0 {
			return nil
		}
		return m.input(typed[:len(typed)-1])
	}
	switch msg.Type {
	case tea.KeySpace:
		return m.input(append(typed, ' '))
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		return m.input(append(typed, printable(msg.Runes)...))
	default:
		return nil
	}
}

// input sends the new buffer to the controller and arms the tick loop when
// the session just started.
func (m *Model) input(typed []rune) tea.Cmd {
	wasRunning := m.snap.State == session.Running
	m.snap = m.ctrl.Input(string(typed))
	if !wasRunning && m.snap.State == session.Running {
		return tick(m.ctrl.Generation())
	}
	return nil
}

func (m *Model) applyConfig(cfg model.Config, persist bool) tea.Cmd {
	change := m.ctrl.Configure(cfg)
	m.cfg = cfg
	m.setTheme(cfg.Theme)
	m.snap = m.ctrl.Snapshot()
	if persist && m.prefs != nil {
		if err := m.prefs.SavePrefs(context.Background(), cfg); err != nil {
			log.Printf("failed to save preferences: %v", err)
		}
	}
	if change == session.ChangeNewText {
		return m.requestText()
	}
	return nil
}

// requestText fetches a new word sequence off the update loop. Only the
// latest request is applied.
func (m *Model) requestText() tea.Cmd {
	m.fetchSeq++
	seq := m.fetchSeq
	cfg := m.cfg
	if m.sources == nil {
		return nil
	}
	src := m.sources(cfg)
	m.loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return wordsMsg{seq: seq, words: src.Fetch(ctx, cfg.TextWords())}
	}
}

func (m *Model) setTheme(name string) {
	resolved, _ := ResolveTheme(name)
	m.theme = resolved
	m.styles = newStyles(Themes[resolved])
}

func tick(gen uint64) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch {
	case m.loading:
		content = m.styles.label.Render("fetching text…")
	case m.snap.State == session.Finished && m.snap.Report != nil:
		content = m.renderReport(*m.snap.Report)
	default:
		content = m.renderText()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	helpLine := m.help.View(m.keys)
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpRow := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, helpLine)
	return body + "\n" + footerLine + "\n" + helpRow
}

func (m *Model) renderText() string {
	if len(m.snap.Words) == 0 {
		return m.styles.label.Render("no words to type")
	}
	runes := buildStyledRunes(m.snap, m.styles)
	timer := m.styles.accent.Render(m.snap.TimerText)
	if m.width == 0 {
		return timer + "\n" + renderStyledRunes(runes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(runes, contentWidth)
	text := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	header := lipgloss.NewStyle().Width(contentWidth).Render(timer)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", text)
}

func (m *Model) renderFooter() string {
	mt := m.snap.Metrics
	segments := []string{
		modeLabel(m.cfg),
		fmt.Sprintf("%d wpm", mt.WPM),
		fmt.Sprintf("%d%% acc", mt.Accuracy),
		fmt.Sprintf("%d err", mt.Mistakes),
		fmt.Sprintf("%d%%", mt.ProgressPct),
	}
	return m.styles.label.Render(strings.Join(segments, " · "))
}

func (m *Model) renderReport(r session.Report) string {
	row := func(label, value string) string {
		return m.styles.label.Render(fmt.Sprintf("%-10s", label)) + m.styles.value.Render(value)
	}
	lines := []string{
		m.styles.accent.Render(fmt.Sprintf("%d wpm", r.WPM)),
		"",
		row("accuracy", fmt.Sprintf("%d%%", r.Accuracy)),
		row("keys", fmt.Sprintf("%d", r.Keystrokes)),
		row("correct", fmt.Sprintf("%d", r.CorrectChars)),
		row("mistakes", fmt.Sprintf("%d", r.Mistakes)),
		row("time", formatElapsed(r.Elapsed)),
	}
	if spark := metrics.Sparkline(r.Samples); spark != "" {
		lines = append(lines, "", m.styles.current.Render(spark))
	}
	lines = append(lines, "", m.styles.label.Render("tab new text · ctrl+r retry"))
	return m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func modeLabel(cfg model.Config) string {
	if cfg.Mode == model.ModeWords {
		return fmt.Sprintf("words %d", cfg.WordCount)
	}
	return fmt.Sprintf("time %ds", int(cfg.Duration.Seconds()))
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func nextDuration(cfg model.Config) time.Duration {
	presets := model.DurationPresets
	if cfg.Mode != model.ModeTime {
		return cfg.Duration
	}
	for i, d := range presets {
		if d == cfg.Duration {
			return presets[(i+1)%len(presets)]
		}
	}
	return presets[0]
}

func nextWordCount(cfg model.Config) int {
	presets := model.WordCountPresets
	if cfg.Mode != model.ModeWords {
		return cfg.WordCount
	}
	for i, n := range presets {
		if n == cfg.WordCount {
			return presets[(i+1)%len(presets)]
		}
	}
	return presets[0]
}

// deleteLastWord drops the word before the caret along with any separators
// typed after it.
func deleteLastWord(typed []rune) []rune {
	end := len(typed)
	for end > 0 && typed[end-1] == ' ' {
		end--
	}
	for end > 0 && typed[end-1] != ' ' {
		end--
	}
	return typed[:end]
}

func printable(runes []rune) []rune {
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			out = append(out, ' ')
		case r < ' ':
		default:
			out = append(out, r)
		}
	}
	return out
}
