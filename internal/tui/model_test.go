package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keysprint/internal/model"
	"github.com/verte-zerg/keysprint/internal/session"
	"github.com/verte-zerg/keysprint/internal/wordsource"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedSource struct {
	words []string
}

func (s fixedSource) Fetch(_ context.Context, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.words[i%len(s.words)])
	}
	return out
}

type prefsRecorder struct {
	saved []model.Config
}

func (p *prefsRecorder) SavePrefs(_ context.Context, cfg model.Config) error {
	p.saved = append(p.saved, cfg)
	return nil
}

func newTestModel(t *testing.T, cfg model.Config, words []string) (*Model, *testClock, *prefsRecorder) {
	t.Helper()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	ctrl := session.New(cfg, words, session.WithClock(clock))
	prefs := &prefsRecorder{}
	sources := func(model.Config) wordsource.Source {
		return fixedSource{words: []string{"new", "text"}}
	}
	return NewModel(ctrl, sources, prefs), clock, prefs
}

func wordsCfg(n int) model.Config {
	cfg := model.DefaultConfig()
	cfg.Mode = model.ModeWords
	cfg.WordCount = n
	return cfg
}

func typeText(m *Model, text string) tea.Cmd {
	var last tea.Cmd
	for _, r := range text {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		_, cmd := m.Update(msg)
		if cmd != nil {
			last = cmd
		}
	}
	return last
}

func TestFirstKeyArmsTick(t *testing.T) {
	m, _, _ := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd == nil {
		t.Fatalf("expected tick command after first key")
	}
	if m.snap.State != session.Running {
		t.Fatalf("expected running, got %s", m.snap.State)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if cmd != nil {
		t.Fatalf("expected no second tick loop")
	}
}

func TestWordsModeFinishShowsReport(t *testing.T) {
	m, clock, _ := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	typeText(m, "c")
	clock.Advance(6 * time.Second)
	typeText(m, "at dog ")
	if m.snap.State != session.Finished || m.snap.Report == nil {
		t.Fatalf("expected finished session with report")
	}
	if m.snap.Report.WPM != 16 {
		t.Fatalf("expected 16 wpm, got %d", m.snap.Report.WPM)
	}
	if view := m.View(); !strings.Contains(view, "16 wpm") {
		t.Fatalf("expected report in view, got %q", view)
	}

	typeText(m, "x")
	if m.ctrl.Typed() != "cat dog " {
		t.Fatalf("expected input ignored after finish, got %q", m.ctrl.Typed())
	}
}

func TestTimeModeTickFinishes(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Duration = 15 * time.Second
	m, clock, _ := newTestModel(t, cfg, []string{"cat", "dog"})
	typeText(m, "c")
	gen := m.ctrl.Generation()

	clock.Advance(time.Second)
	_, cmd := m.Update(tickMsg{gen: gen})
	if cmd == nil {
		t.Fatalf("expected tick to re-arm while running")
	}
	clock.Advance(15 * time.Second)
	_, cmd = m.Update(tickMsg{gen: gen})
	if cmd != nil {
		t.Fatalf("expected tick loop to stop after finish")
	}
	if m.snap.State != session.Finished {
		t.Fatalf("expected finished, got %s", m.snap.State)
	}
}

func TestStaleTickDropped(t *testing.T) {
	cfg := model.DefaultConfig()
	m, _, _ := newTestModel(t, cfg, []string{"cat", "dog"})
	typeText(m, "c")
	stale := m.ctrl.Generation()
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.snap.State != session.Idle {
		t.Fatalf("expected retry to return to idle")
	}
	if _, cmd := m.Update(tickMsg{gen: stale}); cmd != nil {
		t.Fatalf("expected stale tick to be dropped")
	}
}

func TestBackspaceAndDeleteWord(t *testing.T) {
	m, _, _ := newTestModel(t, wordsCfg(3), []string{"one", "two", "six"})
	typeText(m, "one tw")
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.ctrl.Typed(); got != "one t" {
		t.Fatalf("expected backspace to drop one rune, got %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace, Alt: true})
	if got := m.ctrl.Typed(); got != "one " {
		t.Fatalf("expected word delete, got %q", got)
	}
}

func TestNewTextFetchesWords(t *testing.T) {
	m, _, _ := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cmd == nil || !m.loading {
		t.Fatalf("expected fetch command")
	}
	msg := cmd()
	m.Update(msg)
	if m.loading {
		t.Fatalf("expected loading to clear")
	}
	if got := strings.Join(m.snap.Words, " "); got != "new text" {
		t.Fatalf("expected new words, got %q", got)
	}
}

func TestStaleWordsDropped(t *testing.T) {
	m, _, _ := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	_, first := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, second := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	stale := first()
	m.Update(stale)
	if !m.loading {
		t.Fatalf("expected stale words to be ignored")
	}
	m.Update(second())
	if m.loading {
		t.Fatalf("expected latest words to apply")
	}
}

func TestCycleWordCountSavesPrefs(t *testing.T) {
	m, _, prefs := newTestModel(t, model.DefaultConfig(), []string{"cat", "dog"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.cfg.Mode != model.ModeWords || m.cfg.WordCount != model.DefaultWordCount {
		t.Fatalf("expected switch to words mode, got %+v", m.cfg)
	}
	if cmd == nil {
		t.Fatalf("expected mode switch to fetch new text")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.cfg.WordCount != 50 {
		t.Fatalf("expected next preset 50, got %d", m.cfg.WordCount)
	}
	if len(prefs.saved) != 2 {
		t.Fatalf("expected two saved prefs, got %d", len(prefs.saved))
	}
}

func TestCycleDurationWhileIdleResets(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = "w"
	}
	m, _, _ := newTestModel(t, model.DefaultConfig(), words)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.cfg.Duration != 60*time.Second {
		t.Fatalf("expected 60s, got %s", m.cfg.Duration)
	}
	if cmd != nil {
		t.Fatalf("expected same-text reset without fetch")
	}
	if m.snap.TimerText != "60" {
		t.Fatalf("expected timer 60, got %q", m.snap.TimerText)
	}
}

func TestCycleTheme(t *testing.T) {
	m, _, prefs := newTestModel(t, model.DefaultConfig(), []string{"cat"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd != nil {
		t.Fatalf("expected theme change to need no text")
	}
	if m.theme != NextTheme(model.DefaultTheme) {
		t.Fatalf("unexpected theme %q", m.theme)
	}
	if len(prefs.saved) != 1 || prefs.saved[0].Theme != m.theme {
		t.Fatalf("expected theme saved, got %+v", prefs.saved)
	}
}

func TestConfigMsgNotPersisted(t *testing.T) {
	m, _, prefs := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	cmd := m.applyConfig(wordsCfg(10), false)
	if cmd == nil {
		t.Fatalf("expected word count change to fetch text")
	}
	_, cmd = m.Update(ConfigMsg{Config: wordsCfg(10)})
	if cmd != nil {
		t.Fatalf("expected unchanged config to be a no-op")
	}
	if len(prefs.saved) != 0 {
		t.Fatalf("expected file changes not to be saved")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, model.DefaultConfig(), []string{"cat"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestDeleteLastWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "cat", want: ""},
		{in: "cat do", want: "cat "},
		{in: "cat dog ", want: "cat "},
		{in: "cat   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := string(deleteLastWord([]rune(tt.in))); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNextPresets(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Duration = 120 * time.Second
	if got := nextDuration(cfg); got != 15*time.Second {
		t.Fatalf("expected wrap to 15s, got %s", got)
	}
	cfg.Mode = model.ModeWords
	if got := nextDuration(cfg); got != cfg.Duration {
		t.Fatalf("expected first press to keep duration, got %s", got)
	}
	cfg.WordCount = 7
	if got := nextWordCount(cfg); got != 10 {
		t.Fatalf("expected unknown count to restart at 10, got %d", got)
	}
}

func TestWindowSizeView(t *testing.T) {
	m, _, _ := newTestModel(t, wordsCfg(2), []string{"cat", "dog"})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	view := m.View()
	if !strings.Contains(view, "words 2") {
		t.Fatalf("expected footer in view, got %q", view)
	}
	if !strings.Contains(view, "0/2") {
		t.Fatalf("expected word progress timer, got %q", view)
	}
}
