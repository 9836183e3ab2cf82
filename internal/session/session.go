// Package session implements the typing session state machine.
package session

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/keysprint/internal/cursor"
	"github.com/verte-zerg/keysprint/internal/ledger"
	"github.com/verte-zerg/keysprint/internal/metrics"
	"github.com/verte-zerg/keysprint/internal/model"
)

// State is the lifecycle state of a session.
type State int

const (
	// Idle waits for the first keystroke.
	Idle State = iota
	// Running is timing and accepting input.
	Running
	// Finished holds the final report until reset.
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "running":
		*s = Running
	case "finished":
		*s = Finished
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// Clock is the only time source a controller consults.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, including its monotonic reading.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Renderer receives every snapshot the controller produces.
type Renderer interface {
	Display(Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot)

// Display implements Renderer.
func (f RendererFunc) Display(s Snapshot) {
	f(s)
}

// Snapshot is the display state after one update.
type Snapshot struct {
	SessionID   string             `json:"sessionId,omitempty"`
	State       State              `json:"state"`
	Mode        model.Mode         `json:"mode"`
	Words       []string           `json:"words"`
	Typed       string             `json:"typed"`
	States      []ledger.CharState `json:"states"`
	CurrentWord int                `json:"currentWord"`
	Completed   []int              `json:"completedWords"`
	Metrics     metrics.Snapshot   `json:"metrics"`
	TimerText   string             `json:"timer"`
	Report      *Report            `json:"report,omitempty"`

	// Text is the ledger the states index into. It is shared with the
	// controller and must not be modified.
	Text ledger.Ledger `json:"-"`

	seq uint64
}

// IsCompleted reports whether word i is fully correct.
func (s Snapshot) IsCompleted(i int) bool {
	idx := sort.SearchInts(s.Completed, i)
	return idx < len(s.Completed) && s.Completed[idx] == i
}

// Report is produced once when a session finishes.
type Report struct {
	ID           string        `json:"id"`
	Mode         model.Mode    `json:"mode"`
	Duration     time.Duration `json:"durationNs"`
	WordCount    int           `json:"wordCount"`
	WPM          int           `json:"wpm"`
	Accuracy     int           `json:"accuracy"`
	Keystrokes   int           `json:"keystrokes"`
	CorrectChars int           `json:"correctChars"`
	Mistakes     int           `json:"mistakes"`
	Elapsed      time.Duration `json:"elapsedNs"`
	StartedAt    time.Time     `json:"startedAt"`
	EndedAt      time.Time     `json:"endedAt"`
	Samples      []int         `json:"samples"`
}

// ConfigChange tells the caller what a configuration change requires.
type ConfigChange int

const (
	// ChangeNone needs nothing.
	ChangeNone ConfigChange = iota
	// ChangeReset was handled with a same-text reset.
	ChangeReset
	// ChangeNewText needs a new word sequence passed to NewText.
	ChangeNewText
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithRenderer adds a renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Controller) {
		c.renderers = append(c.renderers, r)
	}
}

// WithFinishHandler registers a callback invoked once per finished session.
func WithFinishHandler(fn func(Report)) Option {
	return func(c *Controller) {
		c.onFinish = fn
	}
}

// Controller owns one session: its text, the typed buffer and timing state.
// All methods are safe to call from multiple goroutines; calls are serialized
// and renderers never see a snapshot older than one already delivered.
type Controller struct {
	mu        sync.Mutex
	emitMu    sync.Mutex
	delivered uint64
	seq       uint64
	clock     Clock
	renderers []Renderer
	onFinish  func(Report)

	cfg    model.Config
	ledger ledger.Ledger
	spans  []cursor.WordSpan
	typed  []rune

	state      State
	started    bool
	sessionID  string
	startTime  time.Time
	endTime    time.Time
	generation uint64

	samples []int
	report  *Report
	last    Snapshot
}

// New creates an idle controller for words.
func New(cfg model.Config, words []string, opts ...Option) *Controller {
	c := &Controller{
		clock: SystemClock{},
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setText(words)
	c.resetLocked()
	c.last = c.snapshotLocked(c.clock.Now())
	return c
}

// AddRenderer registers a renderer after construction.
func (c *Controller) AddRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = append(c.renderers, r)
}

// Input replaces the typed buffer. Overflow past the ledger is dropped. The
// first non-empty input starts the clock.
func (c *Controller) Input(typed string) Snapshot {
	c.mu.Lock()
	if c.state == Finished {
		snap := c.last
		c.mu.Unlock()
		return snap
	}
	now := c.clock.Now()
	var report *Report
	if c.started && c.cfg.Mode == model.ModeTime && !now.Before(c.endTime) {
		report = c.finishLocked(now)
	} else {
		c.typed = append([]rune(nil), c.ledger.Clamp([]rune(typed))...)
		if !c.started && len(c.typed) > 0 {
			c.startLocked(now)
		}
		if c.started && c.cfg.Mode == model.ModeWords && len(c.typed) >= c.ledger.Len() {
			report = c.finishLocked(now)
		}
	}
	snap := c.commitLocked(now)
	c.mu.Unlock()
	c.emit(snap, report)
	return snap
}

// Tick advances a running session. It is a no-op unless the clock started.
func (c *Controller) Tick() Snapshot {
	c.mu.Lock()
	if !c.started {
		snap := c.last
		c.mu.Unlock()
		return snap
	}
	now := c.clock.Now()
	c.sampleLocked(now)
	var report *Report
	if c.cfg.Mode == model.ModeTime && !now.Before(c.endTime) {
		report = c.finishLocked(now)
	}
	snap := c.commitLocked(now)
	c.mu.Unlock()
	c.emit(snap, report)
	return snap
}

// Finish ends a running session early. It returns false when the session
// never started.
func (c *Controller) Finish() (Report, bool) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return Report{}, false
	}
	now := c.clock.Now()
	report := c.finishLocked(now)
	snap := c.commitLocked(now)
	c.mu.Unlock()
	c.emit(snap, report)
	return *report, true
}

// Reset returns to Idle with the same text.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	c.resetLocked()
	snap := c.commitLocked(c.clock.Now())
	c.mu.Unlock()
	c.emit(snap, nil)
	return snap
}

// NewText rebuilds the ledger from words and returns to Idle.
func (c *Controller) NewText(words []string) Snapshot {
	c.mu.Lock()
	c.setText(words)
	c.resetLocked()
	snap := c.commitLocked(c.clock.Now())
	c.mu.Unlock()
	c.emit(snap, nil)
	return snap
}

// Configure applies cfg. A duration-only change while idle resets the same
// text; any change that affects the text resets and asks for new words.
func (c *Controller) Configure(cfg model.Config) ConfigChange {
	c.mu.Lock()
	prev := c.cfg
	c.cfg = cfg
	change := classifyChange(prev, cfg, c.state, len(c.ledger.Words()))
	if change == ChangeNone {
		c.mu.Unlock()
		return change
	}
	c.resetLocked()
	snap := c.commitLocked(c.clock.Now())
	c.mu.Unlock()
	c.emit(snap, nil)
	return change
}

func classifyChange(prev, next model.Config, state State, words int) ConfigChange {
	textChanged := prev.Mode != next.Mode ||
		prev.Source != next.Source ||
		prev.Lang != next.Lang ||
		prev.CapsPct != next.CapsPct ||
		prev.PunctPct != next.PunctPct ||
		prev.QuoteURL != next.QuoteURL ||
		(next.Mode == model.ModeWords && prev.WordCount != next.WordCount)
	if textChanged {
		return ChangeNewText
	}
	if prev.Duration == next.Duration {
		return ChangeNone
	}
	if next.Mode == model.ModeTime && (state != Idle || next.TextWords() > words) {
		return ChangeNewText
	}
	return ChangeReset
}

// Config returns the active configuration.
func (c *Controller) Config() model.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Snapshot returns the latest display state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Started reports whether the clock is running.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Report returns the report of a finished session.
func (c *Controller) Report() (Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return Report{}, false
	}
	return *c.report, true
}

// Typed returns the current typed buffer.
func (c *Controller) Typed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.typed)
}

// Len returns the ledger length.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Len()
}

// Generation changes on every reset. Scheduled ticks carry the generation
// they were armed under and must be dropped when it no longer matches.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Controller) setText(words []string) {
	c.ledger = ledger.Build(words)
	c.spans = cursor.Spans(words)
}

func (c *Controller) resetLocked() {
	c.typed = nil
	c.state = Idle
	c.started = false
	c.sessionID = ""
	c.startTime = time.Time{}
	c.endTime = time.Time{}
	c.samples = nil
	c.report = nil
	c.generation++
}

func (c *Controller) startLocked(now time.Time) {
	c.state = Running
	c.started = true
	c.sessionID = uuid.NewString()
	c.startTime = now
	if c.cfg.Mode == model.ModeTime {
		c.endTime = now.Add(c.cfg.Duration)
	}
}

func (c *Controller) finishLocked(now time.Time) *Report {
	elapsed := c.elapsedLocked(now)
	m := c.metricsLocked(c.ledger.Compare(c.typed), elapsed)
	report := &Report{
		ID:           c.sessionID,
		Mode:         c.cfg.Mode,
		Duration:     c.cfg.Duration,
		WordCount:    len(c.spans),
		WPM:          m.WPM,
		Accuracy:     m.Accuracy,
		Keystrokes:   len(c.typed),
		CorrectChars: m.CorrectChars,
		Mistakes:     m.Mistakes,
		Elapsed:      elapsed,
		StartedAt:    c.startTime,
		EndedAt:      now,
		Samples:      append([]int(nil), c.samples...),
	}
	c.report = report
	c.state = Finished
	c.started = false
	c.startTime = time.Time{}
	c.endTime = time.Time{}
	return report
}

// sampleLocked records one WPM value for each whole second elapsed.
func (c *Controller) sampleLocked(now time.Time) {
	elapsed := c.elapsedLocked(now)
	whole := int(elapsed / time.Second)
	if len(c.samples) >= whole {
		return
	}
	correct, _ := ledger.Count(c.ledger.Compare(c.typed))
	for len(c.samples) < whole {
		second := time.Duration(len(c.samples)+1) * time.Second
		c.samples = append(c.samples, metrics.WPM(correct, second))
	}
}

func (c *Controller) elapsedLocked(now time.Time) time.Duration {
	if !c.started {
		return 0
	}
	elapsed := now.Sub(c.startTime)
	if elapsed < 0 {
		elapsed = 0
	}
	if c.cfg.Mode == model.ModeTime && elapsed > c.cfg.Duration {
		elapsed = c.cfg.Duration
	}
	return elapsed
}

func (c *Controller) metricsLocked(states []ledger.CharState, elapsed time.Duration) metrics.Snapshot {
	return metrics.Compute(metrics.Input{
		Elapsed:   elapsed,
		States:    states,
		TypedLen:  len(c.typed),
		LedgerLen: c.ledger.Len(),
		Mode:      c.cfg.Mode,
		Duration:  c.cfg.Duration,
	})
}

func (c *Controller) commitLocked(now time.Time) Snapshot {
	c.seq++
	c.last = c.snapshotLocked(now)
	c.last.seq = c.seq
	return c.last
}

func (c *Controller) snapshotLocked(now time.Time) Snapshot {
	states := c.ledger.Compare(c.typed)
	loc := cursor.Locate(len(c.typed), c.spans, states)
	completed := make([]int, 0, len(loc.Completed))
	for i := range loc.Completed {
		completed = append(completed, i)
	}
	sort.Ints(completed)

	snap := Snapshot{
		SessionID:   c.sessionID,
		State:       c.state,
		Mode:        c.cfg.Mode,
		Words:       c.ledger.Words(),
		Typed:       string(c.typed),
		States:      states,
		CurrentWord: loc.Current,
		Completed:   completed,
		Text:        c.ledger,
	}
	if c.report != nil {
		report := *c.report
		snap.SessionID = report.ID
		snap.Report = &report
		snap.Metrics = metrics.Snapshot{
			WPM:          report.WPM,
			Accuracy:     report.Accuracy,
			Mistakes:     report.Mistakes,
			ProgressPct:  metrics.Progress(report.Mode, report.Elapsed, report.Duration, report.Keystrokes, c.ledger.Len()),
			CorrectChars: report.CorrectChars,
		}
	} else {
		snap.Metrics = c.metricsLocked(states, c.elapsedLocked(now))
	}
	snap.TimerText = c.timerTextLocked(now)
	return snap
}

func (c *Controller) timerTextLocked(now time.Time) string {
	if c.cfg.Mode == model.ModeWords {
		typedWords := 0
		for _, span := range c.spans {
			if span.End() <= len(c.typed) {
				typedWords++
			}
		}
		return strconv.Itoa(typedWords) + "/" + strconv.Itoa(len(c.spans))
	}
	switch c.state {
	case Finished:
		return "0"
	case Running:
		remaining := c.endTime.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		return strconv.Itoa(int(math.Ceil(remaining.Seconds())))
	default:
		return strconv.Itoa(int(math.Ceil(c.cfg.Duration.Seconds())))
	}
}

// emit delivers snap outside c.mu. A snapshot committed before the last
// delivered one is dropped; the finish handler still runs for it.
func (c *Controller) emit(snap Snapshot, report *Report) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	renderers := append([]Renderer(nil), c.renderers...)
	onFinish := c.onFinish
	c.mu.Unlock()
	if snap.seq > c.delivered {
		c.delivered = snap.seq
		for _, r := range renderers {
			r.Display(snap)
		}
	}
	if report != nil && onFinish != nil {
		onFinish(*report)
	}
}
