package metrics

import (
	"testing"
	"time"

	"github.com/verte-zerg/keysprint/internal/ledger"
	"github.com/verte-zerg/keysprint/internal/model"
)

func TestComputeMistakeScenario(t *testing.T) {
	l := ledger.Build([]string{"cat"})
	typed := []rune("cit")
	snap := Compute(Input{
		Elapsed:   10 * time.Second,
		States:    l.Compare(typed),
		TypedLen:  len(typed),
		LedgerLen: l.Len(),
		Mode:      model.ModeWords,
	})
	if snap.Mistakes != 1 {
		t.Fatalf("expected 1 mistake, got %d", snap.Mistakes)
	}
	if snap.Accuracy != 67 {
		t.Fatalf("expected accuracy 67, got %d", snap.Accuracy)
	}
	if snap.CorrectChars != 2 {
		t.Fatalf("expected 2 correct chars, got %d", snap.CorrectChars)
	}
	if snap.ProgressPct != 75 {
		t.Fatalf("expected progress 75, got %d", snap.ProgressPct)
	}
}

func TestWPM(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		elapsed time.Duration
		want    int
	}{
		{name: "one minute", correct: 250, elapsed: time.Minute, want: 50},
		{name: "half minute", correct: 100, elapsed: 30 * time.Second, want: 40},
		{name: "floored elapsed", correct: 10, elapsed: 0, want: 120},
		{name: "negative elapsed", correct: 10, elapsed: -time.Second, want: 120},
		{name: "nothing typed", correct: 0, elapsed: 0, want: 0},
		{name: "clamped", correct: 100000, elapsed: time.Second, want: MaxWPM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WPM(tt.correct, tt.elapsed); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAccuracyDefaultsTo100(t *testing.T) {
	if got := Accuracy(0, 0); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		mode     model.Mode
		elapsed  time.Duration
		duration time.Duration
		typed    int
		total    int
		want     int
	}{
		{name: "time start", mode: model.ModeTime, duration: 30 * time.Second, want: 0},
		{name: "time half", mode: model.ModeTime, elapsed: 15 * time.Second, duration: 30 * time.Second, want: 50},
		{name: "time over", mode: model.ModeTime, elapsed: 31 * time.Second, duration: 30 * time.Second, want: 100},
		{name: "time zero duration", mode: model.ModeTime, elapsed: time.Second, want: 0},
		{name: "words", mode: model.ModeWords, typed: 7, total: 8, want: 88},
		{name: "words empty ledger", mode: model.ModeWords, typed: 0, total: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(tt.mode, tt.elapsed, tt.duration, tt.typed, tt.total)
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestComputeBounds(t *testing.T) {
	l := ledger.Build([]string{"the", "quick", "brown", "fox"})
	inputs := []string{"", "t", "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", "the quick brown fox ", "the quick"}
	elapsed := []time.Duration{0, time.Millisecond, time.Second, time.Hour}
	for _, in := range inputs {
		typed := l.Clamp([]rune(in))
		for _, e := range elapsed {
			for _, mode := range []model.Mode{model.ModeTime, model.ModeWords} {
				snap := Compute(Input{
					Elapsed:   e,
					States:    l.Compare(typed),
					TypedLen:  len(typed),
					LedgerLen: l.Len(),
					Mode:      mode,
					Duration:  30 * time.Second,
				})
				if snap.WPM < 0 || snap.WPM > MaxWPM {
					t.Fatalf("wpm out of bounds: %d", snap.WPM)
				}
				if snap.Accuracy < 0 || snap.Accuracy > 100 {
					t.Fatalf("accuracy out of bounds: %d", snap.Accuracy)
				}
				if snap.ProgressPct < 0 || snap.ProgressPct > 100 {
					t.Fatalf("progress out of bounds: %d", snap.ProgressPct)
				}
			}
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]int{10, 10}); got != "▅▅" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline([]int{0, 70}); got != "▁█" {
		t.Fatalf("expected min/max blocks, got %q", got)
	}
}
