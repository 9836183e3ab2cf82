// Package metrics computes live typing metrics.
package metrics

import (
	"math"
	"time"

	"github.com/verte-zerg/keysprint/internal/ledger"
	"github.com/verte-zerg/keysprint/internal/model"
)

// MaxWPM caps reported speed; near-zero elapsed time would otherwise explode.
const MaxWPM = 2000

// minMinutes floors elapsed time at one second.
const minMinutes = 1.0 / 60.0

// Input holds everything a snapshot is derived from.
type Input struct {
	Elapsed   time.Duration
	States    []ledger.CharState
	TypedLen  int
	LedgerLen int
	Mode      model.Mode
	Duration  time.Duration
}

// Snapshot is the metrics view of one moment of a session.
type Snapshot struct {
	WPM          int `json:"wpm"`
	Accuracy     int `json:"accuracy"`
	Mistakes     int `json:"mistakes"`
	ProgressPct  int `json:"progress"`
	CorrectChars int `json:"correctChars"`
}

// Compute derives a snapshot. It has no hidden state.
func Compute(in Input) Snapshot {
	correct, incorrect := ledger.Count(in.States)
	typedLen := in.TypedLen
	if typedLen > in.LedgerLen {
		typedLen = in.LedgerLen
	}
	if typedLen < 0 {
		typedLen = 0
	}
	return Snapshot{
		WPM:          WPM(correct, in.Elapsed),
		Accuracy:     Accuracy(correct, typedLen),
		Mistakes:     incorrect,
		ProgressPct:  Progress(in.Mode, in.Elapsed, in.Duration, typedLen, in.LedgerLen),
		CorrectChars: correct,
	}
}

// WPM returns rounded words per minute for correct characters, five
// characters per word.
func WPM(correct int, elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes < minMinutes || math.IsNaN(minutes) {
		minutes = minMinutes
	}
	raw := (float64(correct) / 5.0) / minutes
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	wpm := math.Round(raw)
	if wpm > MaxWPM {
		return MaxWPM
	}
	return int(wpm)
}

// Accuracy returns the rounded share of typed characters that are correct.
// Nothing typed reads as 100.
func Accuracy(correct, typedLen int) int {
	if typedLen <= 0 {
		return 100
	}
	return clampPct(math.Round(100 * float64(correct) / float64(typedLen)))
}

// Progress returns completion in percent: time elapsed for time mode,
// characters typed for word mode.
func Progress(mode model.Mode, elapsed, duration time.Duration, typedLen, ledgerLen int) int {
	if mode == model.ModeTime {
		if duration <= 0 {
			return 0
		}
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed > duration {
			elapsed = duration
		}
		return clampPct(math.Round(100 * elapsed.Seconds() / duration.Seconds()))
	}
	if ledgerLen <= 0 {
		return 0
	}
	return clampPct(math.Round(100 * float64(typedLen) / float64(ledgerLen)))
}

func clampPct(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
