package tui

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/keysprint/internal/metrics"
	"github.com/verte-zerg/keysprint/internal/model"
	"github.com/verte-zerg/keysprint/internal/session"
)

// FormatReport renders a report as plain text for the terminal after exit.
func FormatReport(r session.Report) string {
	var b strings.Builder
	mode := fmt.Sprintf("time %ds", int(r.Duration.Seconds()))
	if r.Mode == model.ModeWords {
		mode = fmt.Sprintf("words %d", r.WordCount)
	}
	fmt.Fprintf(&b, "%s · %d wpm · %d%% acc\n", mode, r.WPM, r.Accuracy)
	fmt.Fprintf(&b, "keys %d · correct %d · mistakes %d · %s\n", r.Keystrokes, r.CorrectChars, r.Mistakes, formatElapsed(r.Elapsed))
	if spark := metrics.Sparkline(r.Samples); spark != "" {
		fmt.Fprintf(&b, "%s\n", spark)
	}
	return b.String()
}
