package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keysprint/internal/ledger"
	"github.com/verte-zerg/keysprint/internal/session"
)

const wrongSeparator = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes renders every ledger position of snap. The caret is drawn
// under the first untyped position. Snapshots without a ledger, such as
// decoded feed frames, are rebuilt from their words.
func buildStyledRunes(snap session.Snapshot, st styles) []styledRune {
	l := snap.Text
	if l.Len() == 0 && len(snap.Words) > 0 {
		l = ledger.Build(snap.Words)
	}
	typedLen := len([]rune(snap.Typed))
	out := make([]styledRune, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		ch := l.At(i)
		displayed := ch.Display
		style := st.pending
		state := ledger.Unset
		if i < len(snap.States) {
			state = snap.States[i]
		}
		switch state {
		case ledger.Correct:
			style = st.correct
			if snap.IsCompleted(ch.Word) {
				style = st.completed
			}
		case ledger.Incorrect:
			style = st.incorrect
			if ch.Separator {
				displayed = wrongSeparator
			}
		default:
			if !ch.Separator && ch.Word == snap.CurrentWord && snap.State != session.Finished {
				style = st.current
			}
		}
		if i == typedLen && snap.State != session.Finished {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: ch.Separator,
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at separators so no line exceeds width
// columns. A word wider than width is split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx+1]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
