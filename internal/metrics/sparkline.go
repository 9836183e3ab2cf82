package metrics

import "strings"

const sparkChars = "▁▂▃▄▅▆▇█"

// Sparkline renders WPM samples as a single line of block characters.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune(sparkChars)
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == minVal {
		return strings.Repeat(string(blocks[len(blocks)/2]), len(values))
	}
	var b strings.Builder
	span := float64(maxVal - minVal)
	for _, v := range values {
		idx := int(float64(v-minVal) / span * float64(len(blocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		b.WriteRune(blocks[idx])
	}
	return b.String()
}
