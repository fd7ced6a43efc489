package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens text to maxWidth terminal cells, ending in "..." when
// anything was cut. Wide runes count as two cells.
func Truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, "...")
}

// Wrap breaks text at word boundaries into lines of at most maxWidth cells.
// A single word wider than maxWidth is truncated.
func Wrap(text string, maxWidth int) []string {
	var lines []string
	var line strings.Builder
	width := 0

	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if w > maxWidth {
			word = Truncate(word, maxWidth)
			w = runewidth.StringWidth(word)
		}

		switch {
		case width == 0:
			line.WriteString(word)
			width = w
		case width+1+w <= maxWidth:
			line.WriteByte(' ')
			line.WriteString(word)
			width += 1 + w
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
			width = w
		}
	}

	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// PadTo right-pads text with spaces to exactly width cells, truncating if
// it is longer
func PadTo(text string, width int) string {
	text = Truncate(text, width)
	return text + strings.Repeat(" ", max(0, width-runewidth.StringWidth(text)))
}
