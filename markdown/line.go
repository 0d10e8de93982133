package markdown

import (
	"strings"

	"github.com/hesusruiz/pagedown/sliceedit"
)

// blankChars are the characters that make a line blank when nothing else is on it.
const blankChars = " \t\n\r\x00\x0B"

// tabStop is the column width of a tab.
const tabStop = 4

// line is one normalized source line.
type line struct {
	body   string // the whole line, tabs expanded
	indent int    // number of leading spaces of body
	text   string // body without its indentation, never empty
}

// normalizeNewlines converts "\r\n" and lone "\r" line endings to "\n".
func normalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}

	b := sliceedit.NewBufferString(text)
	b.ReplaceAllString("\r\n", "\n")
	text = b.String()

	b = sliceedit.NewBufferString(text)
	b.ReplaceAllString("\r", "\n")
	return b.String()
}

// splitLines trims the surrounding newlines of a normalized document and
// splits it in lines.
func splitLines(text string) []string {
	return strings.Split(strings.Trim(text, "\n"), "\n")
}

// isBlank reports whether a raw line has nothing but whitespace.
func isBlank(raw string) bool {
	return strings.TrimRight(raw, blankChars) == ""
}

// expandTabs replaces each tab with the spaces needed to reach the next tab stop.
// Columns are counted in characters, not bytes.
func expandTabs(s string) string {
	if strings.IndexByte(s, '\t') < 0 {
		return s
	}

	b := sliceedit.NewBufferString(s)

	column := 0
	for i, r := range s {
		if r == '\t' {
			shortage := tabStop - column%tabStop
			b.Replace(i, i+1, strings.Repeat(" ", shortage))
			column += shortage
			continue
		}
		column++
	}

	return b.String()
}

// newLine normalizes a non-blank raw line.
func newLine(raw string) line {
	body := expandTabs(raw)

	indent := 0
	for indent < len(body) && body[indent] == ' ' {
		indent++
	}

	return line{body: body, indent: indent, text: body[indent:]}
}
