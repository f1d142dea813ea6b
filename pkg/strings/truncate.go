package strings

import (
	"strings"
)

// DefaultCellMaxLen is the width error messages are cut to in plain table
// output.
const DefaultCellMaxLen = 120

// minCellLen leaves room for one character plus "...".
const minCellLen = 4

// SingleLine collapses every run of whitespace in s, newlines included, into
// one space and cuts the result to maxLen runes, marking a cut with "...".
// A maxLen below 4 is treated as 4.
func SingleLine(s string, maxLen int) string {
	if maxLen < minCellLen {
		maxLen = minCellLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
