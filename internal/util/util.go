// Package util holds small text helpers shared by logging call sites.
package util

import (
	"strings"
	"unicode"
)

// PreviewRunes is the default length of a goal preview in logs
const PreviewRunes = 80

// Preview collapses runs of whitespace to single spaces and cuts the result
// to at most maxRunes runes, ending on a word boundary when one exists and
// marking the cut with "...". Goals are user text, so previews keep full
// goals out of logs.
func Preview(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= maxRunes {
		return flat
	}
	if maxRunes <= 3 {
		return strings.Repeat(".", maxRunes)
	}

	cut := maxRunes - 3
	if i := lastSpace(runes[:cut+1]); i > 0 {
		cut = i
	}
	return string(runes[:cut]) + "..."
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
