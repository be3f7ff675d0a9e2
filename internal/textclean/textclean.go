// Package textclean normalizes extracted document text before it is sent to
// the LLM. The cleanup is lossless for content: it only collapses whitespace.
package textclean

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tabsRe       = regexp.MustCompile(`\t+`)
	multiSpaceRe = regexp.MustCompile(` {2,}`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// Stats reports what the cleanup removed.
type Stats struct {
	OriginalChars    int     `json:"original_characters"`
	CleanedChars     int     `json:"cleaned_characters"`
	CharsRemoved     int     `json:"characters_removed"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// Clean collapses tabs, runs of spaces, and extra blank lines, trims the
// result, and reports size stats.
func Clean(text string) (string, Stats) {
	original := len(text)

	text = tabsRe.ReplaceAllString(text, " ")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	stats := Stats{
		OriginalChars: original,
		CleanedChars:  len(text),
		CharsRemoved:  original - len(text),
	}
	if original > 0 {
		stats.ReductionPercent = float64(stats.CharsRemoved) / float64(original) * 100
	}
	return text, stats
}

// Truncate limits text to maxChars and appends a marker noting how much was
// dropped, so the LLM knows the document continues.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	dropped := len(text) - maxChars
	return text[:maxChars] + "\n[... truncated " + strconv.Itoa(dropped) + " characters ...]"
}
