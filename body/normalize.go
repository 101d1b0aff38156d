package body

import (
	"regexp"
	"strings"
)

var (
	invisible = strings.NewReplacer(
		"\u034f", "", // combining grapheme joiner
		"\u00a0", "",
		"\u200b", "",
		"\u200c", "",
		"\u200d", "",
		"\ufeff", "",
	)
	newlineSpace = regexp.MustCompile(`[ \t\r\f\v]*\n[ \t\r\f\v]*`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Normalize removes invisible characters, trims horizontal whitespace around
// newlines and keeps at most one blank line between paragraphs.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = invisible.Replace(text)
	text = newlineSpace.ReplaceAllString(text, "\n")
	return blankRuns.ReplaceAllString(text, "\n\n")
}
