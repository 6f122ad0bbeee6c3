package extract

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t\x{00A0}]+`)
	reTrailing   = regexp.MustCompile(`(?m)[ \t]+$`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`[\x{2502}\x{2503}\x{2506}\x{2507}\x{250A}\x{250B}\x{254E}\x{254F}\x{2551}]+`)
)

var quoteReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u2018", "'",
	"\u2019", "'",
	"\u201C", `"`,
	"\u201D", `"`,
	"\u00AD", "",
	"\uFEFF", "",
)

// Normalize cleans OCR and layout output: unified line endings, collapsed
// runs of spaces and no-break spaces, straight quotes, no trailing spaces
// and at most one blank line between blocks. Page breaks are kept.
func Normalize(s string) string {
	s = quoteReplacer.Replace(s)
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, " ")
	s = reTrailing.ReplaceAllString(s, "")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
