package hazard

import (
	"regexp"
	"unicode/utf8"
)

// invisibleClass lists the zero-width, word-joiner, BOM and bidirectional
// control code points. The replace package strips the same set.
const invisibleClass = `[\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2060}-\x{2069}\x{FEFF}]`

// smartQuoteClass lists the curly and angled quote characters that break
// attribute parsing when an editor pastes them into markup.
const smartQuoteClass = `[\x{201C}\x{201D}\x{2018}\x{2019}\x{201A}\x{02BB}\x{02BC}\x{201E}]`

// spaceClass matches the characters treated as whitespace between two
// &nbsp; entities: ASCII whitespace plus the Unicode space separators.
const spaceClass = `[\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`

// patterns maps each category to the matcher used to find it.
var patterns = map[Category]*regexp.Regexp{
	InvisibleBidi: regexp.MustCompile(invisibleClass),
	SmartQuotesInAttribute: regexp.MustCompile(
		`(?i)(?:content|data-[^=]*|alt|title)=["'][^"']*` + smartQuoteClass + `[^"']*["']`,
	),
	ConsecutiveNBSP: regexp.MustCompile(`(?i)(?:&nbsp;` + spaceClass + `*){2,}`),
}

// Pattern returns the compiled matcher for a category.
// The replace package uses the consecutive_nbsp matcher to collapse runs.
// It returns nil for an unknown category.
func Pattern(c Category) *regexp.Regexp {
	return patterns[c]
}

// Detect scans text for every hazard category independently.
// Matches within one category never overlap.
func Detect(text string) (Report, error) {
	if !utf8.ValidString(text) {
		return Report{}, ErrInvalidInput
	}

	var report Report
	for _, c := range Categories {
		report = report.with(c, scan(patterns[c], text))
	}
	return report, nil
}

// scan collects every non-overlapping match of re in text.
func scan(re *regexp.Regexp, text string) Finding {
	locs := re.FindAllStringIndex(text, -1)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{
			Text:   text[loc[0]:loc[1]],
			Offset: loc[0],
		})
	}
	return Finding{Count: len(matches), Matches: matches}
}
