package replace

import (
	"regexp"

	"golang.org/x/text/width"
)

// Tier classifies a rule by how much it may change meaning.
type Tier int

const (
	// TierSafe rules only change typography: quotes, dashes, spaces,
	// invisible characters and entity spellings.
	TierSafe Tier = iota

	// TierAggressive rules may change meaning (currency, math symbols)
	// and only run when explicitly requested.
	TierAggressive
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierSafe:
		return "safe"
	case TierAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Rule is one entry of the substitution table.
// Exactly one of Replacement and ReplaceFunc is used: ReplaceFunc when it
// is non-nil, Replacement otherwise. Replacement is inserted literally.
type Rule struct {
	// Name identifies the rule in configuration and listings.
	Name string

	// Pattern matches the text to replace.
	Pattern *regexp.Regexp

	// Replacement is the literal replacement text.
	Replacement string

	// ReplaceFunc computes the replacement from the matched text.
	ReplaceFunc func(match string) string

	// Tier is the tier the rule belongs to.
	Tier Tier
}

// replace returns the replacement for one match.
func (r Rule) replace(match string) string {
	if r.ReplaceFunc != nil {
		return r.ReplaceFunc(match)
	}
	return r.Replacement
}

// apply rewrites every occurrence of the rule's pattern and returns the new
// text with the number of occurrences rewritten.
func (r Rule) apply(text string) (string, int) {
	n := 0
	out := r.Pattern.ReplaceAllStringFunc(text, func(m string) string {
		n++
		return r.replace(m)
	})
	return out, n
}

func safe(name, pattern, replacement string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Replacement: replacement, Tier: TierSafe}
}

func aggressive(name, pattern, replacement string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Replacement: replacement, Tier: TierAggressive}
}

// safeRules is the ordered safe tier.
//
// No replacement may produce text that this or any later rule matches.
// Full-width folding runs first because it produces ASCII ("＆nbsp；"
// becomes "&nbsp;") that the entity rules must still see. Entity rules are
// case-insensitive so that no &nbsp; variant survives a pass.
var safeRules = []Rule{
	{
		Name:        "fullwidth-ascii",
		Pattern:     regexp.MustCompile(`[\x{FF01}-\x{FF5E}]`),
		ReplaceFunc: width.Narrow.String,
		Tier:        TierSafe,
	},

	safe("smart-double-quotes", `[\x{201C}\x{201D}]`, `"`),
	safe("smart-single-quotes", `[\x{2018}\x{2019}\x{201A}\x{02BB}\x{02BC}]`, `'`),
	safe("low-double-quote", `\x{201E}`, `"`),

	safe("dashes", `[\x{2010}\x{2013}\x{2014}\x{2212}]`, "-"),
	safe("ellipsis", `\x{2026}`, "..."),

	safe("special-spaces",
		`[\x{00A0}\x{2007}\x{2009}\x{2002}\x{2003}\x{2004}\x{2005}\x{2006}\x{2008}\x{200A}\x{202F}\x{1680}\x{3000}]`, " "),
	safe("invisible-bidi", `[\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2060}-\x{2069}\x{FEFF}]`, ""),

	safe("bullets", `[\x{2022}\x{2023}\x{25E6}\x{00B7}\x{25AA}\x{25AB}\x{25CF}\x{25A0}\x{25A1}\x{2043}]`, "*"),

	safe("arrow-right", `\x{2192}`, "->"),
	safe("arrow-left", `\x{2190}`, "<-"),
	safe("arrow-up", `\x{2191}`, "^"),
	safe("arrow-down", `\x{2193}`, "v"),

	// Check marks run before the multiplication crosses.
	safe("check-mark", `\x{2713}`, "[ok]"),
	safe("heavy-check-mark", `\x{2714}`, "[OK]"),
	safe("cross-mark", `\x{274C}`, "[x]"),
	safe("ballot-x", `[\x{2717}\x{2718}]`, "[X]"),
	safe("multiplication-x", `[\x{2715}\x{2716}]`, "x"),

	safe("entity-nbsp", `(?i)&nbsp;`, " "),
	safe("entity-ensp", `(?i)&ensp;`, " "),
	safe("entity-emsp", `(?i)&emsp;`, " "),
	safe("entity-thinsp", `(?i)&thinsp;`, " "),
	safe("entity-mdash", `(?i)&mdash;`, "-"),
	safe("entity-ndash", `(?i)&ndash;`, "-"),
	safe("entity-hellip", `(?i)&hellip;`, "..."),
	safe("entity-lsquo", `(?i)&lsquo;`, "'"),
	safe("entity-rsquo", `(?i)&rsquo;`, "'"),
	safe("entity-ldquo", `(?i)&ldquo;`, `"`),
	safe("entity-rdquo", `(?i)&rdquo;`, `"`),
	safe("entity-bull", `(?i)&bull;`, "*"),
	safe("entity-middot", `(?i)&middot;`, "*"),

	safe("fraction-1-2", `\x{00BD}`, "1/2"),
	safe("fraction-1-4", `\x{00BC}`, "1/4"),
	safe("fraction-3-4", `\x{00BE}`, "3/4"),
	safe("fraction-1-3", `\x{2153}`, "1/3"),
	safe("fraction-2-3", `\x{2154}`, "2/3"),
	safe("fraction-1-5", `\x{2155}`, "1/5"),
	safe("fraction-2-5", `\x{2156}`, "2/5"),
	safe("fraction-3-5", `\x{2157}`, "3/5"),
	safe("fraction-4-5", `\x{2158}`, "4/5"),
	safe("fraction-1-6", `\x{2159}`, "1/6"),
	safe("fraction-5-6", `\x{215A}`, "5/6"),
	safe("fraction-1-8", `\x{215B}`, "1/8"),
	safe("fraction-3-8", `\x{215C}`, "3/8"),
	safe("fraction-5-8", `\x{215D}`, "5/8"),
	safe("fraction-7-8", `\x{215E}`, "7/8"),
}

// aggressiveRules is the ordered aggressive tier. It runs on the output of
// the safe tier, so characters the safe tier already rewrote (en dash,
// arrows) are not repeated here.
var aggressiveRules = []Rule{
	aggressive("multiplication-sign", `\x{00D7}`, "x"),
	aggressive("division-sign", `\x{00F7}`, "/"),
	aggressive("plus-minus", `\x{00B1}`, "+/-"),
	aggressive("degree-sign", `\x{00B0}`, "\u00BA"),

	aggressive("currency-euro", `\x{20AC}`, "EUR"),
	aggressive("currency-pound", `\x{00A3}`, "GBP"),
	aggressive("currency-yen", `\x{00A5}`, "JPY"),
	aggressive("currency-cent", `\x{00A2}`, "cent"),

	aggressive("guillemets", `[\x{00AB}\x{00BB}]`, `"`),
	aggressive("single-guillemets", `[\x{2039}\x{203A}]`, "'"),
}

// SafeRules returns a copy of the default safe tier in application order.
func SafeRules() []Rule {
	return append([]Rule(nil), safeRules...)
}

// AggressiveRules returns a copy of the default aggressive tier in
// application order.
func AggressiveRules() []Rule {
	return append([]Rule(nil), aggressiveRules...)
}
