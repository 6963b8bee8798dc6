package hazard

// Category identifies one kind of hazard. The set is closed.
type Category string

const (
	// InvisibleBidi covers zero-width, word-joiner, BOM and bidirectional
	// override characters. Each code point is one match.
	InvisibleBidi Category = "invisible_bidi"

	// SmartQuotesInAttribute covers curly quotes inside content, data-*,
	// alt and title attribute values. Each attribute value is one match.
	SmartQuotesInAttribute Category = "smart_quotes_in_attribute"

	// ConsecutiveNBSP covers runs of two or more &nbsp; entities separated
	// only by whitespace. Each maximal run is one match.
	ConsecutiveNBSP Category = "consecutive_nbsp"
)

// Categories lists every category in reporting order.
var Categories = []Category{InvisibleBidi, SmartQuotesInAttribute, ConsecutiveNBSP}

// String returns the category identifier.
func (c Category) String() string {
	return string(c)
}

// Match is a single hazard occurrence.
type Match struct {
	// Text is the matched substring.
	Text string `json:"text"`

	// Offset is the byte offset of Text in the scanned string.
	Offset int `json:"offset"`
}

// Finding holds all matches of one category.
// Count always equals len(Matches).
type Finding struct {
	Count   int     `json:"count"`
	Matches []Match `json:"matches"`
}

// merge concatenates two findings into a new one.
func (f Finding) merge(o Finding) Finding {
	matches := make([]Match, 0, len(f.Matches)+len(o.Matches))
	matches = append(matches, f.Matches...)
	matches = append(matches, o.Matches...)
	return Finding{Count: f.Count + o.Count, Matches: matches}
}

// Report maps every category to its finding.
// Reports are values; Merge and Only return new reports.
type Report struct {
	InvisibleBidi          Finding `json:"invisible_bidi"`
	SmartQuotesInAttribute Finding `json:"smart_quotes_in_attribute"`
	ConsecutiveNBSP        Finding `json:"consecutive_nbsp"`
}

// Get returns the finding for a category.
func (r Report) Get(c Category) Finding {
	switch c {
	case InvisibleBidi:
		return r.InvisibleBidi
	case SmartQuotesInAttribute:
		return r.SmartQuotesInAttribute
	case ConsecutiveNBSP:
		return r.ConsecutiveNBSP
	default:
		return Finding{}
	}
}

// with returns a copy of r with the finding for c replaced.
func (r Report) with(c Category, f Finding) Report {
	switch c {
	case InvisibleBidi:
		r.InvisibleBidi = f
	case SmartQuotesInAttribute:
		r.SmartQuotesInAttribute = f
	case ConsecutiveNBSP:
		r.ConsecutiveNBSP = f
	}
	return r
}

// Merge combines two reports category by category: matches are
// concatenated (r first) and counts are summed.
func (r Report) Merge(o Report) Report {
	var merged Report
	for _, c := range Categories {
		merged = merged.with(c, r.Get(c).merge(o.Get(c)))
	}
	return merged
}

// Only returns a report that keeps the finding for c and empties the rest.
func (r Report) Only(c Category) Report {
	return Report{}.with(c, r.Get(c))
}

// HasSignificant reports whether any category has at least one match.
func (r Report) HasSignificant() bool {
	return r.Total() > 0
}

// Total sums the counts of every category.
func (r Report) Total() int {
	total := 0
	for _, c := range Categories {
		total += r.Get(c).Count
	}
	return total
}

// Counts reduces the report to per-category totals.
func (r Report) Counts() Counts {
	return Counts{
		InvisibleBidi:          r.InvisibleBidi.Count,
		SmartQuotesInAttribute: r.SmartQuotesInAttribute.Count,
		ConsecutiveNBSP:        r.ConsecutiveNBSP.Count,
	}
}

// Counts holds per-category hazard totals, used when aggregating many
// reports where the individual matches are no longer needed.
type Counts struct {
	InvisibleBidi          int `json:"invisible_bidi"`
	SmartQuotesInAttribute int `json:"smart_quotes_in_attribute"`
	ConsecutiveNBSP        int `json:"consecutive_nbsp"`
}

// Add returns the category-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		InvisibleBidi:          c.InvisibleBidi + o.InvisibleBidi,
		SmartQuotesInAttribute: c.SmartQuotesInAttribute + o.SmartQuotesInAttribute,
		ConsecutiveNBSP:        c.ConsecutiveNBSP + o.ConsecutiveNBSP,
	}
}

// Get returns the total for a category.
func (c Counts) Get(cat Category) int {
	switch cat {
	case InvisibleBidi:
		return c.InvisibleBidi
	case SmartQuotesInAttribute:
		return c.SmartQuotesInAttribute
	case ConsecutiveNBSP:
		return c.ConsecutiveNBSP
	default:
		return 0
	}
}

// Total sums every category.
func (c Counts) Total() int {
	return c.InvisibleBidi + c.SmartQuotesInAttribute + c.ConsecutiveNBSP
}
