package document

import (
	"fmt"
	"regexp"
	"strings"
)

// ExclusionZone identifies subtrees whose text and attributes are never
// rewritten. Exactly one of Element and Attribute is set: an element zone
// matches by element name, an attribute zone matches any element that
// carries the attribute, whatever its value.
type ExclusionZone struct {
	Element   string
	Attribute string
}

var zoneNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_:-]*$`)

// DefaultExclusionZones returns script, style, pre, code and
// [contenteditable].
func DefaultExclusionZones() []ExclusionZone {
	return []ExclusionZone{
		{Element: "script"},
		{Element: "style"},
		{Element: "pre"},
		{Element: "code"},
		{Attribute: "contenteditable"},
	}
}

// DefaultAttributes returns the attribute names normalized by default.
func DefaultAttributes() []string {
	return []string{"title", "alt", "placeholder", "aria-label", "content"}
}

// ParseExclusionZone parses an element name ("pre") or an attribute
// presence selector ("[contenteditable]"). Names are lower-cased.
func ParseExclusionZone(s string) (ExclusionZone, error) {
	s = strings.TrimSpace(s)
	name, isAttr := s, false
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		name, isAttr = strings.TrimSpace(s[1:len(s)-1]), true
	}
	if !zoneNamePattern.MatchString(name) {
		return ExclusionZone{}, fmt.Errorf("%w: %q", ErrInvalidExclusionZone, s)
	}
	name = strings.ToLower(name)
	if isAttr {
		return ExclusionZone{Attribute: name}, nil
	}
	return ExclusionZone{Element: name}, nil
}

// ParseExclusionZones parses every selector, stopping at the first error.
func ParseExclusionZones(selectors []string) ([]ExclusionZone, error) {
	zones := make([]ExclusionZone, 0, len(selectors))
	for _, s := range selectors {
		z, err := ParseExclusionZone(s)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// String returns the selector form of the zone.
func (z ExclusionZone) String() string {
	if z.Attribute != "" {
		return "[" + z.Attribute + "]"
	}
	return z.Element
}

// matches reports whether an element with the given lower-cased name and
// attribute lookup falls in the zone.
func (z ExclusionZone) matches(name string, hasAttr func(string) bool) bool {
	if z.Attribute != "" {
		return hasAttr(z.Attribute)
	}
	return z.Element == name
}
