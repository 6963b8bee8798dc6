package model

import "github.com/nao1215/humantouch/internal/hazard"

// Severity represents the risk level of a hazard category.
type Severity int

const (
	// SeverityInfo indicates findings with no direct impact.
	SeverityInfo Severity = iota

	// SeverityLow indicates rendering nuisances such as runs of &nbsp;.
	SeverityLow

	// SeverityMedium indicates issues that warrant attention.
	SeverityMedium

	// SeverityHigh indicates characters that can break markup or the code
	// that consumes it, such as curly quotes inside attribute values.
	SeverityHigh

	// SeverityCritical indicates characters that can hide or reorder text,
	// such as zero-width and bidirectional override characters.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// HazardInfo describes a hazard category for reports.
type HazardInfo struct {
	Severity       Severity
	Title          string
	Impact         string
	Recommendation string
}

// hazardInfoMapping is the single source of risk levels for every category.
var hazardInfoMapping = map[hazard.Category]HazardInfo{
	hazard.InvisibleBidi: {
		Severity: SeverityCritical,
		Title:    "Invisible or bidirectional control characters",
		Impact: "Zero-width and bidi override characters make the rendered text differ from the stored text. " +
			"They can hide content or reorder it (Trojan Source).",
		Recommendation: "Remove the characters and run with --fail-on-hazards in CI to block new ones.",
	},
	hazard.SmartQuotesInAttribute: {
		Severity: SeverityHigh,
		Title:    "Curly quotes inside attribute values",
		Impact: "Curly quotes in content, data-*, alt and title values break templates and scripts " +
			"that expect ASCII quotes.",
		Recommendation: "Normalize the attribute values to ASCII quotes.",
	},
	hazard.ConsecutiveNBSP: {
		Severity:       SeverityLow,
		Title:          "Runs of &nbsp; entities",
		Impact:         "Runs of non-breaking spaces force a fixed layout and usually come from pasted rich text.",
		Recommendation: "Collapse each run to a single space.",
	},
}

// GetSeverity returns the severity level for a hazard category.
// Returns SeverityInfo if the category is unknown.
func GetSeverity(c hazard.Category) Severity {
	if info, ok := hazardInfoMapping[c]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetHazardInfo returns the full description of a hazard category.
func GetHazardInfo(c hazard.Category) HazardInfo {
	if info, ok := hazardInfoMapping[c]; ok {
		return info
	}
	return HazardInfo{
		Severity:       SeverityInfo,
		Title:          string(c),
		Impact:         "Unknown hazard category. Review manually.",
		Recommendation: "Inspect the reported matches.",
	}
}
