package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/humantouch/internal/document"
)

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoPattern is returned when there is no file pattern, or one of
	// them is empty.
	ErrNoPattern = errors.New("no file pattern specified: pass patterns as arguments or use --patterns")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidExclusionZone is returned for a malformed --exclude selector.
	// It is the same value as document.ErrInvalidExclusionZone.
	ErrInvalidExclusionZone = document.ErrInvalidExclusionZone

	// ErrUnknownRule is matched by UnknownRulesError.
	ErrUnknownRule = errors.New("unknown replacement rule")
)

// UnknownRulesError lists the --disable-rule names that match no rule.
type UnknownRulesError struct {
	Names []string
}

func (e *UnknownRulesError) Error() string {
	return fmt.Sprintf("%s: %s (see 'humantouch rules')", ErrUnknownRule, strings.Join(e.Names, ", "))
}

// Is reports whether target is ErrUnknownRule.
func (e *UnknownRulesError) Is(target error) bool {
	return target == ErrUnknownRule
}
