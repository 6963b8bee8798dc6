package replace

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/humantouch/internal/hazard"
)

// ErrInvalidInput is returned for text that is not valid UTF-8.
// It is the same value as hazard.ErrInvalidInput.
var ErrInvalidInput = hazard.ErrInvalidInput

// Result is the outcome of normalizing one string.
type Result struct {
	// Text is the normalized text.
	Text string `json:"text"`

	// Changes counts every rewrite: one per collapsed &nbsp; run and one
	// per occurrence rewritten by a rule.
	Changes int `json:"changes"`

	// Hazards were detected on the original, unnormalized input.
	Hazards hazard.Report `json:"hazards"`
}

// Engine interprets the ordered rule tables.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	safe       []Rule
	aggressive []Rule

	// custom is set once a tier is replaced; the ASCII fast path only
	// holds for the default tables.
	custom bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSafeRules replaces the safe tier.
func WithSafeRules(rules []Rule) Option {
	return func(e *Engine) {
		e.safe = append([]Rule(nil), rules...)
		e.custom = true
	}
}

// WithAggressiveRules replaces the aggressive tier.
func WithAggressiveRules(rules []Rule) Option {
	return func(e *Engine) {
		e.aggressive = append([]Rule(nil), rules...)
		e.custom = true
	}
}

// WithoutRules disables the named rules in both tiers.
// Unknown names are ignored; use UnknownRules to validate configuration.
func WithoutRules(names ...string) Option {
	return func(e *Engine) {
		drop := func(r Rule) bool { return slices.Contains(names, r.Name) }
		e.safe = slices.DeleteFunc(e.safe, drop)
		e.aggressive = slices.DeleteFunc(e.aggressive, drop)
	}
}

// NewEngine creates an Engine with the default rule tables.
// Options are applied in order.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		safe:       SafeRules(),
		aggressive: AggressiveRules(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules of both tiers in application order.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, 0, len(e.safe)+len(e.aggressive))
	rules = append(rules, e.safe...)
	return append(rules, e.aggressive...)
}

// Normalize rewrites text through the nbsp collapse, the safe tier and,
// when aggressive is true, the aggressive tier.
//
// Hazards are detected on the input before anything is rewritten. The
// output is a fixed point: normalizing it again with the same flag yields
// the same text and zero changes.
func (e *Engine) Normalize(text string, aggressive bool) (Result, error) {
	hazards, err := hazard.Detect(text)
	if err != nil {
		return Result{}, err
	}

	if !e.custom && !mayMatch(text) {
		return Result{Text: text, Hazards: hazards}, nil
	}

	out := text
	changes := 0

	if runs := hazards.ConsecutiveNBSP.Count; runs > 0 {
		out = hazard.Pattern(hazard.ConsecutiveNBSP).ReplaceAllLiteralString(out, "&nbsp;")
		changes += runs
	}

	out, n := applyAll(out, e.safe)
	changes += n

	if aggressive {
		out, n = applyAll(out, e.aggressive)
		changes += n
	}

	return Result{Text: out, Changes: changes, Hazards: hazards}, nil
}

// applyAll applies rules left to right, each on the previous output.
func applyAll(text string, rules []Rule) (string, int) {
	total := 0
	for _, rule := range rules {
		var n int
		text, n = rule.apply(text)
		total += n
	}
	return text, total
}

// mayMatch reports whether any default rule could match text. Every default
// pattern needs either a non-ASCII code point or an '&'.
func mayMatch(text string) bool {
	if strings.IndexByte(text, '&') >= 0 {
		return true
	}
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// UnknownRules returns the names that match no rule of the default tables.
func UnknownRules(names []string) []string {
	var unknown []string
	for _, name := range names {
		known := slices.ContainsFunc(safeRules, func(r Rule) bool { return r.Name == name }) ||
			slices.ContainsFunc(aggressiveRules, func(r Rule) bool { return r.Name == name })
		if !known {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

var defaultEngine = NewEngine()

// Normalize normalizes text with the default rule tables.
func Normalize(text string, aggressive bool) (Result, error) {
	return defaultEngine.Normalize(text, aggressive)
}

// Humanize returns the normalized text only, using the default rule tables.
func Humanize(text string, aggressive bool) (string, error) {
	res, err := defaultEngine.Normalize(text, aggressive)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
