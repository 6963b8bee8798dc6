package document

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/humantouch/internal/hazard"
	"github.com/nao1215/humantouch/internal/replace"
)

// Result is the outcome of normalizing one document.
type Result struct {
	// Markup is the rendered document.
	Markup string `json:"markup"`

	// Changes is the sum of changes over text nodes and attributes.
	Changes int `json:"changes"`

	// Hazards accumulates the hazards of every normalized text node and
	// attribute value, plus the smart quotes in attributes seen on the raw
	// markup. That category is counted from both views.
	Hazards hazard.Report `json:"hazards"`

	// Fallback is the parse error when the document was normalized as
	// plain text, nil otherwise.
	Fallback error `json:"-"`
}

// Normalizer applies the replacement engine to the text nodes and selected
// attributes of a document, leaving exclusion zones untouched.
// A Normalizer is safe for concurrent use.
type Normalizer struct {
	zones      []ExclusionZone
	attributes []string
	aggressive bool
	engine     *replace.Engine
	parser     Parser
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithExclusionZones sets the exclusion zones used by the default parser.
func WithExclusionZones(zones []ExclusionZone) Option {
	return func(n *Normalizer) {
		n.zones = slices.Clone(zones)
	}
}

// WithAttributes sets the attribute names to normalize. Names are matched
// case-insensitively; duplicates are dropped.
func WithAttributes(names []string) Option {
	return func(n *Normalizer) {
		n.attributes = nil
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" && !slices.Contains(n.attributes, name) {
				n.attributes = append(n.attributes, name)
			}
		}
	}
}

// WithAggressive enables the aggressive rule tier.
func WithAggressive(aggressive bool) Option {
	return func(n *Normalizer) {
		n.aggressive = aggressive
	}
}

// WithEngine sets the replacement engine.
func WithEngine(engine *replace.Engine) Option {
	return func(n *Normalizer) {
		n.engine = engine
	}
}

// WithParser replaces the HTML parser. The parser's own exclusion rules
// apply; WithExclusionZones has no effect on it.
func WithParser(parser Parser) Option {
	return func(n *Normalizer) {
		n.parser = parser
	}
}

// NewNormalizer creates a Normalizer with the default zones and attributes.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		zones:      DefaultExclusionZones(),
		attributes: DefaultAttributes(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.engine == nil {
		n.engine = replace.NewEngine()
	}
	if n.parser == nil {
		n.parser = NewHTMLParser(n.zones)
	}
	return n
}

// parseOutcome is either a tree or the reason the document has to be
// treated as plain text.
type parseOutcome struct {
	tree     Tree
	fallback error
}

func (n *Normalizer) parse(markup string) (out parseOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = parseOutcome{fallback: fmt.Errorf("%w: parser panic: %v", ErrMalformedMarkup, r)}
		}
	}()

	tree, err := n.parser.Parse(markup)
	if err != nil {
		return parseOutcome{fallback: err}
	}
	if tree == nil {
		return parseOutcome{fallback: fmt.Errorf("%w: parser returned no tree", ErrMalformedMarkup)}
	}
	return parseOutcome{tree: tree}
}

// Normalize rewrites markup. It only fails with ErrInvalidInput; markup
// that cannot be parsed is normalized as plain text and reported through
// Result.Fallback.
func (n *Normalizer) Normalize(markup string) (Result, error) {
	if !utf8.ValidString(markup) {
		return Result{}, ErrInvalidInput
	}

	outcome := n.parse(markup)
	if outcome.fallback != nil {
		res, err := n.engine.Normalize(markup, n.aggressive)
		if err != nil {
			return Result{}, err
		}
		return Result{Markup: res.Text, Changes: res.Changes, Hazards: res.Hazards, Fallback: outcome.fallback}, nil
	}

	raw, err := hazard.Detect(markup)
	if err != nil {
		return Result{}, err
	}
	baseline := raw.Only(hazard.SmartQuotesInAttribute)

	var (
		hazards hazard.Report
		changes int
	)
	apply := func(text string) (replace.Result, error) {
		res, err := n.engine.Normalize(text, n.aggressive)
		if err != nil {
			return replace.Result{}, err
		}
		hazards = hazards.Merge(res.Hazards)
		return res, nil
	}

	for node := range outcome.tree.TextNodes() {
		if node.Excluded() {
			continue
		}
		res, err := apply(node.Text())
		if err != nil {
			return Result{}, err
		}
		if res.Text != node.Text() && node.SetText(res.Text) {
			changes += res.Changes
		}
	}

	for _, name := range n.attributes {
		for el := range outcome.tree.Elements() {
			if el.Excluded() {
				continue
			}
			value, ok := el.Attr(name)
			if !ok || value == "" {
				continue
			}
			res, err := apply(value)
			if err != nil {
				return Result{}, err
			}
			changes += res.Changes
			if res.Text != value {
				el.SetAttr(name, res.Text)
			}
		}
	}

	return Result{
		Markup:  outcome.tree.Render(),
		Changes: changes,
		Hazards: hazards.Merge(baseline),
	}, nil
}

// Normalize normalizes markup with the default configuration.
func Normalize(markup string, aggressive bool) (Result, error) {
	return NewNormalizer(WithAggressive(aggressive)).Normalize(markup)
}
