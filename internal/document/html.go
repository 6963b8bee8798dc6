package document

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never have content and are never pushed on the open
// element stack.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold character data in which entities are not decoded,
// so an escaped "<" would show up literally.
var rawTextElements = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true,
	"plaintext": true, "script": true, "style": true, "xmp": true,
}

// tokenizerRawElements switch the tokenizer to raw text or RCDATA up to
// their end tag, whatever the form of the start tag.
var tokenizerRawElements = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true,
	"plaintext": true, "script": true, "style": true, "textarea": true,
	"title": true, "xmp": true,
}

// foreignElements start SVG or MathML content, where a self-closing tag
// really closes the element.
var foreignElements = map[string]bool{"svg": true, "math": true}

// HTMLParser tokenizes HTML with golang.org/x/net/html and keeps the raw
// bytes of every token, so a document renders back byte for byte except
// where it was edited. Entities are left as written and attribute names
// keep their case.
//
// No implied elements are added: text before <html> or outside <body> is
// an ordinary text node.
type HTMLParser struct {
	zones []ExclusionZone
}

// NewHTMLParser creates a parser that marks nodes inside the given zones
// as excluded.
func NewHTMLParser(zones []ExclusionZone) *HTMLParser {
	return &HTMLParser{zones: slices.Clone(zones)}
}

// htmlNode is one token of the document.
type htmlNode interface {
	render(b *strings.Builder)
}

// rawNode is a token that is never edited: end tags, comments, doctypes.
type rawNode string

func (n rawNode) render(b *strings.Builder) { b.WriteString(string(n)) }

// openElement is an entry of the open element stack.
type openElement struct {
	name     string
	excluded bool
	foreign  bool
}

// Parse implements Parser.
func (p *HTMLParser) Parse(markup string) (Tree, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	doc := &htmlTree{}
	var stack []openElement
	consumed := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
			}
			break
		}
		raw := string(z.Raw())
		consumed += len(raw)

		parentExcluded, parentName, parentForeign := false, "", false
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			parentExcluded, parentName, parentForeign = top.excluded, top.name, top.foreign
		}

		switch tt {
		case html.TextToken:
			node := &htmlText{text: raw, excluded: parentExcluded}
			if rawTextElements[parentName] {
				node.rawTag = parentName
			}
			doc.nodes = append(doc.nodes, node)
			doc.texts = append(doc.texts, node)

		case html.StartTagToken, html.SelfClosingTagToken:
			el, err := newHTMLElement(z, raw)
			if err != nil {
				return nil, err
			}
			el.excluded = parentExcluded || p.inZone(el)
			doc.nodes = append(doc.nodes, el)
			doc.elements = append(doc.elements, el)
			// The trailing slash of "<pre/>" or "<script/>" is ignored by
			// HTML; only void and foreign elements are closed by it, and
			// never one the tokenizer reads raw content for.
			foreign := parentForeign || foreignElements[el.name]
			selfClosed := tt == html.SelfClosingTagToken && foreign && !tokenizerRawElements[el.name]
			if !voidElements[el.name] && !selfClosed {
				stack = append(stack, openElement{name: el.name, excluded: el.excluded, foreign: foreign})
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			stack = closeElement(stack, string(name))
			doc.nodes = append(doc.nodes, rawNode(raw))

		default:
			doc.nodes = append(doc.nodes, rawNode(raw))
		}
	}

	if consumed != len(markup) {
		return nil, fmt.Errorf("%w: %d of %d bytes tokenized", ErrMalformedMarkup, consumed, len(markup))
	}
	return doc, nil
}

// inZone reports whether the element itself matches a zone.
func (p *HTMLParser) inZone(el *htmlElement) bool {
	hasAttr := func(key string) bool {
		_, ok := el.Attr(key)
		return ok
	}
	for _, z := range p.zones {
		if z.matches(el.name, hasAttr) {
			return true
		}
	}
	return false
}

// closeElement pops the stack up to and including the nearest open element
// named name. A stray end tag leaves the stack as it is.
func closeElement(stack []openElement, name string) []openElement {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name == name {
			return stack[:i]
		}
	}
	return stack
}

// htmlTree implements Tree.
type htmlTree struct {
	nodes    []htmlNode
	texts    []*htmlText
	elements []*htmlElement
}

// TextNodes implements Tree.
func (t *htmlTree) TextNodes() iter.Seq[TextNode] {
	return func(yield func(TextNode) bool) {
		for _, n := range t.texts {
			if !yield(n) {
				return
			}
		}
	}
}

// Elements implements Tree.
func (t *htmlTree) Elements() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, e := range t.elements {
			if !yield(e) {
				return
			}
		}
	}
}

// Render implements Tree.
func (t *htmlTree) Render() string {
	var b strings.Builder
	for _, n := range t.nodes {
		n.render(&b)
	}
	return b.String()
}

// htmlText implements TextNode.
type htmlText struct {
	text     string
	excluded bool
	rawTag   string // enclosing raw text element, if any
}

func (n *htmlText) Text() string   { return n.text }
func (n *htmlText) Excluded() bool { return n.excluded }

// SetText replaces the content. Outside raw text elements, a '<' that
// would open a tag, comment or declaration is written as &lt;. Inside
// them nothing can be escaped, so text that would close the element is
// refused and the node keeps its content.
func (n *htmlText) SetText(text string) bool {
	if n.rawTag == "" {
		n.text = escapeMarkupOpen(text)
		return true
	}
	if strings.Contains(strings.ToLower(text), "</"+n.rawTag) {
		return false
	}
	n.text = text
	return true
}

func (n *htmlText) render(b *strings.Builder) { b.WriteString(n.text) }

// escapeMarkupOpen escapes '<' when followed by a letter, '/', '!' or '?'.
func escapeMarkupOpen(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && i+1 < len(s) && opensMarkup(s[i+1]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func opensMarkup(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '/' || c == '!' || c == '?'
}

// htmlAttr is an attribute located in the raw start tag.
type htmlAttr struct {
	key      string // as written
	keyEnd   int
	valStart int // value bytes, quotes excluded
	valEnd   int
	quote    byte // '"', '\'' or 0 when unquoted
	hasValue bool
	added    bool

	value   string
	changed bool
}

// htmlElement implements Element.
type htmlElement struct {
	name     string
	raw      string
	attrs    []*htmlAttr
	excluded bool
}

// newHTMLElement builds an element from the current start tag token and
// cross-checks the located attributes against the tokenizer's view.
func newHTMLElement(z *html.Tokenizer, raw string) (*htmlElement, error) {
	name, hasAttr := z.TagName()
	el := &htmlElement{name: string(name), raw: raw}

	attrs, err := lexAttrs(raw)
	if err != nil {
		return nil, err
	}
	el.attrs = attrs

	i := 0
	for hasAttr {
		var key []byte
		key, _, hasAttr = z.TagAttr()
		if i >= len(attrs) || !strings.EqualFold(attrs[i].key, string(key)) {
			return nil, fmt.Errorf("%w: attribute %q of <%s> could not be located", ErrMalformedMarkup, key, el.name)
		}
		i++
	}
	if i != len(attrs) {
		return nil, fmt.Errorf("%w: attribute count mismatch in <%s>", ErrMalformedMarkup, el.name)
	}
	return el, nil
}

func (e *htmlElement) Name() string   { return e.name }
func (e *htmlElement) Excluded() bool { return e.excluded }

func (e *htmlElement) find(key string) *htmlAttr {
	for _, a := range e.attrs {
		if strings.EqualFold(a.key, key) {
			return a
		}
	}
	return nil
}

// Attr implements Element.
func (e *htmlElement) Attr(key string) (string, bool) {
	a := e.find(key)
	if a == nil {
		return "", false
	}
	return a.value, true
}

// SetAttr implements Element. The value is written in its markup form;
// only the delimiting quote is escaped.
func (e *htmlElement) SetAttr(key, value string) {
	a := e.find(key)
	if a == nil {
		e.attrs = append(e.attrs, &htmlAttr{key: key, added: true, value: value, changed: true})
		return
	}
	if a.value == value && (a.hasValue || value == "") {
		return
	}
	a.value = value
	a.changed = true
}

func (e *htmlElement) render(b *strings.Builder) {
	pos := 0
	for _, a := range e.attrs {
		if !a.changed || a.added {
			continue
		}
		switch {
		case a.quote != 0:
			b.WriteString(e.raw[pos:a.valStart])
			b.WriteString(escapeAttr(a.value, a.quote))
			pos = a.valEnd
		case a.hasValue:
			b.WriteString(e.raw[pos:a.valStart])
			b.WriteString(`"` + escapeAttr(a.value, '"') + `"`)
			pos = a.valEnd
		default:
			b.WriteString(e.raw[pos:a.keyEnd])
			b.WriteString(`="` + escapeAttr(a.value, '"') + `"`)
			pos = a.keyEnd
		}
	}

	end := max(tagEnd(e.raw), e.lastAttrEnd(), pos)
	b.WriteString(e.raw[pos:end])
	for _, a := range e.attrs {
		if a.added {
			b.WriteString(" " + a.key + `="` + escapeAttr(a.value, '"') + `"`)
		}
	}
	b.WriteString(e.raw[end:])
}

// lastAttrEnd returns the offset just past the last attribute written in
// the raw tag, so an unquoted value ending in '/' is kept whole.
func (e *htmlElement) lastAttrEnd() int {
	end := 0
	for _, a := range e.attrs {
		switch {
		case a.added:
		case a.quote != 0:
			end = max(end, a.valEnd+1)
		case a.hasValue:
			end = max(end, a.valEnd)
		default:
			end = max(end, a.keyEnd)
		}
	}
	return end
}

// tagEnd returns the offset of the closing ">" or "/>" of a start tag.
func tagEnd(raw string) int {
	end := len(raw) - 1
	if end > 0 && raw[end-1] == '/' {
		end--
	}
	return end
}

func escapeAttr(v string, quote byte) string {
	switch quote {
	case '\'':
		return strings.ReplaceAll(v, "'", "&#39;")
	default:
		return strings.ReplaceAll(v, `"`, "&quot;")
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// lexAttrs locates the attributes of a complete raw start tag following
// the HTML tokenization rules for attribute names and values.
func lexAttrs(raw string) ([]*htmlAttr, error) {
	malformed := fmt.Errorf("%w: unterminated start tag %q", ErrMalformedMarkup, raw)

	i := 1
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	var attrs []*htmlAttr
	for {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) {
			return nil, malformed
		}
		if raw[i] == '>' {
			return attrs, nil
		}

		start := i
		if raw[i] == '=' {
			i++
		}
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		a := &htmlAttr{key: raw[start:i], keyEnd: i}

		j := skipSpace(raw, i)
		if j < len(raw) && raw[j] == '=' {
			j = skipSpace(raw, j+1)
			if j >= len(raw) {
				return nil, malformed
			}
			switch q := raw[j]; q {
			case '"', '\'':
				n := strings.IndexByte(raw[j+1:], q)
				if n < 0 {
					return nil, malformed
				}
				a.quote = q
				a.valStart, a.valEnd = j+1, j+1+n
				i = a.valEnd + 1
			default:
				a.valStart = j
				for j < len(raw) && !isSpace(raw[j]) && raw[j] != '>' {
					j++
				}
				a.valEnd = j
				i = j
			}
			a.hasValue = true
			a.value = raw[a.valStart:a.valEnd]
		}
		attrs = append(attrs, a)
	}
}
