package document

import "iter"

// Parser turns markup into a Tree.
//
// Exclusion is decided by the parser, once per node, from the chain of
// open elements at the point the node was read. A Parser returns an error
// when the markup cannot be represented faithfully; the Normalizer then
// falls back to plain-text normalization.
type Parser interface {
	Parse(markup string) (Tree, error)
}

// Tree is a parsed document that can be edited in place and rendered back.
// Untouched parts must render exactly as they were read.
type Tree interface {
	// TextNodes yields text-bearing nodes in document order.
	TextNodes() iter.Seq[TextNode]

	// Elements yields elements in document order.
	Elements() iter.Seq[Element]

	// Render serializes the tree, including every edit made so far.
	Render() string
}

// TextNode is a run of character data.
type TextNode interface {
	// Text returns the current content in its markup form; entities are
	// not decoded.
	Text() string

	// SetText replaces the content. It reports false, leaving the node
	// as it was, when the text cannot be written without changing the
	// document structure.
	SetText(text string) bool

	// Excluded reports whether the node lies inside an exclusion zone.
	Excluded() bool
}

// Element is a start tag and its attributes.
type Element interface {
	// Name returns the lower-cased element name.
	Name() string

	// Attr returns the value of the first attribute whose name matches key
	// case-insensitively. Valueless attributes report an empty value.
	Attr(key string) (string, bool)

	// SetAttr replaces the value of the first matching attribute, adding
	// the attribute when it is absent.
	SetAttr(key, value string)

	// Excluded reports whether the element is an exclusion zone or lies
	// inside one.
	Excluded() bool
}
