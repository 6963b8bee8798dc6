// Package document normalizes the text-bearing parts of HTML documents.
//
// A Normalizer parses markup through a Parser, runs the replacement engine
// over every text node and over a configured set of attributes, and
// renders the document back. Subtrees inside an exclusion zone are never
// touched. The default zones are script, style, pre, code and any element
// carrying contenteditable.
//
// The default HTMLParser keeps the raw bytes of every token. Anything the
// normalizer does not rewrite comes out exactly as it went in: entity
// spellings, attribute quoting, attribute name case, comments and
// whitespace.
//
// When the markup cannot be parsed the whole input is normalized as plain
// text and Result.Fallback carries the reason. Normalize never fails on
// malformed markup; it only rejects input that is not valid UTF-8.
//
// # Usage
//
//	n := document.NewNormalizer(
//		document.WithAttributes([]string{"title", "alt"}),
//		document.WithAggressive(false),
//	)
//	res, err := n.Normalize(`<p title="It’s">Wait…</p>`)
//	// res.Markup == `<p title="It's">Wait...</p>`
package document
