// Package report renders batch summaries.
//
// Three writers implement the Writer interface:
//   - SimpleWriter: text for the terminal, with icons and colors only on a TTY
//   - JSONWriter: a single JSON document for CI and other tools
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid pie chart
//
// File paths are escaped before they are printed, so a file name holding
// bidi overrides cannot reorder the report it appears in.
package report
