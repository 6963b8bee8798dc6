// Package main provides the entry point for the humantouch CLI.
//
// humantouch rewrites AI-flavored typography in HTML files into plain
// ASCII: curly quotes, long dashes, ellipses, non-breaking and invisible
// characters. It also reports hazards such as bidi overrides that should
// never ship in a page.
//
// Usage:
//
//	humantouch run "site/**/*.html"
//	humantouch run --dry-run --fail-on-hazards
//	echo "it’s done" | humantouch text
//
// See --help for all available options.
package main

func main() {
	Execute()
}
