// Package hazard detects character patterns that are risky for security or
// rendering in text and raw HTML markup.
//
// Three categories are reported:
//   - invisible_bidi: zero-width, word-joiner, byte-order-mark and
//     bidirectional control code points ("trojan source" characters)
//   - smart_quotes_in_attribute: curly quotes inside the value of a
//     content, data-*, alt or title attribute, scanned on raw markup
//   - consecutive_nbsp: runs of two or more &nbsp; entities separated only
//     by whitespace
//
// Detection is a pure function of its input. Offsets are byte offsets into
// the scanned string.
//
// # Usage
//
//	report, err := hazard.Detect(text)
//	if err != nil {
//	    return err // hazard.ErrInvalidInput for non UTF-8 input
//	}
//	if report.HasSignificant() {
//	    fmt.Println(report.Total(), "hazards")
//	}
package hazard
