package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/humantouch/internal/hazard"
	htlog "github.com/nao1215/humantouch/internal/log"
	"github.com/nao1215/humantouch/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs a plain text summary for terminals and logs.
// Icons and colors are only used when the output is a terminal, unless
// overridden with WithIcons and WithColor.
type SimpleWriter struct {
	baseWriter

	// icons replaces the bracketed state labels with symbols.
	icons bool

	// color highlights the status line and severities with ANSI colors.
	color bool

	// verbose lists skipped files and the recommendation of each finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithIcons forces icons on or off.
func WithIcons(icons bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.icons = icons
	}
}

// WithColor forces ANSI colors on or off.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.color = enabled
	}
}

// WithVerbose enables additional detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	tty := IsTerminal(output)
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		icons:      tty,
		color:      tty,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary model.BatchSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeHazards(&sb, summary)
	w.writeFiles(&sb, summary)
	w.writeStatus(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if w.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s model.BatchSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        HUMANTOUCH SUMMARY\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	if !s.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(sb, "Elapsed:   %s\n", s.Elapsed.Round(time.Millisecond))
	}
	mode := "write"
	if s.DryRun {
		mode = "dry run (no files written)"
	}
	fmt.Fprintf(sb, "Mode:      %s\n", mode)
	fmt.Fprintf(sb, "Files:     %d (processed %d, changed %d, errors %d)\n",
		s.TotalFiles, s.ProcessedCount, s.ChangedCount, s.ErrorCount)
	fmt.Fprintf(sb, "Changes:   %d\n\n", s.TotalChanges)
}

func (w *SimpleWriter) writeHazards(sb *strings.Builder, s model.BatchSummary) {
	section(sb, "HAZARDS")

	for _, c := range hazard.Categories {
		fmt.Fprintf(sb, "  %-27s %d\n", c.String()+":", s.HazardTotals.Get(c))
	}
	sb.WriteString("\n")

	for _, f := range s.Findings() {
		fmt.Fprintf(sb, "[%s] %s %s (%d)\n",
			w.paint(severityIndicator(f.Severity), severityColor(f.Severity)...),
			f.SeverityText, f.Title, f.Count)
		for _, path := range f.Files {
			fmt.Fprintf(sb, "    %s\n", htlog.Escape(path))
		}
		if w.verbose {
			fmt.Fprintf(sb, "    Impact: %s\n", f.Impact)
			fmt.Fprintf(sb, "    Recommendation: %s\n", f.Recommendation)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFiles(sb *strings.Builder, s model.BatchSummary) {
	var lines []string
	for _, r := range s.Results {
		if r.State == model.StateSkipped && !w.verbose {
			continue
		}
		lines = append(lines, "  "+FormatResult(r, w.icons))
	}
	if len(lines) == 0 {
		return
	}

	section(sb, "FILES")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeStatus(sb *strings.Builder, s model.BatchSummary) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	if s.Failed() {
		fmt.Fprintf(sb, "Status: %s\n", w.paint("FAILED - "+s.FailureReason(), color.FgRed, color.Bold))
	} else {
		fmt.Fprintf(sb, "Status: %s\n", w.paint("OK", color.FgGreen, color.Bold))
	}
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// FormatResult renders one file result on a single line.
// The path is escaped so that control characters in file names cannot
// reach the terminal.
func FormatResult(r model.FileResult, icons bool) string {
	var sb strings.Builder
	if icons {
		sb.WriteString(stateIcon(r.State))
		sb.WriteString(" ")
	} else {
		fmt.Fprintf(&sb, "[%s] ", r.State)
	}
	sb.WriteString(htlog.Escape(r.Path))

	if r.Errored() {
		fmt.Fprintf(&sb, ": %s", htlog.Escape(r.Error))
		return sb.String()
	}

	var details []string
	if r.Changes > 0 {
		details = append(details, plural(r.Changes, "change"))
	}
	if n := r.Hazards.Total(); n > 0 {
		details = append(details, plural(n, "hazard"))
	}
	if r.BackedUp {
		details = append(details, "backed up")
	}
	if r.Fallback != "" {
		details = append(details, "plain-text fallback")
	}
	if len(details) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(details, ", "))
	}
	return sb.String()
}

// FormatProgress renders a progress line such as "[3/10] [written] a.html (2 changes)".
func FormatProgress(r model.FileResult, done, total int, icons bool) string {
	return fmt.Sprintf("[%d/%d] %s", done, total, FormatResult(r, icons))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func stateIcon(s model.State) string {
	switch s {
	case model.StateWritten:
		return "✏️"
	case model.StatePreviewed:
		return "👀"
	case model.StateSkipped:
		return "⏭️"
	case model.StateErrored:
		return "❌"
	default:
		return "…"
	}
}

func severityIndicator(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func severityColor(s model.Severity) []color.Attribute {
	switch s {
	case model.SeverityCritical:
		return []color.Attribute{color.FgRed, color.Bold}
	case model.SeverityHigh:
		return []color.Attribute{color.FgRed}
	case model.SeverityMedium:
		return []color.Attribute{color.FgYellow}
	default:
		return []color.Attribute{color.FgCyan}
	}
}
