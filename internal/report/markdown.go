package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/humantouch/internal/hazard"
	htlog "github.com/nao1215/humantouch/internal/log"
	"github.com/nao1215/humantouch/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs the summary as GitHub-flavored Markdown, suitable
// for a pull request comment or a CI job summary.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary model.BatchSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeHazards(md, summary)
	w.writeFindings(md, summary)
	w.writeFiles(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s model.BatchSummary) {
	md.H1("humantouch Report")
	md.PlainText("")

	rows := [][]string{}
	if !s.StartedAt.IsZero() {
		rows = append(rows,
			[]string{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			[]string{"Elapsed", s.Elapsed.String()},
		)
	}
	mode := "write"
	if s.DryRun {
		mode = "dry run"
	}
	rows = append(rows,
		[]string{"Mode", mode},
		[]string{"Files", strconv.Itoa(s.TotalFiles)},
		[]string{"Processed", strconv.Itoa(s.ProcessedCount)},
		[]string{"Changed", strconv.Itoa(s.ChangedCount)},
		[]string{"Errors", strconv.Itoa(s.ErrorCount)},
		[]string{"Changes", strconv.Itoa(s.TotalChanges)},
		[]string{"Status", statusText(s)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(s model.BatchSummary) string {
	if s.Failed() {
		return "❌ Failed - " + s.FailureReason()
	}
	return "✅ OK"
}

func (w *MarkdownWriter) writeHazards(md *markdown.Markdown, s model.BatchSummary) {
	md.H2("Hazards")
	md.PlainText("")

	rows := make([][]string, 0, len(hazard.Categories)+1)
	for _, c := range hazard.Categories {
		rows = append(rows, []string{"`" + c.String() + "`", strconv.Itoa(s.HazardTotals.Get(c))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(s.HazardTotals.Total()) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.HazardTotals.Total() > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.BatchSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Hazard Distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range hazard.Categories {
		if n := s.HazardTotals.Get(c); n > 0 {
			chart.LabelAndIntValue(c.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.BatchSummary) {
	switch {
	case s.TotalFiles == 0:
		md.Warningf("%s.", model.MessageNoFiles)
	case s.HazardTotals.InvisibleBidi > 0:
		md.Cautionf(
			"%d invisible or bidirectional control character(s) found. Review the affected files before merging.",
			s.HazardTotals.InvisibleBidi,
		)
	case s.ErrorCount > 0:
		md.Warningf("%d file(s) could not be processed.", s.ErrorCount)
	case s.HazardTotals.Total() > 0:
		md.Note("Only formatting hazards were found.")
	default:
		md.Tip("No hazards found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, s model.BatchSummary) {
	findings := s.Findings()
	if len(findings) == 0 {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			severityBadge(f.Severity) + " " + f.SeverityText,
			f.Title,
			strconv.Itoa(f.Count),
			strconv.Itoa(len(f.Files)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Hazard", "Count", "Files"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		md.Details(f.Title, f.Impact+" "+f.Recommendation)
	}
	md.PlainText("")
}

func severityBadge(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityHigh:
		return "🟠"
	case model.SeverityMedium:
		return "🟡"
	case model.SeverityLow:
		return "🔵"
	default:
		return "⚪"
	}
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, s model.BatchSummary) {
	md.H2("Files")
	md.PlainText("")

	var rows [][]string
	for _, r := range s.Results {
		if r.State == model.StateSkipped {
			continue
		}
		note := "-"
		switch {
		case r.Errored():
			note = tableCell(r.Error)
		case r.BackedUp:
			note = "backed up"
		case r.Fallback != "":
			note = "plain-text fallback"
		}
		rows = append(rows, []string{
			"`" + tableCell(r.Path) + "`",
			r.State.String(),
			strconv.Itoa(r.Changes),
			strconv.Itoa(r.Hazards.Total()),
			note,
		})
	}
	if len(rows) == 0 {
		md.PlainText("No file needed changes.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "State", "Changes", "Hazards", "Note"},
		Rows:   rows,
	})
	md.PlainText("")
}

// tableCell escapes control characters and pipes so a value cannot break
// out of its table cell.
func tableCell(s string) string {
	return strings.ReplaceAll(htlog.Escape(s), "|", `\|`)
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [humantouch](https://github.com/nao1215/humantouch)*")
}
