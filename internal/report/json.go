package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/humantouch/internal/model"
)

// JSONWriter outputs the summary as a single JSON document for CI and
// other tools.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version is recorded in the document when set.
	version string

	// patterns are the patterns the run was started with.
	patterns []string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// WithPatterns records the patterns of the run in the document.
func WithPatterns(patterns []string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.patterns = patterns
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	Tool          string                `json:"tool"`
	Version       string                `json:"version,omitempty"`
	Patterns      []string              `json:"patterns,omitempty"`
	ExitCode      int                   `json:"exit_code"`
	FailureReason string                `json:"failure_reason,omitempty"`
	Findings      []model.HazardFinding `json:"findings"`
	Summary       model.BatchSummary    `json:"summary"`
}

// NewJSONReport wraps a summary with the derived fields of the document.
func NewJSONReport(summary model.BatchSummary, version string, patterns []string) JSONReport {
	findings := summary.Findings()
	if findings == nil {
		findings = []model.HazardFinding{}
	}
	if summary.Results == nil {
		summary.Results = []model.FileResult{}
	}
	return JSONReport{
		Tool:          "humantouch",
		Version:       version,
		Patterns:      patterns,
		ExitCode:      summary.ExitCode(),
		FailureReason: summary.FailureReason(),
		Findings:      findings,
		Summary:       summary,
	}
}

// Write outputs the summary in JSON format followed by a newline.
func (w *JSONWriter) Write(summary model.BatchSummary) (int, error) {
	return w.writeJSON(NewJSONReport(summary, w.version, w.patterns))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
