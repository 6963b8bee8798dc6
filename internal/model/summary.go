package model

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/nao1215/humantouch/internal/hazard"
)

// MessageNoFiles is the summary message of a batch that matched no files.
const MessageNoFiles = "no files matched the given patterns"

// BatchSummary aggregates the results of a batch run.
// It is built once, after every task reached a terminal state.
type BatchSummary struct {
	// TotalFiles is the number of files in the batch.
	TotalFiles int `json:"total_files"`

	// ProcessedCount counts files that did not error.
	ProcessedCount int `json:"processed_count"`

	// ChangedCount counts files with at least one change.
	ChangedCount int `json:"changed_count"`

	// ErrorCount counts files that errored.
	ErrorCount int `json:"error_count"`

	// TotalChanges sums the changes of every file.
	TotalChanges int `json:"total_changes"`

	// HazardTotals sums hazard counts per category.
	HazardTotals hazard.Counts `json:"hazard_totals"`

	// ShouldFail is true when the hazard policy was triggered.
	ShouldFail bool `json:"should_fail"`

	// Success is true when nothing errored, the hazard policy was not
	// triggered and at least one file was processed.
	Success bool `json:"success"`

	// Message explains a non-success outcome that has no per-file cause.
	Message string `json:"message,omitempty"`

	// DryRun is true when no file was written.
	DryRun bool `json:"dry_run"`

	// Results holds one result per file in input order.
	Results []FileResult `json:"results"`

	// StartedAt and Elapsed time the batch.
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SummaryOptions carries the policies that shape a summary.
type SummaryOptions struct {
	// FailOnHazards fails the batch when any invisible or bidi character
	// was found.
	FailOnHazards bool

	// DryRun marks the summary as a preview.
	DryRun bool
}

// Summarize folds results into a summary. Every aggregate is a sum or a
// count, so the order of results does not affect the totals.
//
// A batch without files is not a success and carries MessageNoFiles.
func Summarize(results []FileResult, opts SummaryOptions) BatchSummary {
	s := BatchSummary{
		TotalFiles: len(results),
		DryRun:     opts.DryRun,
		Results:    slices.Clone(results),
	}

	for _, r := range results {
		if r.Errored() {
			s.ErrorCount++
			continue
		}
		s.ProcessedCount++
		if r.Changes > 0 {
			s.ChangedCount++
		}
		s.TotalChanges += r.Changes
		s.HazardTotals = s.HazardTotals.Add(r.Hazards.Counts())
	}

	s.ShouldFail = opts.FailOnHazards && s.HazardTotals.InvisibleBidi > 0
	s.Success = !s.ShouldFail && s.ErrorCount == 0

	if s.TotalFiles == 0 {
		s.Success = false
		s.Message = MessageNoFiles
	}
	return s
}

// Failed reports whether the batch should exit nonzero.
func (s BatchSummary) Failed() bool {
	return s.ShouldFail || !s.Success
}

// ExitCode returns the process exit status for the batch.
func (s BatchSummary) ExitCode() int {
	if s.Failed() {
		return 1
	}
	return 0
}

// FailureReason describes why the batch failed, or returns "" on success.
// Errored files and the hazard policy are reported separately.
func (s BatchSummary) FailureReason() string {
	switch {
	case !s.Failed():
		return ""
	case s.Message != "":
		return s.Message
	case s.ErrorCount > 0 && s.ShouldFail:
		return fmt.Sprintf("%d file(s) failed and %d invisible/bidi character(s) were found",
			s.ErrorCount, s.HazardTotals.InvisibleBidi)
	case s.ErrorCount > 0:
		return fmt.Sprintf("%d file(s) failed", s.ErrorCount)
	default:
		return fmt.Sprintf("%d invisible/bidi character(s) were found", s.HazardTotals.InvisibleBidi)
	}
}

// ResultsByState returns the results in the given state.
func (s BatchSummary) ResultsByState(state State) []FileResult {
	var out []FileResult
	for _, r := range s.Results {
		if r.State == state {
			out = append(out, r)
		}
	}
	return out
}

// HazardFinding is one hazard category with its batch total.
type HazardFinding struct {
	Category       hazard.Category `json:"category"`
	Severity       Severity        `json:"severity"`
	SeverityText   string          `json:"severity_text"`
	Title          string          `json:"title"`
	Impact         string          `json:"impact"`
	Recommendation string          `json:"recommendation"`
	Count          int             `json:"count"`

	// Files lists the files containing the hazard.
	Files []string `json:"files,omitempty"`
}

// Findings returns one finding per hazard category with a nonzero total,
// most severe first.
func (s BatchSummary) Findings() []HazardFinding {
	var findings []HazardFinding
	for _, c := range hazard.Categories {
		count := s.HazardTotals.Get(c)
		if count == 0 {
			continue
		}
		info := GetHazardInfo(c)
		f := HazardFinding{
			Category:       c,
			Severity:       info.Severity,
			SeverityText:   info.Severity.String(),
			Title:          info.Title,
			Impact:         info.Impact,
			Recommendation: info.Recommendation,
			Count:          count,
		}
		for _, r := range s.Results {
			if !r.Errored() && r.Hazards.Get(c).Count > 0 {
				f.Files = append(f.Files, r.Path)
			}
		}
		findings = append(findings, f)
	}
	slices.SortStableFunc(findings, func(a, b HazardFinding) int {
		return cmp.Compare(b.Severity, a.Severity)
	})
	return findings
}
