package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/humantouch/internal/config"
	"github.com/nao1215/humantouch/internal/database"
	htlog "github.com/nao1215/humantouch/internal/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `History lists the runs recorded by 'humantouch run', newest first.

Examples:
  # List the latest runs
  humantouch history

  # Show the full summary of run 12
  humantouch history --show 12

  # Follow one file across runs
  humantouch history --file site/index.html

  # Delete runs older than 30 days
  humantouch history --prune-before 720h

  # Delete runs started before a date
  humantouch history --prune-before 2025-01-01`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().Int64P("show", "s", 0, "Print the stored summary of the run with this ID")
	cmd.Flags().StringP("file", "f", "", "List the recorded results of one file")
	cmd.Flags().String("prune-before", "",
		"Delete runs started before a date (YYYY-MM-DD) or older than a duration (e.g. 720h)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output the summary of --show in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if prune, err := flags.GetString("prune-before"); err != nil {
		return err
	} else if prune != "" {
		cutoff, err := parseCutoff(prune, time.Now())
		if err != nil {
			return err
		}
		n, err := db.PruneBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d run(s) started before %s\n", n, cutoff.Format(time.RFC3339))
		return nil
	}

	if id, err := flags.GetInt64("show"); err != nil {
		return err
	} else if id > 0 {
		return showRun(ctx, out, db, id, jsonOutput, markdownOutput)
	}

	if path, err := flags.GetString("file"); err != nil {
		return err
	} else if path != "" {
		return showFileHistory(ctx, out, db, path, jsonOutput)
	}

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(ctx, out, db, limit, jsonOutput)
}

// parseCutoff accepts a date, an RFC 3339 timestamp or a duration
// counted back from now.
func parseCutoff(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --prune-before value %q (expected YYYY-MM-DD or a duration such as 720h)", s)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "STARTED", "FILES", "CHANGED", "ERRORS", "CHANGES", "HAZARDS", "STATUS", "PATTERNS")
	for _, r := range runs {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		if err := table.Append(
			strconv.FormatInt(r.ID, 10),
			humanize.Time(r.StartedAt),
			humanize.Comma(int64(r.TotalFiles)),
			strconv.Itoa(r.ChangedCount),
			strconv.Itoa(r.ErrorCount),
			humanize.Comma(int64(r.TotalChanges)),
			strconv.Itoa(r.HazardTotal),
			status,
			htlog.Escape(strings.Join(r.Patterns, ", ")),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, jsonOutput, markdownOutput bool) error {
	summary, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	cfg := &config.Config{JSONReport: jsonOutput, MarkdownReport: markdownOutput}
	_, err = newReportWriter(out, cfg).Write(*summary)
	return err
}

func showFileHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, path string, jsonOutput bool) error {
	records, err := db.FileHistory(ctx, path)
	if err != nil {
		return err
	}
	if jsonOutput {
		if records == nil {
			records = []database.FileRecord{}
		}
		return writeJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s.\n", htlog.Escape(path))
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("RUN", "STARTED", "STATE", "CHANGES", "HAZARDS", "DIGEST", "ERROR")
	for _, r := range records {
		if err := table.Append(
			strconv.FormatInt(r.RunID, 10),
			humanize.Time(r.StartedAt),
			r.State,
			strconv.Itoa(r.Changes),
			strconv.Itoa(r.Hazards),
			shortDigest(r.NormalizedDigest),
			htlog.Escape(r.Error),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// shortDigest returns the first 12 hex digits of a digest.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
