package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/nao1215/humantouch/internal/config"
	"github.com/nao1215/humantouch/internal/database"
	"github.com/nao1215/humantouch/internal/model"
	"github.com/nao1215/humantouch/internal/pipeline"
	"github.com/nao1215/humantouch/internal/report"
	"github.com/nao1215/humantouch/internal/storage"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [patterns...]",
		Short: "Normalize the files matching the given patterns",
		Long: `Run rewrites every file matching the patterns in place.

Text nodes and selected attribute values are normalized; script, style,
pre, code and contenteditable elements are left alone. Files without
changes are never written. Each run is recorded in the history database
unless --dry-run or --no-history is given.

The exit status is 1 when a file could not be processed, when no file
matched, or when --fail-on-hazards is set and invisible or bidirectional
characters were found.

Examples:
  # Normalize every HTML file below the current directory
  humantouch run

  # Preview changes for a build directory
  humantouch run --dry-run "dist/**/*.html"

  # Several patterns, with backups
  humantouch run --backup --patterns "a/*.html,b/**/*.htm"

  # Block bidi characters in CI and keep a Markdown report
  humantouch run --fail-on-hazards --markdown -o humantouch.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringSliceP("patterns", "p", nil,
		"Comma-separated glob patterns (default: **/*.html)")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Maximum number of files processed at once")
	cmd.Flags().BoolP("backup", "b", false,
		"Copy each file to <file>.bak before overwriting it")
	cmd.Flags().BoolP("aggressive", "a", false,
		"Also apply rules that may change meaning (currency, math symbols)")
	cmd.Flags().BoolP("dry-run", "d", false,
		"Show what would change without writing files")
	cmd.Flags().Bool("fail-on-hazards", false,
		"Exit with status 1 when invisible or bidirectional characters are found")

	cmd.Flags().StringSlice("exclude", nil,
		"Elements left untouched, as tag names or [attribute] selectors")
	cmd.Flags().StringSlice("attributes", nil,
		"Attributes whose values are normalized")
	cmd.Flags().StringSlice("disable-rule", nil,
		"Rules to switch off (see 'humantouch rules')")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print a progress line per file")

	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, err := buildRunConfig(cmd, args, logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	var progress pipeline.ProgressFunc
	if !quiet {
		errOut := cmd.ErrOrStderr()
		icons := report.IsTerminal(errOut)
		progress = func(r model.FileResult, done, total int) {
			fmt.Fprintln(errOut, report.FormatProgress(r, done, total, icons))
		}
	}

	ctx := commandContext(cmd)
	summary, err := executeRun(ctx, cfg, storage.NewOS(), logger, progress)
	if err != nil {
		return err
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", cfg.ReportFile)
	}

	if err := saveHistory(ctx, cfg, summary, logger); err != nil {
		logger.Warn("failed to record run", "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: run not recorded in history: %v\n", err)
	}

	if cfg.DryRun && summary.ChangedCount > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nTo apply the changes, run again without --dry-run.")
	}

	if summary.Failed() {
		return fmt.Errorf("%w: %s", errRunFailed, summary.FailureReason())
	}
	return nil
}

// buildRunConfig layers defaults, the configuration file, positional
// patterns and the flags the user actually set.
func buildRunConfig(cmd *cobra.Command, args []string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	patterns, err := flags.GetStringSlice("patterns")
	if err != nil {
		return nil, err
	}
	if len(args) > 0 || flags.Changed("patterns") {
		cfg.Patterns = slices.Concat(args, patterns)
	}

	if flags.Changed("concurrency") {
		if cfg.MaxConcurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}

	boolFlags := []struct {
		name   string
		target *bool
	}{
		{"backup", &cfg.Backup},
		{"aggressive", &cfg.Aggressive},
		{"dry-run", &cfg.DryRun},
		{"fail-on-hazards", &cfg.FailOnHazards},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.target, err = flags.GetBool(f.name); err != nil {
			return nil, err
		}
	}

	sliceFlags := []struct {
		name   string
		target *[]string
	}{
		{"exclude", &cfg.Exclude},
		{"attributes", &cfg.Attributes},
		{"disable-rule", &cfg.DisableRules},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.target, err = flags.GetStringSlice(f.name); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.NoHistory, err = flags.GetBool("no-history"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	return cfg, nil
}

// executeRun normalizes every file matching cfg.Patterns on fsys.
func executeRun(ctx context.Context, cfg *config.Config, fsys *storage.FS, logger *slog.Logger, progress pipeline.ProgressFunc) (model.BatchSummary, error) {
	normalizer, err := cfg.Normalizer()
	if err != nil {
		return model.BatchSummary{}, err
	}

	settings := pipeline.Settings{
		Normalizer: normalizer,
		Reader:     fsys,
		Writer:     fsys,
		Copier:     fsys,
		DryRun:     cfg.DryRun,
		Backup:     cfg.Backup,
		Logger:     logger,
	}
	opts := []pipeline.BatchOption{
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.MaxConcurrency),
		pipeline.WithFailOnHazards(cfg.FailOnHazards),
		pipeline.WithDryRun(cfg.DryRun),
		pipeline.WithLister(fsys),
	}
	if progress != nil {
		opts = append(opts, pipeline.WithProgress(progress))
	}

	bp := pipeline.NewBatchProcessor(func() *pipeline.Pipeline {
		return pipeline.NewFilePipeline(settings)
	}, opts...)

	logger.Info("starting run",
		"patterns", cfg.Patterns,
		"concurrency", cfg.MaxConcurrency,
		"aggressive", cfg.Aggressive,
		"backup", cfg.Backup,
		"dry_run", cfg.DryRun,
	)
	return bp.Run(ctx, cfg.Patterns)
}

// newReportWriter returns the writer for the report format chosen in cfg.
func newReportWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
			report.WithPatterns(cfg.Patterns),
		)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the summary to cfg.ReportFile, or to stdout when no
// file is set.
func outputReport(stdout io.Writer, cfg *config.Config, summary model.BatchSummary) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports list file paths and error messages, so only the owner can read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(output, cfg).Write(summary)
	return err
}

// saveHistory records a run in the history database. Dry runs, runs
// that matched nothing and runs with --no-history are not recorded.
func saveHistory(ctx context.Context, cfg *config.Config, summary model.BatchSummary, logger *slog.Logger) error {
	if cfg.DryRun || cfg.NoHistory || summary.TotalFiles == 0 {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, summary, cfg.Patterns)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", id, "database", db.Path())
	return nil
}
