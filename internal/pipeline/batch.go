package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/humantouch/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files processed at once.
const DefaultConcurrency = 8

// ProgressFunc is called after each file with the number of files done so
// far. Calls are serialized.
type ProgressFunc func(result model.FileResult, done, total int)

// BatchProcessor runs a fresh pipeline for every file on a bounded pool of
// goroutines and folds the results into a summary once all are done.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each file.
	pipelineFactory func() *Pipeline

	concurrency   int
	logger        *slog.Logger
	failOnHazards bool
	dryRun        bool
	progress      ProgressFunc
	lister        Lister

	// mu serializes progress callbacks.
	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent files.
// Non-positive values keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithFailOnHazards fails the summary when invisible or bidi characters
// were found.
func WithFailOnHazards(fail bool) BatchOption {
	return func(b *BatchProcessor) {
		b.failOnHazards = fail
	}
}

// WithDryRun marks summaries as previews.
func WithDryRun(dryRun bool) BatchOption {
	return func(b *BatchProcessor) {
		b.dryRun = dryRun
	}
}

// WithProgress registers a per-file progress callback.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// WithLister sets the Lister used by Run and CollectFiles.
func WithLister(lister Lister) BatchOption {
	return func(b *BatchProcessor) {
		b.lister = lister
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessOne runs the pipeline for a single file. Failures are reported
// in the result, never returned.
func (bp *BatchProcessor) ProcessOne(ctx context.Context, path string) model.FileResult {
	task := NewFileTask(path)
	if err := bp.pipelineFactory().Execute(ctx, task); err != nil {
		bp.logger.Warn("file failed",
			"path", path,
			"error", err,
		)
	}
	result := task.Result()
	bp.logger.Debug("file processed",
		"path", path,
		"state", result.State.String(),
		"changes", result.Changes,
		"hazards", result.Hazards.Total(),
	)
	return result
}

// ProcessMany processes paths with at most the configured number of
// goroutines. Results keep the order of paths.
func (bp *BatchProcessor) ProcessMany(ctx context.Context, paths []string) model.BatchSummary {
	bp.logger.Info("starting batch processing",
		"total_files", len(paths),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]model.FileResult, len(paths))
	done := 0

	var g errgroup.Group
	g.SetLimit(bp.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = bp.ProcessOne(ctx, path)
			if bp.progress != nil {
				bp.mu.Lock()
				done++
				bp.progress(results[i], done, len(paths))
				bp.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	summary := model.Summarize(results, model.SummaryOptions{
		FailOnHazards: bp.failOnHazards,
		DryRun:        bp.dryRun,
	})
	summary.StartedAt = startTime
	summary.Elapsed = time.Since(startTime)

	bp.logger.Info("batch processing complete",
		"total_files", summary.TotalFiles,
		"changed", summary.ChangedCount,
		"errors", summary.ErrorCount,
		"elapsed", summary.Elapsed,
	)
	return summary
}

// CollectFiles expands patterns into a sorted list of unique paths.
func (bp *BatchProcessor) CollectFiles(patterns []string) ([]string, error) {
	if bp.lister == nil {
		return nil, ErrNoLister
	}
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := bp.lister.List(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Run expands patterns and processes every matching file. When nothing
// matches, the summary is not a success and carries
// model.MessageNoFiles. Only pattern errors are returned.
func (bp *BatchProcessor) Run(ctx context.Context, patterns []string) (model.BatchSummary, error) {
	files, err := bp.CollectFiles(patterns)
	if err != nil {
		return model.BatchSummary{}, err
	}
	if len(files) == 0 {
		bp.logger.Warn("no files matched", "patterns", patterns)
	}
	return bp.ProcessMany(ctx, files), nil
}
