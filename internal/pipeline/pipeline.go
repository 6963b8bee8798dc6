package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/humantouch/internal/document"
	"github.com/nao1215/humantouch/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence on the same FileTask.
type Step interface {
	// Do executes the step. A returned error ends the pipeline and marks
	// the task errored.
	Do(ctx context.Context, task *FileTask) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// FileTask carries one file through the pipeline.
// Each task is owned by a single goroutine.
type FileTask struct {
	// Path is the file being processed.
	Path string

	// State is the current lifecycle state.
	State model.State

	// Content is the original file content, set by ReadStep.
	Content string

	// Normalized is the normalizer output, set by NormalizeStep.
	Normalized document.Result

	// Written and BackedUp are set by PersistStep.
	Written  bool
	BackedUp bool

	// Err is the error that ended the pipeline, if any.
	Err error

	originalDigest   string
	normalizedDigest string
}

// NewFileTask creates a pending task for path.
func NewFileTask(path string) *FileTask {
	return &FileTask{Path: path, State: model.StatePending}
}

// Result converts the task into its immutable FileResult.
func (t *FileTask) Result() model.FileResult {
	r := model.FileResult{
		Path:             t.Path,
		Changes:          t.Normalized.Changes,
		Hazards:          t.Normalized.Hazards,
		Written:          t.Written,
		BackedUp:         t.BackedUp,
		State:            t.State,
		OriginalDigest:   t.originalDigest,
		NormalizedDigest: t.normalizedDigest,
	}
	if t.Normalized.Fallback != nil {
		r.Fallback = t.Normalized.Fallback.Error()
	}
	if t.Err != nil {
		r.Error = t.Err.Error()
		r.State = model.StateErrored
	}
	return r
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order and stops at the first failure, which
// is recorded on the task and returned.
//
// A file task is short and owns its path, so there is no cancellation
// point between steps.
func (p *Pipeline) Execute(ctx context.Context, task *FileTask) error {
	for _, step := range p.steps {
		p.logger.Debug("executing step",
			"step", step.Name(),
			"path", task.Path,
		)

		if err := step.Do(ctx, task); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"path", task.Path,
				"error", err,
			)
			task.Err = err
			task.State = model.StateErrored
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
