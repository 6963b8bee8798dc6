package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/nao1215/humantouch/internal/document"
	"github.com/nao1215/humantouch/internal/model"
	"golang.org/x/crypto/sha3"
)

// BackupSuffix is appended to a path to name its backup copy.
const BackupSuffix = ".bak"

// Lister expands a glob pattern into file paths.
type Lister interface {
	List(pattern string) ([]string, error)
}

// Reader reads a whole file as text.
type Reader interface {
	ReadFile(path string) (string, error)
}

// Writer replaces the content of a file.
type Writer interface {
	WriteFile(path, content string) error
}

// Copier copies a file, replacing the destination.
type Copier interface {
	Copy(src, dst string) error
}

func digest(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ReadStep loads the file content.
type ReadStep struct {
	reader Reader
}

// NewReadStep creates a ReadStep.
func NewReadStep(reader Reader) *ReadStep {
	return &ReadStep{reader: reader}
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads task.Path into task.Content.
func (s *ReadStep) Do(_ context.Context, task *FileTask) error {
	task.State = model.StateReading
	content, err := s.reader.ReadFile(task.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", task.Path, err)
	}
	task.Content = content
	task.originalDigest = digest(content)
	return nil
}

// NormalizeStep runs the document normalizer over the content.
type NormalizeStep struct {
	normalizer *document.Normalizer
	logger     *slog.Logger
}

// NewNormalizeStep creates a NormalizeStep. A nil normalizer uses the
// defaults of document.NewNormalizer.
func NewNormalizeStep(normalizer *document.Normalizer, logger *slog.Logger) *NormalizeStep {
	if normalizer == nil {
		normalizer = document.NewNormalizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizeStep{normalizer: normalizer, logger: logger}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do normalizes task.Content into task.Normalized.
func (s *NormalizeStep) Do(_ context.Context, task *FileTask) error {
	task.State = model.StateNormalizing
	res, err := s.normalizer.Normalize(task.Content)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", task.Path, err)
	}
	if res.Fallback != nil {
		s.logger.Warn("markup parse failed, using plain-text fallback",
			"path", task.Path,
			"error", res.Fallback,
		)
	}
	task.Normalized = res
	task.normalizedDigest = digest(res.Markup)
	return nil
}

// PersistStep decides the terminal state of the task and, outside of
// dry runs, backs up and rewrites changed files.
type PersistStep struct {
	writer Writer
	copier Copier
	dryRun bool
	backup bool
}

// NewPersistStep creates a PersistStep. The copier is only used when
// backup is true.
func NewPersistStep(writer Writer, copier Copier, dryRun, backup bool) *PersistStep {
	return &PersistStep{writer: writer, copier: copier, dryRun: dryRun, backup: backup}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do applies the write policy:
//   - no changes and no hazards: skipped
//   - dry run: previewed
//   - changes: backed up when requested, then written
//   - hazards without changes: skipped
func (s *PersistStep) Do(_ context.Context, task *FileTask) error {
	changes := task.Normalized.Changes
	switch {
	case changes == 0 && !task.Normalized.Hazards.HasSignificant():
		task.State = model.StateSkipped
		return nil
	case s.dryRun:
		task.State = model.StatePreviewed
		return nil
	case changes == 0:
		task.State = model.StateSkipped
		return nil
	}

	if s.backup {
		if err := s.copier.Copy(task.Path, task.Path+BackupSuffix); err != nil {
			return fmt.Errorf("backup %s: %w", task.Path, err)
		}
		task.BackedUp = true
	}
	if err := s.writer.WriteFile(task.Path, task.Normalized.Markup); err != nil {
		return fmt.Errorf("write %s: %w", task.Path, err)
	}
	task.Written = true
	task.State = model.StateWritten
	return nil
}

// Settings wires the collaborators of a per-file pipeline.
type Settings struct {
	Normalizer *document.Normalizer
	Reader     Reader
	Writer     Writer
	Copier     Copier
	DryRun     bool
	Backup     bool
	Logger     *slog.Logger
}

// NewFilePipeline builds the read, normalize and persist pipeline.
func NewFilePipeline(s Settings) *Pipeline {
	p := New(WithLogger(s.Logger))
	p.AddSteps(
		NewReadStep(s.Reader),
		NewNormalizeStep(s.Normalizer, s.Logger),
		NewPersistStep(s.Writer, s.Copier, s.DryRun, s.Backup),
	)
	return p
}
