package report

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nao1215/humantouch/internal/model"
)

// Writer renders a batch summary to some destination.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary model.BatchSummary) (int, error)
}

// MultiWriter writes the same summary to several Writers in order.
// It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer and returns the total bytes written.
func (m *MultiWriter) Write(summary model.BatchSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// IsTerminal reports whether w is a terminal. Only *os.File values can be.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
