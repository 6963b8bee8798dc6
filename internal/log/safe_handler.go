package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
)

// unsafeChars matches the C0 and C1 control characters other than tab and
// newline, plus the zero-width and bidirectional control characters.
// Printed raw, any of them can reorder or hide the text around it in a
// terminal.
var unsafeChars = regexp.MustCompile(
	`[\x00-\x08\x0B-\x1F\x7F-\x{9F}\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2060}-\x{2069}\x{FEFF}]`,
)

// Escape replaces every unsafe character in s with its \uXXXX form.
func Escape(s string) string {
	return unsafeChars.ReplaceAllStringFunc(s, func(m string) string {
		return fmt.Sprintf(`\u%04X`, []rune(m)[0])
	})
}

// SafeHandler wraps an slog.Handler and escapes unsafe characters in the
// message and in every string or error attribute before the record
// reaches the underlying handler.
//
// File names and snippets logged while scanning come from untrusted
// documents, so a right-to-left override inside them would otherwise
// reach the terminal.
type SafeHandler struct {
	handler slog.Handler
}

// NewSafeHandler creates a SafeHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSafeHandler(handler slog.Handler) *SafeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SafeHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SafeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle escapes the record and passes it on.
func (h *SafeHandler) Handle(ctx context.Context, r slog.Record) error {
	escaped := slog.NewRecord(r.Time, r.Level, Escape(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		escaped.AddAttrs(escapeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, escaped)
}

// WithAttrs returns a new handler with the escaped attributes added.
func (h *SafeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	escaped := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		escaped[i] = escapeAttr(a)
	}
	return &SafeHandler{handler: h.handler.WithAttrs(escaped)}
}

// WithGroup returns a new handler with the given group name.
func (h *SafeHandler) WithGroup(name string) slog.Handler {
	return &SafeHandler{handler: h.handler.WithGroup(name)}
}

func escapeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		escaped := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			escaped[i] = escapeAttr(ga)
		}
		return slog.Attr{Key: Escape(a.Key), Value: slog.GroupValue(escaped...)}
	case slog.KindString:
		return slog.String(Escape(a.Key), Escape(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(Escape(a.Key), Escape(err.Error()))
		}
		if ss, ok := a.Value.Any().([]string); ok {
			out := make([]string, len(ss))
			for i, s := range ss {
				out[i] = Escape(s)
			}
			return slog.Any(Escape(a.Key), out)
		}
	}
	a.Key = Escape(a.Key)
	return a
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSafeLogger creates a text logger writing to w. Verbose lowers the
// level from Warn to Debug.
func NewSafeLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(verbose)}
	return slog.New(NewSafeHandler(slog.NewTextHandler(w, opts)))
}

// NewSafeJSONLogger is like NewSafeLogger but writes JSON lines.
func NewSafeJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(verbose)}
	return slog.New(NewSafeHandler(slog.NewJSONHandler(w, opts)))
}
