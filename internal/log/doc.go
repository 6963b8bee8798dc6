// Package log builds slog loggers whose output cannot be reordered by the
// text it logs.
//
// SafeHandler escapes zero-width characters, bidirectional controls and
// the C0/C1 control characters (tab and newline excepted) as \uXXXX in
// the message and in string and error attributes:
//
//	logger := log.NewSafeLogger(os.Stderr, verbose)
//	logger.Warn("file failed", "path", path) // a U+202E in path prints as \u202E
//
// Verbose loggers log at Debug, the others at Warn.
package log
