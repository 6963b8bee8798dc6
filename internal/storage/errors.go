package storage

import "errors"

// ErrInvalidPattern is returned by List for a malformed glob pattern,
// such as one with an unclosed '[' or '{'.
var ErrInvalidPattern = errors.New("invalid glob pattern")
