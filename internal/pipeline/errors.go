package pipeline

import "errors"

// ErrNoLister is returned when patterns are expanded without a Lister.
var ErrNoLister = errors.New("no file lister configured")
