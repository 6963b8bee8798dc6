package hazard

import "errors"

// ErrInvalidInput is returned when the text handed to a detection or
// normalization function is not valid UTF-8. It is never recovered
// internally; callers decide what to do with the input.
var ErrInvalidInput = errors.New("invalid input: text is not valid UTF-8")
