package document

import (
	"errors"

	"github.com/nao1215/humantouch/internal/hazard"
)

var (
	// ErrInvalidInput is returned when the markup is not valid UTF-8.
	// It is the same value as hazard.ErrInvalidInput.
	ErrInvalidInput = hazard.ErrInvalidInput

	// ErrInvalidExclusionZone is returned by ParseExclusionZone for a
	// selector that is neither an element name nor "[attribute]".
	ErrInvalidExclusionZone = errors.New("invalid exclusion zone")

	// ErrMalformedMarkup is returned by HTMLParser when the markup cannot
	// be tokenized without losing bytes, typically a tag or quoted
	// attribute value cut off at the end of the input.
	ErrMalformedMarkup = errors.New("malformed markup")
)
