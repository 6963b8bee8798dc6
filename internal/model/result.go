package model

import (
	"fmt"

	"github.com/nao1215/humantouch/internal/hazard"
)

// State is the lifecycle state of one file task.
//
// A task moves Pending → Reading → Normalizing and then reaches exactly
// one terminal state: Skipped, Previewed, Written or Errored.
type State int

const (
	// StatePending means the task has not started.
	StatePending State = iota
	// StateReading means the file is being read.
	StateReading
	// StateNormalizing means the content is being normalized.
	StateNormalizing
	// StateSkipped means there was nothing to write.
	StateSkipped
	// StatePreviewed means changes were computed in a dry run.
	StatePreviewed
	// StateWritten means the normalized content was written.
	StateWritten
	// StateErrored means reading, copying or writing failed.
	StateErrored
)

var stateNames = map[State]string{
	StatePending:     "pending",
	StateReading:     "reading",
	StateNormalizing: "normalizing",
	StateSkipped:     "skipped",
	StatePreviewed:   "previewed",
	StateWritten:     "written",
	StateErrored:     "errored",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s >= StateSkipped && s <= StateErrored
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// FileResult is the outcome of processing one file.
// It is created once per task and not modified afterwards.
type FileResult struct {
	// Path is the processed file.
	Path string `json:"path"`

	// Changes is the number of rewrites the normalizer made.
	Changes int `json:"changes"`

	// Hazards were detected in the original content.
	Hazards hazard.Report `json:"hazards"`

	// Written is true when the file was overwritten.
	Written bool `json:"written"`

	// BackedUp is true when <path>.bak was created.
	BackedUp bool `json:"backed_up"`

	// Error holds the I/O or input error, if any.
	Error string `json:"error,omitempty"`

	// Fallback holds the reason the file was normalized as plain text.
	Fallback string `json:"fallback,omitempty"`

	// State is the terminal state of the task.
	State State `json:"state"`

	// OriginalDigest and NormalizedDigest are SHA3-256 digests of the
	// content before and after normalization, hex encoded.
	OriginalDigest   string `json:"original_digest,omitempty"`
	NormalizedDigest string `json:"normalized_digest,omitempty"`
}

// Errored reports whether the task failed.
func (r FileResult) Errored() bool {
	return r.State == StateErrored
}

// Changed reports whether the task found something to rewrite.
func (r FileResult) Changed() bool {
	return !r.Errored() && r.Changes > 0
}
