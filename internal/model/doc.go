// Package model defines the result types shared by the pipeline, the
// reports and the history database.
//
// This package contains the following main types:
//   - FileResult: the outcome of processing one file
//   - BatchSummary: the aggregate of a batch run, built by Summarize
//   - State: the lifecycle of a file task
//   - Severity and HazardInfo: how each hazard category is presented
//
// The models are serializable to JSON for report output and database
// storage.
package model
