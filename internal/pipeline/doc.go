// Package pipeline normalizes files in batches.
//
// Every file runs through its own Pipeline of steps:
//
//	read → normalize → persist
//
// The persist step picks exactly one terminal state for the file
// (skipped, previewed, written or errored). A failing file never stops
// the batch.
//
// BatchProcessor runs those pipelines on an errgroup limited to a fixed
// number of goroutines, stores each result at the index of its path and
// folds them with model.Summarize after every task has finished.
package pipeline
