// Package database keeps the history of normalization runs in SQLite.
//
// Each run stores its counters, the patterns it was given and the full
// summary as JSON; each file of the run gets a row with its final state
// and content digests, so the history of one file can be followed across
// runs. The driver is modernc.org/sqlite, which needs no cgo.
package database
