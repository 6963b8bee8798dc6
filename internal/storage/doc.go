// Package storage gives the pipeline access to files through afero.
//
// Glob patterns use doublestar syntax: "*" matches within one path
// segment, "**" matches any number of segments, and "{a,b}" alternates.
// Tests swap the operating system for afero.NewMemMapFs().
package storage
