// Package watch analyzes documents dropped into an inbox directory.
//
// Files whose path relative to the inbox matches one of the configured
// doublestar patterns are analyzed once writes to them have settled. The
// report is written to the output directory and the source document is
// deleted afterwards, so the inbox never retains a document.
package watch
