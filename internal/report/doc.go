// Package report renders forensic reports for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: the report or the boundary envelope as JSON; built with
//     NewFullJSONWriter it wraps the report with the tool version
//   - MarkdownWriter: a shareable document with tables and a severity chart
//
// Report data structures live in the model package.
package report
