// Package database provides the opt-in SQLite audit ledger for incapscan.
//
// The ledger keeps one row per analysis: request ID, the SHA3-256 digest of
// the document, format, verdict, score, checker statuses and whether the
// fallback assessment was used. Document text, physician names and metadata
// values are never stored, so the ledger can prove an analysis happened
// without retaining the document.
//
// SQLite is provided by modernc.org/sqlite, which is CGO-free. The database
// is a single file and WAL mode keeps reads from blocking the writer.
package database
