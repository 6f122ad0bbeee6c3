package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when the database file does
	// not exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("audit database not found")

	// ErrNilReport is returned when SaveAnalysis receives a nil report.
	ErrNilReport = errors.New("nil report")
)
