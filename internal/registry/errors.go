package registry

import "errors"

var (
	// ErrEmptyRoster is returned when a roster file lists no professionals.
	ErrEmptyRoster = errors.New("roster contains no professionals")

	// ErrRosterEntryWithoutName is returned when a roster entry has no name.
	ErrRosterEntryWithoutName = errors.New("roster entry without name")
)
