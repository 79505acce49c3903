package domain

import "errors"

// Store-level sentinel errors. The repository maps driver errors onto these so
// the engine never inspects SQL state directly.
var (
	// ErrNotFound: the referenced record does not exist within the organization.
	ErrNotFound = errors.New("record not found")
	// ErrShiftOverlap: a conditional write lost to a committed overlapping shift.
	ErrShiftOverlap = errors.New("overlapping committed shift")
	// ErrStaleVersion: an optimistic-locked update saw a newer version.
	ErrStaleVersion = errors.New("stale record version")
)
