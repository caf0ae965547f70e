package interfaces

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed means the record exists but no longer satisfies the
	// update's precondition (status, seat count, ownership).
	ErrConditionFailed = errors.New("update precondition not met")
	ErrDuplicate       = errors.New("duplicate record")
	// ErrActiveTripExists is returned when inserting a second active trip
	// for a driver.
	ErrActiveTripExists = errors.New("driver already has an active trip")
)
