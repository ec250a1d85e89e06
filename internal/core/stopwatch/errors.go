package stopwatch

import "errors"

var (
	// ErrCapacityExceeded is returned by Add when every timer slot is taken.
	ErrCapacityExceeded = errors.New("timer capacity exceeded")
	// ErrUnknownTimer is returned for an ID that was never created.
	ErrUnknownTimer = errors.New("unknown timer")
	// ErrHistoryParse marks a rendered history line that does not match the line format.
	ErrHistoryParse = errors.New("malformed history line")
)
