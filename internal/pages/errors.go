package pages

import "errors"

var (
	// ErrInvalidCount is returned by CreateSet for counts outside [1, max].
	ErrInvalidCount = errors.New("invalid page count")
	// ErrCapacityExceeded is returned by Add when all data page slots are used.
	ErrCapacityExceeded = errors.New("page capacity exceeded")
	// ErrUnknownPage is returned for operations naming a page that is not live.
	ErrUnknownPage = errors.New("unknown page")
)
