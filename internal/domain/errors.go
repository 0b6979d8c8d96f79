package domain

import "errors"

var (
	// ErrInvalidArgument indicates the caller supplied a structurally
	// impossible value (nil cart, empty cart token, negative reservation).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedResponse indicates a server response could not be mapped
	// onto the checkout. The checkout is left untouched when this is returned.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSyncInFlight indicates a second sync was started on a checkout while
	// another round trip was still running.
	ErrSyncInFlight = errors.New("sync already in flight")
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)
