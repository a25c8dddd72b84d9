package core

import "errors"

// Error taxonomy shared by the search, stream and HTTP layers. Callers wrap
// these with fmt.Errorf("...: %w") and classify with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrCursorExpired       = errors.New("search expired, search again")

	// ErrEndOfData is returned by a chunk source when the requested chunk lies
	// past the end of the object. It terminates a byte stream cleanly.
	ErrEndOfData = errors.New("end of data")
)
