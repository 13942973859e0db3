package domain

import "errors"

var (
	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input such as missing required columns.
	ErrValidation = errors.New("validation failed")
	// ErrNoData signals an empty input set. Callers treat it as a benign stop.
	ErrNoData = errors.New("no data")
	// ErrTransaction wraps a failed and rolled back write.
	ErrTransaction = errors.New("transaction failed")
	// ErrUpstreamUnavailable marks scheduler or database connectivity failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidArgument marks caller errors on query parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgumentError carries a client-facing detail for a rejected query parameter.
type ArgumentError struct {
	Detail string
}

func (e *ArgumentError) Error() string { return e.Detail }

// Is lets errors.Is match ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
