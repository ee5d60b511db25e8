package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a client is constructed without credentials.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidOrder is returned when an order fails validation. The message carries the first problem found.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrIO is returned when the conversion could not be delivered or was rejected.
	ErrIO = errors.New("conversion request failed")
)

// StatusError reports a response other than 200 from the conversion endpoint.
// It matches ErrIO with errors.Is.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: request was not accepted (HTTP %d)", ErrIO, e.StatusCode)
}

// Is reports ErrIO as the error kind.
func (e *StatusError) Is(target error) bool {
	return target == ErrIO
}

// ErrOrderNotFound is returned when an order source has no order with the requested ID.
var ErrOrderNotFound = errors.New("order not found")

// ErrSourceNotConfigured is returned when reporting by source order ID without a configured source.
var ErrSourceNotConfigured = errors.New("order source not configured")
