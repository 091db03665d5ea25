package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrNotCancellable = errors.New("booking is not in a cancellable state")
)
