package errors

import "errors"

var (
	ErrNotFound  = errors.New("hotel booking not found")
	ErrInvalidID = errors.New("invalid hotel booking ID")
)
