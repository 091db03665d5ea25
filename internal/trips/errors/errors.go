package errors

import "errors"

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidID       = errors.New("invalid trip ID")
)
