package errors

import (
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeProvider           = "PROVIDER_ERROR"
	CodePricingFailed      = "PRICING_FAILED"
	CodeOrderFailed        = "ORDER_FAILED"
	CodePartialFailure     = "PARTIAL_FAILURE"
	CodeInternal           = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidCredentials covers both an unknown email and a wrong password.
// The message is intentionally identical in both cases so responses do
// not reveal which accounts exist.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusBadRequest,
	}
}

// AccountLocked carries the remaining lockout window so clients can show
// a retry-after hint.
func AccountLocked(retryAfterSeconds int64) *AppError {
	return &AppError{
		Code:       CodeAccountLocked,
		Message:    "Account temporarily locked due to multiple failed login attempts",
		HTTPStatus: http.StatusForbidden,
		Details: map[string]any{
			"retry_after_seconds": retryAfterSeconds,
		},
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// Provider wraps an upstream failure, keeping the upstream status and
// response body available for diagnostics.
func Provider(message string, upstreamStatus int, upstreamBody string, err error) *AppError {
	return &AppError{
		Code:       CodeProvider,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"upstream_status": upstreamStatus,
			"upstream_body":   upstreamBody,
		},
		Err: err,
	}
}

func PricingFailed(upstreamStatus int, upstreamBody string, err error) *AppError {
	e := Provider("Price confirmation failed", upstreamStatus, upstreamBody, err)
	e.Code = CodePricingFailed
	return e
}

func OrderFailed(upstreamStatus int, upstreamBody string, err error) *AppError {
	e := Provider("Order creation failed", upstreamStatus, upstreamBody, err)
	e.Code = CodeOrderFailed
	return e
}

// PartialFailure marks the case where the provider-side booking was
// created but the local record could not be written. The two sides have
// diverged and an operator has to reconcile them; callers must never
// retry order creation on this error.
func PartialFailure(message string, err error) *AppError {
	return &AppError{
		Code:       CodePartialFailure,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
