package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected errors.Is to unwrap to original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInvalidCredentials_NoEnumeration(t *testing.T) {
	// Unknown email and wrong password must produce identical responses.
	a := InvalidCredentials()
	b := InvalidCredentials()

	if a.Message != b.Message || a.HTTPStatus != b.HTTPStatus || a.Code != b.Code {
		t.Error("invalid-credentials responses must be indistinguishable")
	}
	if a.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", a.HTTPStatus)
	}
}

func TestAccountLocked(t *testing.T) {
	err := AccountLocked(300)

	if err.HTTPStatus != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", err.HTTPStatus)
	}
	if got := err.Details["retry_after_seconds"]; got != int64(300) {
		t.Errorf("expected retry_after_seconds 300, got %v", got)
	}
}

func TestProviderHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"pricing", PricingFailed(400, "no fare", nil), CodePricingFailed, http.StatusBadGateway},
		{"order", OrderFailed(500, "ORA-600", nil), CodeOrderFailed, http.StatusBadGateway},
		{"generic", Provider("call failed", 503, "down", nil), CodeProvider, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
			if tt.err.Details["upstream_status"] == nil {
				t.Error("expected upstream_status detail")
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Booking")
	if got := AsAppError(appErr); got != appErr {
		t.Error("expected AsAppError to return the same AppError")
	}

	plain := errors.New("boom")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected %s, got %s", CodeInternal, converted.Code)
	}
	if converted.Err != plain {
		t.Error("expected original error to be preserved")
	}
}
