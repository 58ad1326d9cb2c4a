package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeConfigMissingCredentials, http.StatusInternalServerError},
		{ErrCodeUpstreamCallFailed, http.StatusInternalServerError},
		{ErrCodeUpstreamBadResponse, http.StatusInternalServerError},
		{ErrCodePersistenceFailed, http.StatusInternalServerError},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestUpstreamCodesAreNotBadGateway(t *testing.T) {
	// The device-facing contract reports upstream failures as 500s.
	for _, code := range []ErrorCode{ErrCodeUpstreamCallFailed, ErrCodeUpstreamBadResponse, ErrCodeUpstreamRateLimited} {
		if got := code.HTTPStatus(); got != http.StatusInternalServerError {
			t.Errorf("HTTPStatus(%s) = %d, want 500", code, got)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewAppError(ErrCodeUpstreamCallFailed, "prediction service unreachable", inner)

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	var appErr *AppError
	wrapped := fmt.Errorf("ingest: %w", err)
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to extract *AppError from the chain")
	}
	if appErr.Code != ErrCodeUpstreamCallFailed {
		t.Errorf("code = %s, want %s", appErr.Code, ErrCodeUpstreamCallFailed)
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError(ErrCodeValidationMissingField, "hr is required", nil)
	want := "validation_missing_required_field: hr is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
