package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", http.StatusBadRequest)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("redis: connection refused")
	err := WrapError(originalErr, ErrCodeServiceUnavailable, "storage unavailable", http.StatusServiceUnavailable)

	if !errors.Is(err, originalErr) {
		t.Errorf("errors.Is should reach the cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewInvalidInputError("bad page")
	err.WithContext("field", "page").WithContext("max", 100)

	if err.Context["field"] != "page" {
		t.Errorf("Context[field] = %v, want 'page'", err.Context["field"])
	}
	if err.Context["max"] != 100 {
		t.Errorf("Context[max] = %v, want 100", err.Context["max"])
	}
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   ErrorCode
		status int
	}{
		{NewInvalidInputError("x"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewNotFoundError("agent"), ErrCodeNotFound, http.StatusNotFound},
		{NewUnauthorizedError("x"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{NewForbiddenError("x"), ErrCodeForbidden, http.StatusForbidden},
		{NewConflictError("x"), ErrCodeConflict, http.StatusConflict},
		{NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{NewInternalError("x"), ErrCodeInternal, http.StatusInternalServerError},
		{NewServiceUnavailableError("x"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Code = %v, want %v", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("HTTPStatus = %v, want %v", tc.err.HTTPStatus, tc.status)
			}
		})
	}
	if msg := NewNotFoundError("agent").Message; msg != "agent not found" {
		t.Errorf("Message = %q", msg)
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewForbiddenError("not yours")

	if GetAppError(appErr) != appErr {
		t.Error("GetAppError() should return a direct AppError")
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if GetAppError(wrapped) != appErr {
		t.Error("GetAppError() should find an AppError behind fmt.Errorf wrapping")
	}
	if !IsAppError(wrapped) || GetAppError(wrapped).Code != ErrCodeForbidden {
		t.Error("wrapped AppError should be detected with its code")
	}

	if GetAppError(errors.New("regular error")) != nil {
		t.Error("GetAppError() should return nil for regular error")
	}
	if GetAppError(nil) != nil {
		t.Error("GetAppError() should return nil for nil")
	}
	if IsAppError(errors.New("x")) {
		t.Error("IsAppError() should be false for regular error")
	}
}
