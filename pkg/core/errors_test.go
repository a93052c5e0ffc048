package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := ErrSessionInit.WithCause(cause)

	got := err.Error()
	if !strings.Contains(got, "failed to initialize session") {
		t.Errorf("Error() = %q, should contain the message", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestExecutionError_IsMatchesCopies(t *testing.T) {
	err := fmt.Errorf("hook: %w", ErrConfiguration.WithMessage("invalid platform type: \"web\""))

	if !errors.Is(err, ErrConfiguration) {
		t.Error("copy made with WithMessage should match ErrConfiguration")
	}
	if errors.Is(err, ErrSessionInit) {
		t.Error("configuration error must not match ErrSessionInit")
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrSessionInit
	cause := errors.New("connection refused")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessagef(t *testing.T) {
	newErr := ErrIllegalState.WithMessagef("no active session for execution %s", "abc")

	if newErr.Message != "no active session for execution abc" {
		t.Errorf("Message = %q", newErr.Message)
	}
	if ErrIllegalState.Message != "no active session" {
		t.Error("WithMessagef() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"key": "android.device.name",
	})

	if newErr.Details["key"] != "android.device.name" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["key"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrConfiguration, ErrCategoryConfig, "configuration"},
		{ErrSessionInit, ErrCategorySession, "session_init"},
		{ErrElementTimeout, ErrCategoryTimeout, "element_timeout"},
		{ErrIllegalState, ErrCategoryState, "illegal_state"},
		{ErrAssertion, ErrCategoryAssertion, "assertion"},
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrTeardown, ErrCategorySession, "teardown"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestElementTimeoutError(t *testing.T) {
	err := &ElementTimeoutError{
		Locator:   ByID("com.example.app:id/username"),
		Condition: "visible",
		Timeout:   2 * time.Second,
		Elapsed:   2*time.Second + 150*time.Millisecond,
		Last:      ErrNoSuchElement,
	}

	if !errors.Is(err, ErrElementTimeout) {
		t.Error("ElementTimeoutError should match ErrElementTimeout")
	}
	if !errors.Is(err, ErrNoSuchElement) {
		t.Error("ElementTimeoutError should expose the last driver error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "id=com.example.app:id/username") || !strings.Contains(msg, "2.15s") {
		t.Errorf("Error() = %q, want locator and elapsed", msg)
	}

	var target *ElementTimeoutError
	wrapped := fmt.Errorf("step failed: %w", err)
	if !errors.As(wrapped, &target) || target.Condition != "visible" {
		t.Error("errors.As should recover the typed error")
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrCategoryNone},
		{"plain", errors.New("boom"), ErrCategoryUnknown},
		{"context", context.Canceled, ErrCategoryUnknown},
		{"config", ErrConfiguration, ErrCategoryConfig},
		{"wrapped state", fmt.Errorf("x: %w", ErrIllegalState), ErrCategoryState},
		{"timeout", &ElementTimeoutError{Locator: ByID("a")}, ErrCategoryTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryAssertion, "welcome_missing", "welcome message not displayed")

	if err.Category != ErrCategoryAssertion {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryAssertion)
	}
	if err.Code != "welcome_missing" {
		t.Errorf("Code = %s, want 'welcome_missing'", err.Code)
	}
}
