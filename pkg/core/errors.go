package core

import (
	"errors"
	"fmt"
	"time"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: configuration, session_init, element_timeout...
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code, so copies
// produced by WithCause/WithMessage/WithDetails still match the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// ErrConfiguration: unknown/missing platform or required capability.
	ErrConfiguration = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "configuration",
		Message:  "invalid configuration",
	}

	// ErrSessionInit: the remote session could not be established.
	ErrSessionInit = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_init",
		Message:  "failed to initialize session",
	}

	// ErrElementTimeout: a wait predicate was not satisfied in time.
	ErrElementTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "element_timeout",
		Message:  "element wait timed out",
	}

	// ErrIllegalState: an operation needs an ACTIVE session and there is none.
	ErrIllegalState = &ExecutionError{
		Category: ErrCategoryState,
		Code:     "illegal_state",
		Message:  "no active session",
	}

	// ErrAssertion: a step's expectation did not hold.
	ErrAssertion = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion",
		Message:  "assertion failed",
	}

	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	ErrTeardown = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "teardown",
		Message:  "failed to close session",
	}
)

// Driver-level conditions reported by core.Driver implementations. The wait
// engine retries these; anything else aborts a wait.
var (
	ErrNoSuchElement = errors.New("no such element")
	ErrStaleElement  = errors.New("stale element reference")
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// ElementTimeoutError is returned when a wait condition is not met before its timeout.
// It matches ErrElementTimeout with errors.Is.
type ElementTimeoutError struct {
	Locator   Locator
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	Last      error // last driver error seen while polling, if any
}

func (e *ElementTimeoutError) Error() string {
	msg := fmt.Sprintf("element %s not %s after %s (timeout %s)",
		e.Locator, e.Condition, e.Elapsed.Round(time.Millisecond), e.Timeout)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// Unwrap exposes both the taxonomy error and the last driver error.
func (e *ElementTimeoutError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrElementTimeout}
	}
	return []error{ErrElementTimeout, e.Last}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryUnknown
}
