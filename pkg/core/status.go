package core

import (
	"fmt"
	"strings"
)

// Platform tags the automation backend a session talks to.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformAndroid
	PlatformIOS
)

// String returns the string representation of Platform
func (p Platform) String() string {
	switch p {
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	default:
		return "unknown"
	}
}

// CapabilityName returns the platformName capability value.
func (p Platform) CapabilityName() string {
	switch p {
	case PlatformAndroid:
		return "Android"
	case PlatformIOS:
		return "iOS"
	default:
		return ""
	}
}

// ParsePlatform maps a configured platform type to a Platform (case-insensitive).
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	default:
		return PlatformUnknown, ErrConfiguration.WithMessage(fmt.Sprintf("invalid platform type: %q", s))
	}
}

// SessionState is the lifecycle state of a session.
type SessionState int32

const (
	StateNew          SessionState = iota // Created, nothing sent to the server
	StateInitializing                     // Remote session being established
	StateActive                           // Accepts element operations
	StateTerminating                      // Quit in progress
	StateClosed                           // Remote session gone, registry entry removed
	StateFailed                           // Initialization aborted; never installed
)

// String returns the string representation of SessionState
func (s SessionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateTerminating:
		return "terminating"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the lifecycle allows s → next.
func (s SessionState) CanTransition(next SessionState) bool {
	switch s {
	case StateNew:
		return next == StateInitializing
	case StateInitializing:
		return next == StateActive || next == StateFailed
	case StateActive:
		return next == StateTerminating
	case StateTerminating:
		return next == StateClosed
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are possible
func (s SessionState) IsTerminal() bool {
	return s == StateClosed || s == StateFailed
}

// Status is the outcome of a scenario.
type Status int

const (
	StatusPending Status = iota // Not yet started
	StatusRunning               // Currently executing
	StatusPassed                // Completed successfully
	StatusFailed                // Assertion or wait failed
	StatusErrored               // Infrastructure problem: config, session, state
	StatusSkipped               // Not run
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// StatusFor classifies a scenario error.
func StatusFor(err error) Status {
	switch CategoryOf(err) {
	case ErrCategoryNone:
		return StatusPassed
	case ErrCategoryAssertion, ErrCategoryTimeout:
		return StatusFailed
	default:
		return StatusErrored
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone      ErrorCategory = iota // No error
	ErrCategoryAssertion                      // Element not found, expectation not met
	ErrCategoryTimeout                        // Wait timed out
	ErrCategorySession                        // Session could not be created or closed
	ErrCategoryState                          // No ACTIVE session for the operation
	ErrCategoryConfig                         // Invalid configuration, missing required field
	ErrCategoryUnknown                        // Not an ExecutionError
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategorySession:
		return "session"
	case ErrCategoryState:
		return "state"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
