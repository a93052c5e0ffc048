package core

import (
	"time"
)

// ScenarioResult captures the outcome of one scenario run on one execution.
type ScenarioResult struct {
	// Identity
	Name        string `json:"name"`
	ExecutionID string `json:"executionId"`
	Platform    string `json:"platform,omitempty"`

	// Status
	Status   Status        `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Error Details
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
	Teardown string `json:"teardownError,omitempty"` // reported, never affects Status

	Attachments []Attachment `json:"attachments,omitempty"`
}

// SetError records err and derives Status and Category from it.
func (r *ScenarioResult) SetError(err error) {
	r.Err = err
	r.Status = StatusFor(err)
	r.Category = CategoryOf(err)
	if err != nil {
		r.Error = err.Error()
	}
}

// SuiteResult captures the outcome of executing multiple scenarios
type SuiteResult struct {
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Scenarios []ScenarioResult `json:"scenarios"`

	// Summary
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (s *SuiteResult) ComputeSummary() {
	s.Total = len(s.Scenarios)
	s.Passed, s.Failed, s.Errored, s.Skipped = 0, 0, 0, 0

	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		}
	}
}

// Success returns true if all scenarios passed
func (s *SuiteResult) Success() bool {
	for _, sc := range s.Scenarios {
		if sc.Status != StatusPassed {
			return false
		}
	}
	return len(s.Scenarios) > 0
}
