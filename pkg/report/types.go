// Package report writes a JSON run report with live updates, plus HTML and
// Allure renderings of it.
//
// Layout:
//   - report.json: the index, rewritten atomically on every scenario event
//   - report.html: rendered from report.json after each flush
//   - allure-results/: written on demand by GenerateAllure
//
// Consumers poll report.json and use UpdateSeq to detect changes.
package report

import (
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusErrored || s == StatusSkipped
}

// StatusOf converts a scenario status.
func StatusOf(s core.Status) Status {
	switch s {
	case core.StatusPassed:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusErrored:
		return StatusErrored
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusRunning:
		return StatusRunning
	default:
		return StatusPending
	}
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the report file.
type Index struct {
	Version     string          `json:"version"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Target      Target          `json:"target"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Scenarios   []ScenarioEntry `json:"scenarios"`
}

// Target describes where the scenarios ran.
type Target struct {
	Platform  string `json:"platform"`
	ServerURL string `json:"serverUrl,omitempty"`
	Device    string `json:"device,omitempty"`
	App       string `json:"app,omitempty"` // Bundle ID or package name
}

// RunnerInfo contains pagedriver information.
type RunnerInfo struct {
	Version string `json:"version"`
	Driver  string `json:"driver"` // appium, mock
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
}

// ScenarioEntry is the report entry for one scenario run.
type ScenarioEntry struct {
	ID          string      `json:"id"` // execution id
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	Category    string      `json:"category,omitempty"`
	UpdateSeq   uint64      `json:"updateSeq"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	Duration    *int64      `json:"duration,omitempty"` // milliseconds
	Steps       []StepEntry `json:"steps"`
	Error       *string     `json:"error,omitempty"`
	Teardown    string      `json:"teardownError,omitempty"`
	Attachments []string    `json:"attachments,omitempty"` // screenshot paths
}

// StepEntry records one completed step.
type StepEntry struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Duration int64  `json:"duration"` // milliseconds
	Error    string `json:"error,omitempty"`
}

// StepSummary counts step outcomes for a scenario.
func (e ScenarioEntry) StepSummary() (passed, failed int) {
	for _, s := range e.Steps {
		if s.Status == StatusPassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
