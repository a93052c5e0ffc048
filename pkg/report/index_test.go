package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/driver/mock"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

func newTestWriter(t *testing.T) (*IndexWriter, string) {
	dir := t.TempDir()
	w := NewIndexWriter(dir, Target{Platform: "android", Device: "emulator-5554"}, RunnerInfo{Version: "test", Driver: "mock"})
	return w, dir
}

func TestIndexWriter_Lifecycle(t *testing.T) {
	w, dir := newTestWriter(t)
	w.Start()

	index, err := ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport after Start: %v", err)
	}
	if index.Status != StatusRunning {
		t.Errorf("status = %s, want running", index.Status)
	}
	if index.Version != Version {
		t.Errorf("version = %s, want %s", index.Version, Version)
	}

	w.ScenarioStarted("Login", "exec-1")
	w.StepCompleted("exec-1", "open", nil, 15*time.Millisecond)
	w.StepCompleted("exec-1", "check", core.ErrAssertion, 5*time.Millisecond)
	w.StepCompleted("unknown", "ignored", nil, time.Millisecond)

	start := time.Now()
	w.ScenarioEnded(core.ScenarioResult{
		Name:        "Login",
		ExecutionID: "exec-1",
		Status:      core.StatusFailed,
		Category:    core.ErrCategoryAssertion,
		StartTime:   start,
		Duration:    20 * time.Millisecond,
		Error:       "assertion failed",
		Teardown:    "quit: gone",
		Attachments: []core.Attachment{{Path: filepath.Join(dir, "Login.png")}},
	})
	w.End(nil)
	w.Close()

	index, err = ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if index.Status != StatusFailed {
		t.Errorf("run status = %s, want failed", index.Status)
	}
	if index.EndTime == nil {
		t.Error("expected end time")
	}
	if index.Summary.Total != 1 || index.Summary.Failed != 1 {
		t.Errorf("summary = %+v", index.Summary)
	}

	sc := index.Scenarios[0]
	if sc.Status != StatusFailed || sc.Category != "assertion" {
		t.Errorf("scenario = %s/%s, want failed/assertion", sc.Status, sc.Category)
	}
	if len(sc.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(sc.Steps))
	}
	if sc.Steps[0].Status != StatusPassed || sc.Steps[1].Status != StatusFailed {
		t.Errorf("step statuses = %s, %s", sc.Steps[0].Status, sc.Steps[1].Status)
	}
	if sc.Steps[0].Duration != 15 {
		t.Errorf("step duration = %d, want 15", sc.Steps[0].Duration)
	}
	if sc.Error == nil || *sc.Error != "assertion failed" {
		t.Errorf("error = %v", sc.Error)
	}
	if sc.Teardown != "quit: gone" {
		t.Errorf("teardown = %q", sc.Teardown)
	}
	if sc.Duration == nil || *sc.Duration != 20 {
		t.Errorf("duration = %v, want 20", sc.Duration)
	}
	if len(sc.Attachments) != 1 {
		t.Errorf("attachments = %v", sc.Attachments)
	}

	passed, failed := sc.StepSummary()
	if passed != 1 || failed != 1 {
		t.Errorf("StepSummary = %d/%d, want 1/1", passed, failed)
	}

	if _, err := os.Stat(filepath.Join(dir, "report.html")); err != nil {
		t.Errorf("expected report.html: %v", err)
	}
}

func TestIndexWriter_EndWithoutStartedEntry(t *testing.T) {
	w, dir := newTestWriter(t)
	w.ScenarioEnded(core.ScenarioResult{Name: "Skipped", ExecutionID: "exec-9", Status: core.StatusSkipped})
	w.End(nil)

	index, err := ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if len(index.Scenarios) != 1 || index.Scenarios[0].Status != StatusSkipped {
		t.Errorf("scenarios = %+v", index.Scenarios)
	}
	if index.Status != StatusPassed {
		t.Errorf("run status = %s, want passed (skips do not fail a run)", index.Status)
	}
}

func TestIndexWriter_ComputeRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all passed", []Status{StatusPassed, StatusPassed}, StatusPassed},
		{"one failed", []Status{StatusPassed, StatusFailed}, StatusFailed},
		{"errored wins", []Status{StatusErrored, StatusFailed}, StatusErrored},
		{"still running", []Status{StatusPassed, StatusRunning}, StatusRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &IndexWriter{index: &Index{}}
			for _, s := range tt.statuses {
				w.index.Scenarios = append(w.index.Scenarios, ScenarioEntry{Status: s})
			}
			if got := w.computeRunStatus(); got != tt.want {
				t.Errorf("computeRunStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIndexWriter_AttachToHooks(t *testing.T) {
	w, dir := newTestWriter(t)
	cfg := config.New(map[string]string{
		"platform.type":       "android",
		"appium.server.url":   "http://127.0.0.1:4723",
		"android.device.name": "emulator-5554",
		"android.app.package": "com.example.app",
		"screenshot.path":     filepath.Join(dir, "screenshots"),
	})
	h := scenario.NewHooks(session.NewRegistry(&mock.Dialer{}), cfg)

	var ended []string
	h.OnScenarioEnd = func(res core.ScenarioResult) { ended = append(ended, res.Name) }
	w.Attach(h)

	ok := func(context.Context) error { return nil }
	scenarios := []scenario.Scenario{
		{Name: "first", Steps: []scenario.Step{{Name: "a", Run: ok}}},
		{Name: "second", Steps: []scenario.Step{{Name: "b", Run: func(context.Context) error {
			return errors.New("boom")
		}}}},
	}

	w.Start()
	suite := scenario.RunParallel(context.Background(), h, scenarios, 1)
	w.End(suite)
	w.Close()

	if len(ended) != 2 {
		t.Errorf("previous OnScenarioEnd called %d times, want 2", len(ended))
	}

	index, err := ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if len(index.Scenarios) != 2 {
		t.Fatalf("scenarios = %d, want 2", len(index.Scenarios))
	}
	if index.Scenarios[0].Name != "first" || index.Scenarios[1].Name != "second" {
		t.Errorf("order = %s, %s", index.Scenarios[0].Name, index.Scenarios[1].Name)
	}
	if index.Scenarios[1].Status != StatusErrored {
		t.Errorf("second status = %s, want errored", index.Scenarios[1].Status)
	}
	if len(index.Scenarios[1].Attachments) != 1 {
		t.Errorf("expected a failure screenshot, got %v", index.Scenarios[1].Attachments)
	}
	if index.Status != StatusErrored {
		t.Errorf("run status = %s, want errored", index.Status)
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[core.Status]Status{
		core.StatusPassed:  StatusPassed,
		core.StatusFailed:  StatusFailed,
		core.StatusErrored: StatusErrored,
		core.StatusSkipped: StatusSkipped,
		core.StatusRunning: StatusRunning,
		core.StatusPending: StatusPending,
	}
	for in, want := range tests {
		if got := StatusOf(in); got != want {
			t.Errorf("StatusOf(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestReadReport_Missing(t *testing.T) {
	if _, err := ReadReport(t.TempDir()); err == nil {
		t.Error("expected error for missing report.json")
	}
}

func TestReadReport_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadReport(dir); err == nil {
		t.Error("expected parse error")
	}
}
