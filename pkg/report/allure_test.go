package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateAllure(t *testing.T) {
	tmpDir := t.TempDir()
	index := sampleIndex(tmpDir)
	shot := index.Scenarios[1].Attachments[0]
	if err := os.MkdirAll(filepath.Dir(shot), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shot, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := atomicWriteJSON(filepath.Join(tmpDir, "report.json"), index); err != nil {
		t.Fatal(err)
	}

	if err := GenerateAllure(tmpDir); err != nil {
		t.Fatalf("GenerateAllure failed: %v", err)
	}

	allureDir := filepath.Join(tmpDir, "allure-results")
	for _, name := range []string{
		"exec-1-result.json",
		"exec-2-result.json",
		"categories.json",
		"environment.properties",
		"Bad_login.png",
	} {
		if _, err := os.Stat(filepath.Join(allureDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(allureDir, "exec-2-result.json"))
	if err != nil {
		t.Fatal(err)
	}
	var result AllureResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if result.Status != "failed" {
		t.Errorf("status = %s, want failed", result.Status)
	}
	if result.StatusDetails.Message != "welcome message should be displayed" {
		t.Errorf("message = %q", result.StatusDetails.Message)
	}
	if len(result.Steps) != 1 || result.Steps[0].Stop-result.Steps[0].Start != 1200 {
		t.Errorf("steps = %+v", result.Steps)
	}
	if len(result.Attachments) != 1 || result.Attachments[0].Source != "Bad_login.png" {
		t.Errorf("attachments = %+v", result.Attachments)
	}

	env, err := os.ReadFile(filepath.Join(allureDir, "environment.properties"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"platform=android", "device.name=Pixel 6", "runner.driver=appium"} {
		if !strings.Contains(string(env), want) {
			t.Errorf("environment.properties missing %q", want)
		}
	}
}

func TestGenerateAllure_NoReport(t *testing.T) {
	if err := GenerateAllure(t.TempDir()); err == nil {
		t.Error("expected error without report.json")
	}
}

func TestMapAllureStatus(t *testing.T) {
	tests := map[Status]string{
		StatusPassed:  "passed",
		StatusFailed:  "failed",
		StatusErrored: "broken",
		StatusSkipped: "skipped",
		StatusRunning: "unknown",
	}
	for in, want := range tests {
		if got := mapAllureStatus(in); got != want {
			t.Errorf("mapAllureStatus(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFnv32aHash_Stable(t *testing.T) {
	if fnv32aHash("Login:android") != fnv32aHash("Login:android") {
		t.Error("hash not stable")
	}
	if len(fnv32aHash("x")) != 8 {
		t.Error("expected 8 hex chars")
	}
}
