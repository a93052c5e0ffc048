package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/pagedriver/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Start  int64  `json:"start"`
	Stop   int64  `json:"stop"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// GenerateAllure generates Allure-compatible report files in <reportDir>/allure-results/.
func GenerateAllure(reportDir string) error {
	index, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	// One result file per scenario run
	for _, entry := range index.Scenarios {
		result := buildAllureResult(&entry, index)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", entry.ID, err)
		}

		resultPath := filepath.Join(allureDir, entry.ID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}

		for _, path := range entry.Attachments {
			copyFile(path, filepath.Join(allureDir, filepath.Base(path)))
		}
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, index)
}

// buildAllureResult builds an AllureResult from a scenario entry.
func buildAllureResult(entry *ScenarioEntry, index *Index) AllureResult {
	startMs := entry.StartTime.UnixMilli()
	var stopMs int64
	if entry.EndTime != nil {
		stopMs = entry.EndTime.UnixMilli()
	} else if entry.Duration != nil {
		stopMs = startMs + *entry.Duration
	}

	labels := []AllureLabel{
		{Name: "suite", Value: entry.Name},
		{Name: "framework", Value: "pagedriver"},
		{Name: "severity", Value: "normal"},
		{Name: "thread", Value: entry.ID},
	}
	if index.Target.Platform != "" {
		labels = append(labels, AllureLabel{Name: "host", Value: index.Target.Platform})
	}
	if entry.Category != "" {
		labels = append(labels, AllureLabel{Name: "tag", Value: entry.Category})
	}

	var statusDetails AllureStatusDetails
	if entry.Error != nil {
		statusDetails.Message = *entry.Error
	}
	if entry.Teardown != "" {
		statusDetails.Trace = "teardown: " + entry.Teardown
	}

	// Steps carry durations only; lay them out back to back from the start.
	steps := make([]AllureStep, 0, len(entry.Steps))
	at := startMs
	for _, s := range entry.Steps {
		steps = append(steps, AllureStep{
			Name:   s.Name,
			Status: mapAllureStatus(s.Status),
			Stage:  "finished",
			Start:  at,
			Stop:   at + s.Duration,
		})
		at += s.Duration
	}

	attachments := make([]AllureAttachment, 0, len(entry.Attachments))
	for _, path := range entry.Attachments {
		attachments = append(attachments, AllureAttachment{
			Name:   "Screenshot",
			Source: filepath.Base(path),
			Type:   "image/png",
		})
	}

	return AllureResult{
		UUID:          entry.ID,
		HistoryID:     fnv32aHash(entry.Name + ":" + index.Target.Platform),
		FullName:      entry.Name,
		Name:          entry.Name,
		Status:        mapAllureStatus(entry.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		StatusDetails: statusDetails,
		Steps:         steps,
		Attachments:   attachments,
	}
}

// copyFile copies a single file from src to dst, ignoring a missing source.
func copyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps report Status to Allure status string.
// Allure calls infrastructure problems "broken".
func mapAllureStatus(s Status) string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "broken"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Timeout", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*element .* not .* after.*"},
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*not found after.*"},
		{Name: "Assertion Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*should.*|.*assert.*"},
		{Name: "Session Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*session.*"},
		{Name: "Configuration Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*propert.*|.*configuration.*|.*platform.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeAllureEnvironment writes environment.properties with target metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=pagedriver\n")

	if index.Target.Platform != "" {
		b.WriteString(fmt.Sprintf("platform=%s\n", index.Target.Platform))
	}
	if index.Target.Device != "" {
		b.WriteString(fmt.Sprintf("device.name=%s\n", index.Target.Device))
	}
	if index.Target.App != "" {
		b.WriteString(fmt.Sprintf("app.id=%s\n", index.Target.App))
	}
	if index.Target.ServerURL != "" {
		b.WriteString(fmt.Sprintf("appium.url=%s\n", index.Target.ServerURL))
	}
	if index.Runner.Version != "" {
		b.WriteString(fmt.Sprintf("runner.version=%s\n", index.Runner.Version))
	}
	if index.Runner.Driver != "" {
		b.WriteString(fmt.Sprintf("runner.driver=%s\n", index.Runner.Driver))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}
