package report

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
)

// IndexWriter provides thread-safe updates to the report index.
// Scenario goroutines report into it concurrently through Hooks callbacks.
type IndexWriter struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index

	// Debouncing for step progress
	timer *time.Timer
	delay time.Duration
}

// NewIndexWriter creates a writer for outputDir/report.json.
func NewIndexWriter(outputDir string, target Target, runner RunnerInfo) *IndexWriter {
	return &IndexWriter{
		outputDir: outputDir,
		path:      filepath.Join(outputDir, "report.json"),
		delay:     100 * time.Millisecond,
		index: &Index{
			Version:   Version,
			Status:    StatusPending,
			Target:    target,
			Runner:    runner,
			Scenarios: []ScenarioEntry{},
		},
	}
}

// Attach chains the writer into h's progress callbacks, keeping any that are
// already set.
func (w *IndexWriter) Attach(h *scenario.Hooks) {
	prevStart, prevStep, prevEnd := h.OnScenarioStart, h.OnStepComplete, h.OnScenarioEnd

	h.OnScenarioStart = func(name, executionID string) {
		w.ScenarioStarted(name, executionID)
		if prevStart != nil {
			prevStart(name, executionID)
		}
	}
	h.OnStepComplete = func(executionID, step string, err error, d time.Duration) {
		w.StepCompleted(executionID, step, err, d)
		if prevStep != nil {
			prevStep(executionID, step, err, d)
		}
	}
	h.OnScenarioEnd = func(res core.ScenarioResult) {
		w.ScenarioEnded(res)
		if prevEnd != nil {
			prevEnd(res)
		}
	}
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Status = StatusRunning
	w.index.StartTime = time.Now()
	w.flushLocked()
}

// ScenarioStarted adds a running entry.
func (w *IndexWriter) ScenarioStarted(name, executionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Scenarios = append(w.index.Scenarios, ScenarioEntry{
		ID:        executionID,
		Name:      name,
		Status:    StatusRunning,
		StartTime: time.Now(),
		Steps:     []StepEntry{},
	})
	w.flushLocked()
}

// StepCompleted records a step. Progress updates are debounced to reduce I/O.
func (w *IndexWriter) StepCompleted(executionID, step string, err error, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entry(executionID)
	if e == nil {
		return
	}
	s := StepEntry{Name: step, Status: StatusOf(core.StatusFor(err)), Duration: d.Milliseconds()}
	if err != nil {
		s.Error = err.Error()
	}
	e.Steps = append(e.Steps, s)
	e.UpdateSeq++

	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.flush)
	}
}

// ScenarioEnded records the final result. Terminal states flush immediately.
func (w *IndexWriter) ScenarioEnded(res core.ScenarioResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entry(res.ExecutionID)
	if e == nil {
		w.index.Scenarios = append(w.index.Scenarios, ScenarioEntry{
			ID:        res.ExecutionID,
			Name:      res.Name,
			StartTime: res.StartTime,
			Steps:     []StepEntry{},
		})
		e = &w.index.Scenarios[len(w.index.Scenarios)-1]
	}

	end := res.StartTime.Add(res.Duration)
	ms := res.Duration.Milliseconds()
	e.Status = StatusOf(res.Status)
	e.EndTime = &end
	e.Duration = &ms
	if res.Category != core.ErrCategoryNone {
		e.Category = res.Category.String()
	}
	if res.Error != "" {
		msg := res.Error
		e.Error = &msg
	}
	e.Teardown = res.Teardown
	for _, a := range res.Attachments {
		e.Attachments = append(e.Attachments, a.Path)
	}
	e.UpdateSeq++
	w.flushLocked()
}

// End marks the run as complete and orders entries like suite.
func (w *IndexWriter) End(suite *core.SuiteResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if suite != nil {
		order := make(map[string]int, len(suite.Scenarios))
		for i, sc := range suite.Scenarios {
			order[sc.ExecutionID] = i
		}
		sort.SliceStable(w.index.Scenarios, func(i, j int) bool {
			return order[w.index.Scenarios[i].ID] < order[w.index.Scenarios[j].ID]
		})
	}

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.computeRunStatus()
	w.flushLocked()
}

// Close flushes any pending updates.
func (w *IndexWriter) Close() {
	w.flush()
}

// Path returns the report.json path.
func (w *IndexWriter) Path() string {
	return w.path
}

// GetIndex returns the current index (for reading).
func (w *IndexWriter) GetIndex() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *IndexWriter) entry(executionID string) *ScenarioEntry {
	for i := range w.index.Scenarios {
		if w.index.Scenarios[i].ID == executionID {
			return &w.index.Scenarios[i]
		}
	}
	return nil
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *IndexWriter) flushLocked() {
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Warn("write report: %v", err)
		return
	}

	// Regenerate HTML for live file:// viewing
	if err := writeHTML(w.index, HTMLConfig{ReportDir: w.outputDir}); err != nil {
		logger.Warn("write html report: %v", err)
	}
}

func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, sc := range w.index.Scenarios {
		s.Total++
		switch sc.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		}
	}
	return s
}

// computeRunStatus determines overall run status from scenarios.
func (w *IndexWriter) computeRunStatus() Status {
	status := StatusPassed
	for _, sc := range w.index.Scenarios {
		switch {
		case !sc.Status.IsTerminal():
			return StatusRunning
		case sc.Status == StatusErrored:
			status = StatusErrored
		case sc.Status == StatusFailed && status != StatusErrored:
			status = StatusFailed
		}
	}
	return status
}
