// Package scenario runs scenarios, each on its own execution and session.
package scenario

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/screenshot"
	"github.com/devicelab-dev/pagedriver/pkg/session"
	"github.com/devicelab-dev/pagedriver/pkg/tracing"
)

// afterTimeout bounds the screenshot taken after a failed scenario.
const afterTimeout = 30 * time.Second

// Step is one scenario step. Steps find their session through ctx.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scenario is an ordered list of steps.
type Scenario struct {
	Name  string
	Steps []Step
}

// Hooks wraps every scenario with session setup and teardown.
type Hooks struct {
	Registry  *session.Registry
	Config    *config.Config
	Artifacts core.ArtifactConfig

	// Live progress callbacks
	OnScenarioStart func(name, executionID string)
	OnStepComplete  func(executionID, step string, err error, d time.Duration)
	OnScenarioEnd   func(result core.ScenarioResult)
}

// NewHooks creates hooks with the default artifact policy and the configured
// screenshot directory.
func NewHooks(reg *session.Registry, cfg *config.Config) *Hooks {
	artifacts := core.DefaultArtifactConfig()
	artifacts.Dir = cfg.ScreenshotDir()
	return &Hooks{
		Registry:  reg,
		Config:    cfg,
		Artifacts: artifacts,
	}
}

// Run executes sc on a fresh execution id. The session is initialized before
// the first step and torn down after the last one. A failed initialization
// ends the scenario as errored without running any step. A panicking step is
// recorded as an errored result and teardown still runs. Teardown failures are
// recorded in Result.Teardown and never change the status.
func (h *Hooks) Run(ctx context.Context, sc Scenario) (res core.ScenarioResult) {
	ctx = session.NewExecution(ctx)
	execID := session.ExecutionID(ctx)

	res = core.ScenarioResult{
		Name:        sc.Name,
		ExecutionID: execID,
		Platform:    h.Config.PlatformType(),
		Status:      core.StatusRunning,
		StartTime:   time.Now(),
	}

	log := logger.WithFields(logrus.Fields{"scenario": sc.Name, "execution": execID})
	log.Infof("Starting Scenario: %s (platform %s)", sc.Name, res.Platform)
	if h.OnScenarioStart != nil {
		h.OnScenarioStart(sc.Name, execID)
	}

	ctx, span := tracing.StartSpan(ctx, "scenario", map[string]string{
		"scenario":     sc.Name,
		"execution.id": execID,
	})
	defer func() {
		res.Duration = time.Since(res.StartTime)
		tracing.EndSpan(span, res.Err)
		log.Infof("Completing Scenario: %s, status %s (%s)", sc.Name, res.Status, res.Duration.Round(time.Millisecond))
		if h.OnScenarioEnd != nil {
			h.OnScenarioEnd(res)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Status = core.StatusSkipped
		return res
	}

	sess, err := h.Registry.Initialize(ctx, h.Config)
	if err != nil {
		log.Errorf("Failed to initialize session: %v", err)
		res.SetError(err)
		return res
	}
	res.Platform = sess.Platform().String()

	defer h.after(ctx, sc, &res, log)
	res.SetError(h.runSteps(ctx, sc, log))
	return res
}

func (h *Hooks) runSteps(ctx context.Context, sc Scenario, log *logrus.Entry) error {
	for _, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := runStep(ctx, step, log)
		if h.OnStepComplete != nil {
			h.OnStepComplete(session.ExecutionID(ctx), step.Name, err, time.Since(start))
		}
		if err != nil {
			log.Errorf("Step failed: %s: %v", step.Name, err)
			return err
		}
		log.Debugf("Step passed: %s", step.Name)
	}
	return nil
}

// runStep turns a panicking step into an error so the scenario still tears down.
func runStep(ctx context.Context, step Step, log *logrus.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Step panicked: %s: %v\n%s", step.Name, r, debug.Stack())
			err = fmt.Errorf("step %q panicked: %v", step.Name, r)
		}
	}()
	return step.Run(ctx)
}

// after captures artifacts for the final status and tears the session down.
func (h *Hooks) after(ctx context.Context, sc Scenario, res *core.ScenarioResult, log *logrus.Entry) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterTimeout)
	defer cancel()

	if h.Artifacts.ShouldCapture(res.Status) {
		att, err := screenshot.Capture(actx, h.Registry, sc.Name, h.Artifacts.Dir, h.Artifacts.Timestamp)
		if err != nil {
			log.Warnf("Screenshot failed: %v", err)
		} else {
			res.Attachments = append(res.Attachments, att)
			log.Infof("Screenshot saved at: %s", att.Path)
		}
	}

	if err := h.Registry.Teardown(actx); err != nil {
		log.Errorf("Failed to quit session: %v", err)
		res.Teardown = err.Error()
	}
}
