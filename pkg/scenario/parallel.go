package scenario

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
)

// RunParallel runs scenarios with at most workers in flight (workers <= 0
// means one per scenario). Every scenario gets its own execution id and
// session. Results are in input order; scenarios not started before ctx is
// cancelled are reported as skipped.
func RunParallel(ctx context.Context, h *Hooks, scenarios []Scenario, workers int) *core.SuiteResult {
	suite := &core.SuiteResult{
		StartTime: time.Now(),
		Scenarios: make([]core.ScenarioResult, len(scenarios)),
	}

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	logger.Info("Running %d scenarios (workers: %d)", len(scenarios), workers)

	for i := range scenarios {
		i := i
		g.Go(func() error {
			// Each goroutine owns its slot; no locking needed.
			suite.Scenarios[i] = h.Run(ctx, scenarios[i])
			return nil
		})
	}
	_ = g.Wait()

	// Wall clock time, not the sum of scenario durations
	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()
	logger.Info("Run complete: %d passed, %d failed, %d errored, %d skipped in %s",
		suite.Passed, suite.Failed, suite.Errored, suite.Skipped, suite.Duration.Round(time.Millisecond))
	return suite
}
