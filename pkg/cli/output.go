package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Steps slower than this are flagged in the live output.
const slowThresholdMs = 5000

var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printHeader(out io.Writer, cfg *config.Config, driver string) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %spagedriver %s%s\n", color(colorBold), Version, color(colorReset))
	fmt.Fprintf(out, "  platform: %s  driver: %s", cfg.PlatformType(), driver)
	if driver != "mock" {
		fmt.Fprintf(out, "  server: %s", cfg.ServerURL())
	}
	fmt.Fprintln(out)
}

// progress prints live scenario output. Scenarios running in parallel
// interleave, so step lines carry a short execution id.
type progress struct {
	mu      sync.Mutex
	out     io.Writer
	total   int
	started int
}

func newProgress(out io.Writer, total int) *progress {
	return &progress{out: out, total: total}
}

func (p *progress) attach(h *scenario.Hooks) {
	h.OnScenarioStart = p.scenarioStart
	h.OnStepComplete = p.stepComplete
	h.OnScenarioEnd = p.scenarioEnd
}

func (p *progress) scenarioStart(name, executionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started++
	fmt.Fprintf(p.out, "\n  %s[%d/%d]%s %s%s%s %s(%s)%s\n",
		color(colorCyan), p.started, p.total, color(colorReset),
		color(colorBold), name, color(colorReset),
		color(colorGray), shortID(executionID), color(colorReset))
}

func (p *progress) stepComplete(executionID, step string, err error, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ms := d.Milliseconds()
	prefix := fmt.Sprintf("    %s%s%s ", color(colorGray), shortID(executionID), color(colorReset))
	if err != nil {
		fmt.Fprintf(p.out, "%s%s✗%s %s (%s)\n", prefix, color(colorRed), color(colorReset), step, formatDuration(ms))
		fmt.Fprintf(p.out, "      %s╰─%s %v\n", color(colorGray), color(colorReset), err)
		return
	}

	symbol, symbolColor, durColor := "✓", color(colorGreen), ""
	if ms >= slowThresholdMs {
		symbol, symbolColor, durColor = "⚠", color(colorYellow), color(colorYellow)
	}
	fmt.Fprintf(p.out, "%s%s%s%s %s %s(%s)%s\n",
		prefix, symbolColor, symbol, color(colorReset), step, durColor, formatDuration(ms), color(colorReset))
}

func (p *progress) scenarioEnd(res core.ScenarioResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol, c := statusSymbol(res.Status)
	fmt.Fprintf(p.out, "  %s%s %s%s %s%s%s\n",
		c, symbol, color(colorReset), res.Name,
		color(colorGray), formatDuration(res.Duration.Milliseconds()), color(colorReset))
	for _, a := range res.Attachments {
		fmt.Fprintf(p.out, "      screenshot: %s\n", a.Path)
	}
	if res.Teardown != "" {
		fmt.Fprintf(p.out, "      %steardown: %s%s\n", color(colorYellow), res.Teardown, color(colorReset))
	}
}

func statusSymbol(s core.Status) (string, string) {
	switch s {
	case core.StatusPassed:
		return "✓", color(colorGreen)
	case core.StatusSkipped:
		return "-", color(colorCyan)
	default:
		return "✗", color(colorRed)
	}
}

func printSummary(out io.Writer, suite *core.SuiteResult) {
	tableWidth := 80
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("═", tableWidth))
	fmt.Fprintf(out, "  %-40s %-8s %-10s %12s\n", "Scenario", "Status", "Category", "Duration")
	fmt.Fprintln(out, strings.Repeat("─", tableWidth))

	for _, sc := range suite.Scenarios {
		name := sc.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		category := "-"
		if sc.Category != core.ErrCategoryNone {
			category = sc.Category.String()
		}
		_, c := statusSymbol(sc.Status)
		fmt.Fprintf(out, "  %-40s %s%-8s%s %-10s %12s\n",
			name, c, strings.ToUpper(sc.Status.String()), color(colorReset),
			category, formatDuration(sc.Duration.Milliseconds()))
	}

	fmt.Fprintln(out, strings.Repeat("─", tableWidth))
	statusColor := color(colorGreen)
	if !suite.Success() {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(out, "  %s%-40s%s %s%-8s%s %-10s %12s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, fmt.Sprintf("%d/%d", suite.Passed, suite.Total), color(colorReset),
		fmt.Sprintf("%df %de %ds", suite.Failed, suite.Errored, suite.Skipped),
		formatDuration(suite.Duration.Milliseconds()))
	fmt.Fprintln(out, strings.Repeat("═", tableWidth))
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func shortID(executionID string) string {
	if len(executionID) > 8 {
		return executionID[:8]
	}
	return executionID
}
