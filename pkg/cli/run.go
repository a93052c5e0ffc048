package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagedriver/pkg/capability"
	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/driver/appium"
	"github.com/devicelab-dev/pagedriver/pkg/driver/mock"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/page"
	"github.com/devicelab-dev/pagedriver/pkg/report"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
	"github.com/devicelab-dev/pagedriver/pkg/session"
	"github.com/devicelab-dev/pagedriver/pkg/steps"
	"github.com/devicelab-dev/pagedriver/pkg/tracing"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the login scenario",
	Description: `Run the "successful login" scenario one or more times. Every run opens
its own Appium session and closes it afterwards.

Reports are generated in the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  pagedriver run --username testuser --password secret
  pagedriver run --count 6 --parallel 3
  pagedriver --platform ios run --dry-run --allure`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "Scenario name",
			Value: "Successful login",
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Username to log in with",
			Value:   "testuser",
			EnvVars: []string{"PAGEDRIVER_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Password to log in with",
			Value:   "password123",
			EnvVars: []string{"PAGEDRIVER_PASSWORD"},
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "Number of times to run the scenario",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Maximum scenarios in flight (0 = all at once)",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Run against an in-memory app instead of an Appium server",
		},

		// Output
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results/ into the output directory",
		},
	},
	Action: runScenarios,
}

// RunConfig holds everything a run needs.
type RunConfig struct {
	Config    *config.Config
	Name      string
	Username  string
	Password  string
	Count     int
	Parallel  int
	DryRun    bool
	OutputDir string
	LogFile   string
	TraceFile string
	Verbose   bool
	Allure    bool
}

func runScenarios(c *cli.Context) error {
	f := flags{c}
	if f.Bool("no-ansi") {
		colorsEnabled = false
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(f.String("output"), f.Bool("flatten"))
	if err != nil {
		return err
	}

	rc := &RunConfig{
		Config:    cfg,
		Name:      f.String("name"),
		Username:  f.String("username"),
		Password:  f.String("password"),
		Count:     f.Int("count"),
		Parallel:  f.Int("parallel"),
		DryRun:    f.Bool("dry-run"),
		OutputDir: outputDir,
		LogFile:   f.String("log-file"),
		TraceFile: f.String("trace-file"),
		Verbose:   f.Bool("verbose"),
		Allure:    f.Bool("allure"),
	}
	return executeRun(c.Context, c.App.Writer, rc)
}

func executeRun(ctx context.Context, out io.Writer, rc *RunConfig) error {
	if rc.Count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Output directory and logging
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	logPath := rc.LogFile
	if logPath == "" {
		logPath = filepath.Join(rc.OutputDir, "pagedriver.log")
	}
	if err := logger.Init(logPath); err != nil {
		fmt.Fprintf(out, "Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	logger.SetVerbose(rc.Verbose)

	// 2. Tracing
	if rc.TraceFile != "" {
		shutdown, err := tracing.Init("pagedriver", Version, rc.TraceFile)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown: %v", err)
			}
		}()
	}

	// 3. Ctrl+C cancels the run; hooks still tear sessions down.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rc.Config
	if _, ok := cfg.Lookup(config.KeyScreenshots); !ok {
		cfg = cfg.With(config.KeyScreenshots, filepath.Join(rc.OutputDir, "screenshots"))
	}

	if rc.DryRun && cfg.ServerURL() == "" {
		cfg = cfg.With(config.KeyServerURL, config.DefaultServerURL)
	}

	dialer, driverName := newDialer(rc.DryRun, cfg)
	logger.Info("Run: platform=%s driver=%s count=%d parallel=%d config=%q",
		cfg.PlatformType(), driverName, rc.Count, rc.Parallel, cfg.Source())

	regOpts, err := session.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	reg := session.NewRegistry(dialer, regOpts...)
	hooks := scenario.NewHooks(reg, cfg)

	progress := newProgress(out, rc.Count)
	progress.attach(hooks)
	writer := report.NewIndexWriter(rc.OutputDir, buildTarget(cfg), report.RunnerInfo{
		Version: Version,
		Driver:  driverName,
	})
	writer.Attach(hooks)

	scenarios := make([]scenario.Scenario, rc.Count)
	for i := range scenarios {
		name := rc.Name
		if rc.Count > 1 {
			name = fmt.Sprintf("%s #%d", rc.Name, i+1)
		}
		scenarios[i] = steps.LoginScenario(name, reg, cfg, rc.Username, rc.Password)
	}

	// 4. Execute
	printHeader(out, cfg, driverName)
	writer.Start()
	suite := scenario.RunParallel(ctx, hooks, scenarios, rc.Parallel)
	writer.End(suite)
	writer.Close()

	if rc.Allure {
		if err := report.GenerateAllure(rc.OutputDir); err != nil {
			logger.Warn("allure report: %v", err)
			fmt.Fprintf(out, "Warning: Failed to write Allure results: %v\n", err)
		}
	}

	// 5. Summary
	printSummary(out, suite)
	fmt.Fprintf(out, "  Report: %s\n\n", filepath.Join(rc.OutputDir, "report.html"))

	if !suite.Success() {
		return fmt.Errorf("%d of %d scenarios did not pass", suite.Total-suite.Passed, suite.Total)
	}
	return nil
}

// newDialer returns the Appium dialer, or for dry runs an in-memory app that
// shows the configured login form and accepts any non-empty username.
func newDialer(dryRun bool, cfg *config.Config) (core.Dialer, string) {
	if !dryRun {
		return appium.Dialer{}, "appium"
	}
	return &mock.Dialer{Setup: func(d *mock.Driver, _ map[string]interface{}) {
		p, err := core.ParsePlatform(cfg.PlatformType())
		if err != nil {
			return
		}
		locs := page.LoginLocatorsFromConfig(p, cfg)
		mock.InstallLoginForm(d, mock.LoginForm{
			Username: locs.Username,
			Password: locs.Password,
			Button:   locs.LoginButton,
			Welcome:  locs.WelcomeMessage,
		}, nil)
	}}, "mock"
}

// buildTarget describes the run target for the report. An invalid config
// still yields the platform and server URL.
func buildTarget(cfg *config.Config) report.Target {
	t := report.Target{
		Platform:  cfg.PlatformType(),
		ServerURL: cfg.ServerURL(),
	}
	set, err := capability.Build(cfg)
	if err != nil {
		return t
	}
	t.Platform = set.Platform().String()
	t.Device = set.String(capability.DeviceName)
	t.App = set.String(capability.AppPackage)
	if t.App == "" {
		t.App = set.String(capability.BundleID)
	}
	if t.App == "" {
		t.App = set.String(capability.App)
	}
	return t
}
