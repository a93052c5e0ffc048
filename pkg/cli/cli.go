// Package cli provides the command-line interface for pagedriver.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml or config.properties (default: ./config.* then $PAGEDRIVER_HOME/config.*)",
		EnvVars: []string{"PAGEDRIVER_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to run on (android, ios); overrides platform.type",
		EnvVars: []string{"PAGEDRIVER_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL; overrides appium.server.url",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"PAGEDRIVER_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Log file path (default: <output>/pagedriver.log)",
	},
	&cli.StringFlag{
		Name:  "trace-file",
		Usage: "Write OpenTelemetry spans as JSON to this file",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the pagedriver application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "pagedriver",
		Usage:   "Page-object test runner for Android and iOS apps on Appium",
		Version: Version,
		Description: `pagedriver runs page-object scenarios against an Appium server. Each
scenario gets its own session; scenarios can run in parallel.

Examples:
  pagedriver run --username testuser --password secret
  pagedriver --platform ios run --count 4 --parallel 2
  pagedriver run --dry-run
  pagedriver caps`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			capsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
