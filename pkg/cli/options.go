package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagedriver/pkg/config"
)

// flags reads a flag from the command or, when unset there, from its
// parents. Global flags live in the parent context of a subcommand.
type flags struct {
	c *cli.Context
}

func (f flags) context(name string) *cli.Context {
	for _, ctx := range f.c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx
		}
	}
	return f.c
}

func (f flags) String(name string) string { return f.context(name).String(name) }
func (f flags) Int(name string) int       { return f.context(name).Int(name) }
func (f flags) Bool(name string) bool     { return f.context(name).Bool(name) }

// loadConfig loads --config (or the home config) and applies the flag
// overrides on top.
func loadConfig(f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := f.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if p := f.String("platform"); p != "" {
		cfg = cfg.With(config.KeyPlatformType, p)
	}
	if u := f.String("appium-url"); u != "" {
		cfg = cfg.With(config.KeyServerURL, u)
	}
	return cfg, nil
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: ./reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}
