package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "PAGEDRIVER_HOME"

// configNames are tried in order in every search directory.
var configNames = []string{"config.yaml", "config.yml", "config.properties"}

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the pagedriver home directory: $PAGEDRIVER_HOME when set,
// <prefix> when the binary is installed as <prefix>/bin/pagedriver, and
// ~/.pagedriver otherwise. The result is resolved once.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// SearchDirs lists where LoadDefault looks for a config file, the working
// directory first.
func SearchDirs() []string {
	home := GetHome()
	cwd, err := os.Getwd()
	if err != nil || filepath.Clean(cwd) == filepath.Clean(home) {
		return []string{home}
	}
	return []string{cwd, home}
}

// LoadDefault loads the first config file found in SearchDirs. Without one
// the config is empty.
func LoadDefault() (*Config, error) {
	for _, dir := range SearchDirs() {
		if path, ok := findConfigFile(dir); ok {
			return Load(path)
		}
	}
	return New(nil), nil
}

func findConfigFile(dir string) (string, bool) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		if binDir := filepath.Dir(execPath); filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	if user, err := os.UserHomeDir(); err == nil {
		return filepath.Join(user, ".pagedriver")
	}
	return "."
}

// ResetHome clears the cached home directory. Tests only.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
