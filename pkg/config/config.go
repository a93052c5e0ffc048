// Package config handles configuration for pagedriver.
//
// A Config is a read-only key-value snapshot. Keys use the dotted form of the
// properties files the framework grew up with (platform.type, android.app.package,
// explicit.wait ...). YAML files may nest maps; they are flattened into dotted keys.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

// Well-known keys.
const (
	KeyPlatformType = "platform.type"
	KeyServerURL    = "appium.server.url"
	KeyImplicitWait = "implicit.wait"
	KeyExplicitWait = "explicit.wait"
	KeyScreenshots  = "screenshot.path"
	KeyMaxSwipes    = "scroll.max.swipes"
	KeySessionRate  = "session.create.rate"
)

// Defaults applied when a key is absent.
const (
	DefaultImplicitWait = 10 * time.Second
	DefaultExplicitWait = 20 * time.Second
	DefaultServerURL    = "http://127.0.0.1:4723"
	DefaultScreenshots  = "screenshots/"
	DefaultMaxSwipes    = 5
)

// Config is an immutable key-value snapshot.
type Config struct {
	props  map[string]string
	source string
}

// New builds a Config from a flat map. The map is copied.
func New(props map[string]string) *Config {
	c := &Config{props: make(map[string]string, len(props))}
	for k, v := range props {
		c.props[k] = v
	}
	return c
}

// Load loads configuration from a file. Files ending in .properties use
// key=value lines; everything else is parsed as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var props map[string]string
	if strings.HasSuffix(path, ".properties") {
		props, err = parseProperties(data)
	} else {
		props, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c := New(props)
	c.source = path
	return c, nil
}

// LoadFromDir loads config.yaml, config.yml or config.properties from dir,
// whichever is found first. Without one the config is empty.
func LoadFromDir(dir string) (*Config, error) {
	if path, ok := findConfigFile(dir); ok {
		return Load(path)
	}
	return New(nil), nil
}

// Source returns the file the config was loaded from, if any.
func (c *Config) Source() string {
	return c.source
}

// With returns a copy with key set to value.
func (c *Config) With(key, value string) *Config {
	n := New(c.props)
	n.source = c.source
	n.props[key] = value
	return n
}

// Keys returns all keys in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value for key and whether it was set.
func (c *Config) Lookup(key string) (string, bool) {
	v, ok := c.props[key]
	return v, ok
}

// Get returns the value for key, or "" when unset.
func (c *Config) Get(key string) string {
	return c.props[key]
}

// GetOr returns the value for key, or def when unset or empty.
func (c *Config) GetOr(key, def string) string {
	if v, ok := c.props[key]; ok && v != "" {
		return v
	}
	return def
}

// Bool parses key as a boolean, returning def when unset.
func (c *Config) Bool(key string, def bool) (bool, error) {
	v, ok := c.props[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, core.ErrConfiguration.
			WithMessagef("property %s: %q is not a boolean", key, v).
			WithDetails(map[string]interface{}{"key": key})
	}
	return b, nil
}

// Int parses key as an integer, returning def when unset.
func (c *Config) Int(key string, def int) (int, error) {
	v, ok := c.props[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, core.ErrConfiguration.
			WithMessagef("property %s: %q is not an integer", key, v).
			WithDetails(map[string]interface{}{"key": key})
	}
	return n, nil
}

// Float parses key as a decimal number, returning def when unset.
func (c *Config) Float(key string, def float64) (float64, error) {
	v, ok := c.props[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def, core.ErrConfiguration.
			WithMessagef("property %s: %q is not a number", key, v).
			WithDetails(map[string]interface{}{"key": key})
	}
	return f, nil
}

// Seconds parses key as a number of seconds (or a Go duration such as "1500ms").
func (c *Config) Seconds(key string, def time.Duration) (time.Duration, error) {
	v, ok := c.props[key]
	if !ok || v == "" {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, nil
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d, nil
	}
	return def, core.ErrConfiguration.
		WithMessagef("property %s: %q is not a duration", key, v).
		WithDetails(map[string]interface{}{"key": key})
}

// PlatformType returns the configured platform type (android/ios).
func (c *Config) PlatformType() string {
	return c.Get(KeyPlatformType)
}

// ServerURL returns the Appium server URL.
func (c *Config) ServerURL() string {
	return c.Get(KeyServerURL)
}

// IsAndroid reports whether the platform type is android.
func (c *Config) IsAndroid() bool {
	return strings.EqualFold(strings.TrimSpace(c.PlatformType()), "android")
}

// IsIOS reports whether the platform type is ios.
func (c *Config) IsIOS() bool {
	return strings.EqualFold(strings.TrimSpace(c.PlatformType()), "ios")
}

// ImplicitWait returns the baseline implicit wait applied once per session.
func (c *Config) ImplicitWait() (time.Duration, error) {
	return c.Seconds(KeyImplicitWait, DefaultImplicitWait)
}

// ExplicitWait returns the default explicit wait timeout.
func (c *Config) ExplicitWait() (time.Duration, error) {
	return c.Seconds(KeyExplicitWait, DefaultExplicitWait)
}

// ScreenshotDir returns the screenshot output directory.
func (c *Config) ScreenshotDir() string {
	return c.GetOr(KeyScreenshots, DefaultScreenshots)
}

func parseYAML(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	props := make(map[string]string)
	flatten("", raw, props)
	return props, nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func parseProperties(data []byte) (map[string]string, error) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexAny(line, "=:")
		if idx <= 0 {
			return nil, fmt.Errorf("line %d: expected key=value", lineNo)
		}
		props[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	return props, scanner.Err()
}
