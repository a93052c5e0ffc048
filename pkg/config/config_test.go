package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

func TestLoad_NestedYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
platform:
  type: android
appium.server.url: http://localhost:4723
android:
  device:
    name: Pixel_7
  platform:
    version: "14"
  app:
    package: com.example.app
    activity: .MainActivity
no.reset: true
explicit.wait: 15
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsAndroid() || cfg.IsIOS() {
		t.Errorf("expected android platform, got %q", cfg.PlatformType())
	}
	if cfg.ServerURL() != "http://localhost:4723" {
		t.Errorf("ServerURL() = %q", cfg.ServerURL())
	}
	if cfg.Get("android.device.name") != "Pixel_7" {
		t.Errorf("android.device.name = %q", cfg.Get("android.device.name"))
	}
	if cfg.Get("android.platform.version") != "14" {
		t.Errorf("android.platform.version = %q", cfg.Get("android.platform.version"))
	}
	if cfg.Get("android.app.activity") != ".MainActivity" {
		t.Errorf("android.app.activity = %q", cfg.Get("android.app.activity"))
	}
	noReset, err := cfg.Bool("no.reset", false)
	if err != nil || !noReset {
		t.Errorf("no.reset = %v, %v", noReset, err)
	}
	wait, err := cfg.ExplicitWait()
	if err != nil || wait != 15*time.Second {
		t.Errorf("ExplicitWait() = %v, %v", wait, err)
	}
	if cfg.Source() != configPath {
		t.Errorf("Source() = %q", cfg.Source())
	}
}

func TestLoad_Properties(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.properties")

	content := `# Platform
platform.type = iOS
ios.bundle.id=com.example.app
! legacy comment
implicit.wait: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsIOS() {
		t.Errorf("expected ios platform, got %q", cfg.PlatformType())
	}
	if cfg.Get("ios.bundle.id") != "com.example.app" {
		t.Errorf("ios.bundle.id = %q", cfg.Get("ios.bundle.id"))
	}
	implicit, err := cfg.ImplicitWait()
	if err != nil || implicit != 5*time.Second {
		t.Errorf("ImplicitWait() = %v, %v", implicit, err)
	}
}

func TestLoad_BadProperties(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.properties")
	if err := os.WriteFile(configPath, []byte("just-a-word\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("platform: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir_PrefersYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "config.yml"), []byte("platform.type: ios\n"), 0644)
	os.WriteFile(filepath.Join(dir, "config.properties"), []byte("platform.type=android\n"), 0644)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsIOS() {
		t.Errorf("expected config.yml to win, got %q", cfg.PlatformType())
	}
}

func TestLoadFromDir_NoFile(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Keys()) != 0 {
		t.Errorf("expected empty config, got %v", cfg.Keys())
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := New(nil)

	if got := cfg.GetOr("missing", "fallback"); got != "fallback" {
		t.Errorf("GetOr() = %q", got)
	}
	if implicit, _ := cfg.ImplicitWait(); implicit != DefaultImplicitWait {
		t.Errorf("ImplicitWait() = %v, want %v", implicit, DefaultImplicitWait)
	}
	if explicit, _ := cfg.ExplicitWait(); explicit != DefaultExplicitWait {
		t.Errorf("ExplicitWait() = %v, want %v", explicit, DefaultExplicitWait)
	}
	if cfg.ScreenshotDir() != DefaultScreenshots {
		t.Errorf("ScreenshotDir() = %q", cfg.ScreenshotDir())
	}
	if n, _ := cfg.Int(KeyMaxSwipes, DefaultMaxSwipes); n != DefaultMaxSwipes {
		t.Errorf("Int() = %d", n)
	}
}

func TestConfig_ParseErrors(t *testing.T) {
	cfg := New(map[string]string{
		"no.reset":          "maybe",
		"explicit.wait":     "soon",
		"scroll.max.swipes": "many",
	})

	if _, err := cfg.Bool("no.reset", false); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Bool() error = %v, want ErrConfiguration", err)
	}
	if _, err := cfg.ExplicitWait(); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("ExplicitWait() error = %v, want ErrConfiguration", err)
	}
	if _, err := cfg.Int(KeyMaxSwipes, 1); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Int() error = %v, want ErrConfiguration", err)
	}
	if _, err := cfg.With(KeySessionRate, "fast").Float(KeySessionRate, 0); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Float() error = %v, want ErrConfiguration", err)
	}
}

func TestConfig_Float(t *testing.T) {
	cfg := New(map[string]string{KeySessionRate: " 0.5 "})
	if f, err := cfg.Float(KeySessionRate, 0); err != nil || f != 0.5 {
		t.Errorf("Float() = %v, %v", f, err)
	}
	if f, _ := New(nil).Float(KeySessionRate, 2); f != 2 {
		t.Errorf("Float() default = %v", f)
	}
}

func TestConfig_SecondsAcceptsDuration(t *testing.T) {
	cfg := New(map[string]string{"explicit.wait": "1500ms"})
	d, err := cfg.ExplicitWait()
	if err != nil || d != 1500*time.Millisecond {
		t.Errorf("ExplicitWait() = %v, %v", d, err)
	}
}

func TestConfig_WithIsCopyOnWrite(t *testing.T) {
	base := New(map[string]string{"platform.type": "android"})
	override := base.With("platform.type", "ios")

	if !base.IsAndroid() {
		t.Error("With() modified the original config")
	}
	if !override.IsIOS() {
		t.Error("With() did not apply the override")
	}
}
