package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Info("session %s started", "abc")
	Warn("slow find: %dms", 1200)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "session abc started") {
		t.Errorf("log file missing info line: %q", out)
	}
	if !strings.Contains(out, "level=warning") {
		t.Errorf("log file missing warn level: %q", out)
	}
	if GetWriter() == io.Discard {
		t.Error("GetWriter should return the log file after Init")
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "dir", "run.log")); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestSetVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	defer SetVerbose(true)

	SetVerbose(false)
	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed, got %q", buf.String())
	}

	SetVerbose(true)
	WithFields(logrus.Fields{"locator": "id=username"}).Debug("resolving")
	if !strings.Contains(buf.String(), "locator=") {
		t.Errorf("expected structured field in output, got %q", buf.String())
	}
}
