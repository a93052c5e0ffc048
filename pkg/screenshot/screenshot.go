// Package screenshot captures PNG screenshots from the active session.
package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

const timestampLayout = "20060102_150405"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// now is replaced in tests.
var now = time.Now

// FileName returns the file name used for a screenshot called name.
func FileName(name string, timestamp bool) string {
	base := unsafeChars.ReplaceAllString(name, "_")
	if timestamp {
		base += "_" + now().Format(timestampLayout)
	}
	return base + ".png"
}

// Capture takes a screenshot from the session of the execution carried by ctx
// and writes it into dir.
func Capture(ctx context.Context, reg *session.Registry, name, dir string, timestamp bool) (core.Attachment, error) {
	sess, ok := reg.Get(ctx)
	if !ok {
		logger.Warn("screenshot %q: no active session", name)
		return core.Attachment{}, core.ErrIllegalState.WithMessage("no active session to capture a screenshot from")
	}
	return CaptureSession(ctx, sess, name, dir, timestamp)
}

// CaptureSession is Capture for an already known session.
func CaptureSession(ctx context.Context, sess *session.Session, name, dir string, timestamp bool) (core.Attachment, error) {
	if sess == nil || !sess.IsActive() {
		return core.Attachment{}, core.ErrIllegalState
	}

	data, err := sess.Driver().Screenshot(ctx)
	if err != nil {
		return core.Attachment{}, fmt.Errorf("capture screenshot %q: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Attachment{}, fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, FileName(name, timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.Attachment{}, fmt.Errorf("write screenshot: %w", err)
	}

	logger.Info("Screenshot captured: %s", path)
	return core.NewScreenshotAttachment(path, data), nil
}
