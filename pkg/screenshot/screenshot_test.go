package screenshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/driver/mock"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

func fixedClock(t *testing.T) {
	t.Helper()
	now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func openSession(t *testing.T, dialer *mock.Dialer) (context.Context, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry(dialer)
	ctx := session.NewExecution(context.Background())
	_, err := reg.Initialize(ctx, config.New(map[string]string{
		"platform.type":     "ios",
		"appium.server.url": "http://127.0.0.1:4723",
		"ios.device.name":   "iPhone 15",
		"ios.bundle.id":     "com.example.app",
	}))
	require.NoError(t, err)
	return ctx, reg
}

func TestFileName(t *testing.T) {
	fixedClock(t)

	assert.Equal(t, "Login_with_valid_user_.png", FileName("Login with valid user!", false))
	assert.Equal(t, "login_20240309_140507.png", FileName("login", true))
}

func TestCapture(t *testing.T) {
	fixedClock(t)
	dir := filepath.Join(t.TempDir(), "shots")
	dialer := &mock.Dialer{Setup: func(d *mock.Driver, _ map[string]interface{}) {
		d.SetScreenshot([]byte("png-bytes"))
	}}
	ctx, reg := openSession(t, dialer)

	att, err := Capture(ctx, reg, "Failed login", dir, true)
	require.NoError(t, err)

	assert.Equal(t, core.AttachmentScreenshot, att.Name)
	assert.Equal(t, core.ContentTypePNG, att.ContentType)
	assert.Equal(t, filepath.Join(dir, "Failed_login_20240309_140507.png"), att.Path)

	data, err := os.ReadFile(att.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestCapture_NoSession(t *testing.T) {
	reg := session.NewRegistry(&mock.Dialer{})
	ctx := session.NewExecution(context.Background())

	_, err := Capture(ctx, reg, "x", t.TempDir(), false)
	assert.ErrorIs(t, err, core.ErrIllegalState)
}

func TestCapture_DriverError(t *testing.T) {
	dialer := &mock.Dialer{Setup: func(d *mock.Driver, _ map[string]interface{}) {
		d.ScreenshotErr = errors.New("device locked")
	}}
	ctx, reg := openSession(t, dialer)
	dir := t.TempDir()

	_, err := Capture(ctx, reg, "x", dir, false)
	assert.ErrorContains(t, err, "device locked")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
