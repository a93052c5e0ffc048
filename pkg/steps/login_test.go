package steps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/driver/mock"
	"github.com/devicelab-dev/pagedriver/pkg/page"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
	"github.com/devicelab-dev/pagedriver/pkg/session"
	"github.com/devicelab-dev/pagedriver/pkg/wait"
)

func testConfig(t *testing.T, platform string) *config.Config {
	return config.New(map[string]string{
		"platform.type":       platform,
		"appium.server.url":   "http://127.0.0.1:4723",
		"android.device.name": "emulator-5554",
		"android.app.package": "com.example.app",
		"ios.device.name":     "iPhone 15",
		"ios.bundle.id":       "com.example.app",
		"explicit.wait":       "1",
		"screenshot.path":     t.TempDir(),
	})
}

// loginApp dials drivers that show the login form for the configured platform
// and accept only password.
func loginApp(cfg *config.Config, password string) *mock.Dialer {
	return &mock.Dialer{Setup: func(d *mock.Driver, _ map[string]interface{}) {
		p, _ := core.ParsePlatform(cfg.PlatformType())
		locs := page.LoginLocatorsFromConfig(p, cfg)
		mock.InstallLoginForm(d, mock.LoginForm{
			Username: locs.Username,
			Password: locs.Password,
			Button:   locs.LoginButton,
			Welcome:  locs.WelcomeMessage,
		}, func(_, pass string) bool { return pass == password })
	}}
}

func fastPages() []page.Option {
	return []page.Option{
		page.WithDisplayTimeout(200 * time.Millisecond),
		page.WithWait(wait.WithInterval(20 * time.Millisecond)),
	}
}

func TestLoginScenario(t *testing.T) {
	for _, platform := range []string{"android", "ios"} {
		t.Run(platform, func(t *testing.T) {
			cfg := testConfig(t, platform)
			dialer := loginApp(cfg, "secret")
			h := scenario.NewHooks(session.NewRegistry(dialer), cfg)

			sc := LoginScenario("Successful login", h.Registry, cfg, "testuser", "secret", fastPages()...)
			require.Len(t, sc.Steps, 6)

			res := h.Run(context.Background(), sc)
			assert.Equal(t, core.StatusPassed, res.Status, res.Error)
			assert.Equal(t, platform, res.Platform)
			assert.Empty(t, res.Attachments)

			drv := dialer.Dialed()[0]
			assert.True(t, drv.Quitted())
			welcome := page.DefaultAndroidLoginLocators().WelcomeMessage
			if platform == "ios" {
				welcome = page.DefaultIOSLoginLocators().WelcomeMessage
			}
			require.NotNil(t, drv.Element(welcome))
			assert.Equal(t, "Welcome, testuser", drv.Element(welcome).CurrentText())
		})
	}
}

func TestLoginScenario_WrongPasswordFails(t *testing.T) {
	cfg := testConfig(t, "android")
	h := scenario.NewHooks(session.NewRegistry(loginApp(cfg, "secret")), cfg)

	res := h.Run(context.Background(),
		LoginScenario("Bad login", h.Registry, cfg, "testuser", "nope", fastPages()...))

	assert.Equal(t, core.StatusFailed, res.Status)
	assert.Equal(t, core.ErrCategoryAssertion, res.Category)
	assert.ErrorIs(t, res.Err, core.ErrAssertion)
	require.Len(t, res.Attachments, 1)
	assert.FileExists(t, res.Attachments[0].Path)
}

func TestLogin_StepsNeedLoginScreen(t *testing.T) {
	cfg := testConfig(t, "android")
	reg := session.NewRegistry(loginApp(cfg, "secret"))
	ctx := session.NewExecution(context.Background())
	_, err := reg.Initialize(ctx, cfg)
	require.NoError(t, err)
	defer reg.Teardown(ctx)

	l := NewLogin(reg, cfg, fastPages()...)
	require.NoError(t, l.AppIsLaunched(ctx))

	err = l.EnterUsername(ctx, "bob")
	assert.ErrorIs(t, err, core.ErrIllegalState)
	assert.ErrorIs(t, l.ClickLogin(ctx), core.ErrIllegalState)

	require.NoError(t, l.OnLoginScreen(ctx))
	assert.NoError(t, l.EnterUsername(ctx, "bob"))
}

func TestLogin_AppNotLaunched(t *testing.T) {
	cfg := testConfig(t, "android")
	l := NewLogin(session.NewRegistry(&mock.Dialer{}), cfg)
	ctx := session.NewExecution(context.Background())

	assert.ErrorIs(t, l.AppIsLaunched(ctx), core.ErrIllegalState)
	assert.ErrorIs(t, l.OnLoginScreen(ctx), core.ErrIllegalState)
}

func TestLogin_ShouldSee(t *testing.T) {
	cfg := testConfig(t, "android")
	reg := session.NewRegistry(loginApp(cfg, "secret"))
	ctx := session.NewExecution(context.Background())
	_, err := reg.Initialize(ctx, cfg)
	require.NoError(t, err)
	defer reg.Teardown(ctx)

	l := NewLogin(reg, cfg, fastPages()...)
	require.NoError(t, l.OnLoginScreen(ctx))

	assert.ErrorIs(t, l.ShouldSee(ctx, "Welcome Message"), core.ErrAssertion)
	assert.ErrorIs(t, l.ShouldSee(ctx, "a unicorn"), core.ErrConfiguration)

	require.NoError(t, l.EnterUsername(ctx, "bob"))
	require.NoError(t, l.EnterPassword(ctx, "secret"))
	require.NoError(t, l.ClickLogin(ctx))
	assert.NoError(t, l.ShouldSee(ctx, "welcome message"))
}
