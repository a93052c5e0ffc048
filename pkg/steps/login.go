// Package steps holds step bindings written only against page contracts, so
// the same steps run on every platform.
package steps

import (
	"context"
	"strings"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/page"
	"github.com/devicelab-dev/pagedriver/pkg/scenario"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

// Login binds the login feature's steps. Use one Login per scenario.
type Login struct {
	reg  *session.Registry
	cfg  *config.Config
	opts []page.Option
	page page.LoginPage
}

// NewLogin creates login steps for one scenario.
func NewLogin(reg *session.Registry, cfg *config.Config, opts ...page.Option) *Login {
	return &Login{reg: reg, cfg: cfg, opts: opts}
}

// AppIsLaunched checks the app is up. Launching is done by session setup.
func (l *Login) AppIsLaunched(ctx context.Context) error {
	sess, ok := l.reg.Get(ctx)
	if !ok {
		return core.ErrIllegalState.WithMessage("app is not launched")
	}
	logger.Info("App is launched (platform %s, session %s)", sess.Platform(), sess.ID())
	return nil
}

// OnLoginScreen builds the login page for the session's platform.
func (l *Login) OnLoginScreen(ctx context.Context) error {
	lp, err := page.NewLoginPage(ctx, l.reg, l.cfg, l.opts...)
	if err != nil {
		return err
	}
	l.page = lp
	logger.Info("Successfully on login screen")
	return nil
}

// EnterUsername types the username.
func (l *Login) EnterUsername(ctx context.Context, username string) error {
	lp, err := l.loginPage()
	if err != nil {
		return err
	}
	logger.Info("Entering username: %s", username)
	return lp.EnterUsername(ctx, username)
}

// EnterPassword types the password.
func (l *Login) EnterPassword(ctx context.Context, password string) error {
	lp, err := l.loginPage()
	if err != nil {
		return err
	}
	logger.Info("Entering password")
	return lp.EnterPassword(ctx, password)
}

// ClickLogin taps the login button.
func (l *Login) ClickLogin(ctx context.Context) error {
	lp, err := l.loginPage()
	if err != nil {
		return err
	}
	logger.Info("Clicking on login button")
	return lp.ClickLogin(ctx)
}

// ShouldSeeWelcome asserts the welcome message is displayed.
func (l *Login) ShouldSeeWelcome(ctx context.Context) error {
	lp, err := l.loginPage()
	if err != nil {
		return err
	}
	if !lp.IsWelcomeDisplayed(ctx) {
		return core.ErrAssertion.WithMessage("welcome message should be displayed")
	}
	logger.Info("Welcome message verified successfully")
	return nil
}

// ShouldSee asserts a named outcome. Only "welcome message" is checkable.
func (l *Login) ShouldSee(ctx context.Context, expected string) error {
	if strings.EqualFold(expected, "welcome message") {
		return l.ShouldSeeWelcome(ctx)
	}
	return core.ErrConfiguration.WithMessagef("no check defined for %q", expected)
}

func (l *Login) loginPage() (page.LoginPage, error) {
	if l.page == nil {
		return nil, core.ErrIllegalState.WithMessage("not on the login screen")
	}
	return l.page, nil
}

// LoginScenario is the "successful login" scenario.
func LoginScenario(name string, reg *session.Registry, cfg *config.Config, username, password string, opts ...page.Option) scenario.Scenario {
	l := NewLogin(reg, cfg, opts...)
	return scenario.Scenario{
		Name: name,
		Steps: []scenario.Step{
			{Name: "the app is launched", Run: l.AppIsLaunched},
			{Name: "I am on the login screen", Run: l.OnLoginScreen},
			{Name: "I enter username", Run: func(ctx context.Context) error { return l.EnterUsername(ctx, username) }},
			{Name: "I enter password", Run: func(ctx context.Context) error { return l.EnterPassword(ctx, password) }},
			{Name: "I click on login button", Run: l.ClickLogin},
			{Name: "I should see the welcome message", Run: l.ShouldSeeWelcome},
		},
	}
}
