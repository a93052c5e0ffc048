package page

import (
	"context"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

// LoginPage is the contract login steps are written against.
type LoginPage interface {
	EnterUsername(ctx context.Context, username string) error
	EnterPassword(ctx context.Context, password string) error
	ClickLogin(ctx context.Context) error
	WelcomeMessage(ctx context.Context) (string, error)
	IsWelcomeDisplayed(ctx context.Context) bool
	ScrollToElement(ctx context.Context, t Target) error
	PerformLogin(ctx context.Context, username, password string) error
}

// LoginLocators locates the login screen's elements.
type LoginLocators struct {
	Username       core.Locator
	Password       core.Locator
	LoginButton    core.Locator
	WelcomeMessage core.Locator
}

// DefaultAndroidLoginLocators are resource ids of the sample app.
func DefaultAndroidLoginLocators() LoginLocators {
	return LoginLocators{
		Username:       core.ByID("com.example.app:id/username"),
		Password:       core.ByID("com.example.app:id/password"),
		LoginButton:    core.ByID("com.example.app:id/login_button"),
		WelcomeMessage: core.ByID("com.example.app:id/welcome_message"),
	}
}

// DefaultIOSLoginLocators are accessibility ids of the sample app.
func DefaultIOSLoginLocators() LoginLocators {
	return LoginLocators{
		Username:       core.ByAccessibilityID("username"),
		Password:       core.ByAccessibilityID("password"),
		LoginButton:    core.ByAccessibilityID("loginButton"),
		WelcomeMessage: core.ByAccessibilityID("welcomeMessage"),
	}
}

// LoginLocatorsFromConfig applies login.<platform>.{username,password,button,welcome}
// overrides on top of the platform defaults. Android values are resource ids,
// iOS values accessibility ids.
func LoginLocatorsFromConfig(p core.Platform, cfg *config.Config) LoginLocators {
	locs := DefaultAndroidLoginLocators()
	by := core.ByID
	if p == core.PlatformIOS {
		locs = DefaultIOSLoginLocators()
		by = core.ByAccessibilityID
	}
	if cfg == nil {
		return locs
	}

	prefix := "login." + p.String() + "."
	override := func(dst *core.Locator, field string) {
		if v := cfg.Get(prefix + field); v != "" {
			*dst = by(v)
		}
	}
	override(&locs.Username, "username")
	override(&locs.Password, "password")
	override(&locs.LoginButton, "button")
	override(&locs.WelcomeMessage, "welcome")
	return locs
}

type loginPage struct {
	c        *Context
	username Target
	password Target
	button   Target
	welcome  Target
}

func newLoginPage(c *Context, locs LoginLocators) loginPage {
	return loginPage{
		c:        c,
		username: Bind("Username Field", locs.Username),
		password: Bind("Password Field", locs.Password),
		button:   Bind("Login Button", locs.LoginButton),
		welcome:  Bind("Welcome Message", locs.WelcomeMessage),
	}
}

func (p loginPage) EnterUsername(ctx context.Context, username string) error {
	return p.c.EnterText(ctx, p.username, username)
}

func (p loginPage) EnterPassword(ctx context.Context, password string) error {
	return p.c.EnterText(ctx, p.password, password)
}

func (p loginPage) ClickLogin(ctx context.Context) error {
	return p.c.Click(ctx, p.button)
}

func (p loginPage) WelcomeMessage(ctx context.Context) (string, error) {
	return p.c.Text(ctx, p.welcome)
}

func (p loginPage) IsWelcomeDisplayed(ctx context.Context) bool {
	return p.c.IsDisplayed(ctx, p.welcome)
}

func (p loginPage) ScrollToElement(ctx context.Context, t Target) error {
	return p.c.ScrollTo(ctx, t)
}

func (p loginPage) PerformLogin(ctx context.Context, username, password string) error {
	p.c.log.Infof("Performing login with username: %s", username)
	if err := p.EnterUsername(ctx, username); err != nil {
		return err
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return err
	}
	if err := p.ClickLogin(ctx); err != nil {
		return err
	}
	p.c.log.Info("Login action completed")
	return nil
}

// AndroidLoginPage is the UiAutomator2 login screen.
type AndroidLoginPage struct {
	loginPage
}

// NewAndroidLoginPage builds the Android login page.
func NewAndroidLoginPage(c *Context, locs LoginLocators) *AndroidLoginPage {
	return &AndroidLoginPage{newLoginPage(c, locs)}
}

// IOSLoginPage is the XCUITest login screen.
type IOSLoginPage struct {
	loginPage
}

// NewIOSLoginPage builds the iOS login page.
func NewIOSLoginPage(c *Context, locs LoginLocators) *IOSLoginPage {
	return &IOSLoginPage{newLoginPage(c, locs)}
}

// LoginVariants returns the login page constructors, with locators taken from cfg.
func LoginVariants(cfg *config.Config) Variants[LoginPage] {
	return Variants[LoginPage]{
		Android: func(c *Context) LoginPage {
			return NewAndroidLoginPage(c, LoginLocatorsFromConfig(core.PlatformAndroid, cfg))
		},
		IOS: func(c *Context) LoginPage {
			return NewIOSLoginPage(c, LoginLocatorsFromConfig(core.PlatformIOS, cfg))
		},
	}
}

// NewLoginPage returns the login page for the calling execution's platform.
func NewLoginPage(ctx context.Context, reg *session.Registry, cfg *config.Config, opts ...Option) (LoginPage, error) {
	if cfg != nil {
		opts = append([]Option{FromConfig(cfg)}, opts...)
	}
	return Dispatch(ctx, reg, LoginVariants(cfg), opts...)
}
