// Package core provides the driver contract, errors and lifecycle types shared by pagedriver packages.
package core

import (
	"context"
	"fmt"
	"time"
)

// Locator strategies understood by Appium.
const (
	StrategyID              = "id"
	StrategyAccessibilityID = "accessibility id"
	StrategyXPath           = "xpath"
	StrategyClassName       = "class name"
	StrategyUIAutomator     = "-android uiautomator"
	StrategyIOSPredicate    = "-ios predicate string"
	StrategyIOSClassChain   = "-ios class chain"
)

// Locator identifies a UI element. It is opaque until resolved against a session.
type Locator struct {
	Strategy string `json:"using" yaml:"using"`
	Value    string `json:"value" yaml:"value"`
}

// String returns "strategy=value".
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Value == ""
}

func ByID(id string) Locator                { return Locator{StrategyID, id} }
func ByAccessibilityID(id string) Locator   { return Locator{StrategyAccessibilityID, id} }
func ByXPath(xpath string) Locator          { return Locator{StrategyXPath, xpath} }
func ByClassName(name string) Locator       { return Locator{StrategyClassName, name} }
func ByUIAutomator(selector string) Locator { return Locator{StrategyUIAutomator, selector} }
func ByIOSPredicate(pred string) Locator    { return Locator{StrategyIOSPredicate, pred} }
func ByIOSClassChain(chain string) Locator  { return Locator{StrategyIOSClassChain, chain} }

// Rect is a position and size in screen points.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the rect
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Driver is a live remote automation session.
// Implementations: appium.Driver (W3C HTTP), mock.Driver (in-memory).
type Driver interface {
	// SessionID returns the server-assigned session id.
	SessionID() string

	// FindElement resolves a locator once. Absence is reported as ErrNoSuchElement.
	FindElement(ctx context.Context, loc Locator) (Element, error)

	// SetImplicitWait sets the server-side per-find timeout.
	SetImplicitWait(ctx context.Context, timeout time.Duration) error

	// WindowRect returns the current window geometry.
	WindowRect(ctx context.Context) (Rect, error)

	// ExecuteMobile runs an Appium "mobile: <command>" extension.
	ExecuteMobile(ctx context.Context, command string, args map[string]interface{}) (interface{}, error)

	// Screenshot captures the current screen as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Quit closes the remote session.
	Quit(ctx context.Context) error
}

// Element is an ephemeral handle to a resolved UI element.
type Element interface {
	ID() string
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
}

// Dialer establishes remote sessions. The capabilities map is the W3C
// alwaysMatch object.
type Dialer interface {
	Dial(ctx context.Context, serverURL string, capabilities map[string]interface{}) (Driver, error)
}
