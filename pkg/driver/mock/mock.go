// Package mock provides an in-memory driver for testing without a device or Appium server.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

// pngHeader is returned by Screenshot unless the test sets its own bytes.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Dialer hands out mock drivers. It implements core.Dialer.
type Dialer struct {
	// Fail, if set, is returned by every Dial.
	Fail error
	// Setup, if set, prepares each new driver (e.g. registers elements).
	Setup func(d *Driver, capabilities map[string]interface{})

	mu     sync.Mutex
	dialed []*Driver
	caps   []map[string]interface{}
}

// Dial implements core.Dialer.
func (m *Dialer) Dial(ctx context.Context, serverURL string, capabilities map[string]interface{}) (core.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.caps = append(m.caps, capabilities)
	m.mu.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	d := New()
	if m.Setup != nil {
		m.Setup(d, capabilities)
	}

	m.mu.Lock()
	m.dialed = append(m.dialed, d)
	m.mu.Unlock()
	return d, nil
}

// Dialed returns the drivers created so far, oldest first.
func (m *Dialer) Dialed() []*Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Driver(nil), m.dialed...)
}

// Calls returns how many times Dial was invoked, including failed attempts.
func (m *Dialer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.caps)
}

// LastCapabilities returns the capabilities passed to the most recent Dial.
func (m *Dialer) LastCapabilities() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.caps) == 0 {
		return nil
	}
	return m.caps[len(m.caps)-1]
}

// MobileCall records one ExecuteMobile invocation.
type MobileCall struct {
	Command string
	Args    map[string]interface{}
}

// Driver is a mock implementation of core.Driver. Elements are registered by
// locator; a locator with no registered element is reported as no such element.
type Driver struct {
	// ImplicitWaitErr, if set, is returned by SetImplicitWait.
	ImplicitWaitErr error
	// ImplicitWaitDelay simulates a slow server on SetImplicitWait.
	ImplicitWaitDelay time.Duration
	// QuitErr, if set, is returned by Quit (the driver is still marked quit).
	QuitErr error
	// ScreenshotErr, if set, is returned by Screenshot.
	ScreenshotErr error
	// OnMobile handles ExecuteMobile; nil means every command returns nil, nil.
	OnMobile func(d *Driver, command string, args map[string]interface{}) (interface{}, error)

	mu         sync.Mutex
	id         string
	elements   map[core.Locator]*Element
	implicit   []time.Duration
	mobile     []MobileCall
	finds      int
	quit       bool
	rect       core.Rect
	screenshot []byte
}

// New creates an empty mock driver with a fresh session id.
func New() *Driver {
	return &Driver{
		id:         uuid.NewString(),
		elements:   make(map[core.Locator]*Element),
		rect:       core.Rect{Width: 1080, Height: 1920},
		screenshot: pngHeader,
	}
}

// Add registers el under loc and returns it.
func (d *Driver) Add(loc core.Locator, el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = el
	return el
}

// AddAfter registers el under loc once delay has elapsed.
func (d *Driver) AddAfter(loc core.Locator, el *Element, delay time.Duration) *Element {
	time.AfterFunc(delay, func() { d.Add(loc, el) })
	return el
}

// Remove unregisters loc.
func (d *Driver) Remove(loc core.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, loc)
}

// Element returns the element registered under loc, or nil.
func (d *Driver) Element(loc core.Locator) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elements[loc]
}

// SetWindowRect overrides the reported window rect.
func (d *Driver) SetWindowRect(r core.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rect = r
}

// SetScreenshot overrides the bytes returned by Screenshot.
func (d *Driver) SetScreenshot(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screenshot = data
}

// ImplicitWaits returns every implicit wait applied, in order.
func (d *Driver) ImplicitWaits() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.implicit...)
}

// MobileCalls returns every ExecuteMobile invocation, in order.
func (d *Driver) MobileCalls() []MobileCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MobileCall(nil), d.mobile...)
}

// FindCount returns how many FindElement calls were made.
func (d *Driver) FindCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds
}

// Quitted reports whether Quit was called.
func (d *Driver) Quitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

// SessionID implements core.Driver.
func (d *Driver) SessionID() string {
	return d.id
}

// FindElement implements core.Driver.
func (d *Driver) FindElement(ctx context.Context, loc core.Locator) (core.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finds++
	if d.quit {
		return nil, core.ErrIllegalState.WithMessage("remote session is gone")
	}
	el, ok := d.elements[loc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNoSuchElement, loc)
	}
	return el, nil
}

// SetImplicitWait implements core.Driver.
func (d *Driver) SetImplicitWait(ctx context.Context, timeout time.Duration) error {
	if d.ImplicitWaitDelay > 0 {
		t := time.NewTimer(d.ImplicitWaitDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ImplicitWaitErr != nil {
		return d.ImplicitWaitErr
	}
	d.implicit = append(d.implicit, timeout)
	return nil
}

// WindowRect implements core.Driver.
func (d *Driver) WindowRect(ctx context.Context) (core.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rect, nil
}

// ExecuteMobile implements core.Driver.
func (d *Driver) ExecuteMobile(ctx context.Context, command string, args map[string]interface{}) (interface{}, error) {
	d.mu.Lock()
	d.mobile = append(d.mobile, MobileCall{Command: command, Args: args})
	handler := d.OnMobile
	d.mu.Unlock()

	if handler == nil {
		return nil, nil
	}
	return handler(d, command, args)
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	return append([]byte(nil), d.screenshot...), nil
}

// Quit implements core.Driver.
func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
	return d.QuitErr
}

// Element is a mock UI element. New elements are displayed and enabled.
type Element struct {
	// OnClick, if set, runs after each click.
	OnClick func()

	mu        sync.Mutex
	id        string
	text      string
	displayed bool
	enabled   bool
	stale     bool
	clicks    int
}

// NewElement creates a displayed, enabled element with the given text.
func NewElement(text string) *Element {
	return &Element{
		id:        uuid.NewString(),
		text:      text,
		displayed: true,
		enabled:   true,
	}
}

// SetDisplayed changes visibility.
func (e *Element) SetDisplayed(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.displayed = v
}

// SetEnabled changes the enabled state.
func (e *Element) SetEnabled(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = v
}

// SetText replaces the element text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// SetStale makes every subsequent call fail with core.ErrStaleElement.
func (e *Element) SetStale(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = v
}

// Clicks returns the number of successful clicks.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// CurrentText returns the text without going through the core.Element API.
func (e *Element) CurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// ID implements core.Element.
func (e *Element) ID() string {
	return e.id
}

// Click implements core.Element.
func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if e.stale {
		e.mu.Unlock()
		return core.ErrStaleElement
	}
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		onClick()
	}
	return nil
}

// Clear implements core.Element.
func (e *Element) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return core.ErrStaleElement
	}
	e.text = ""
	return nil
}

// SendKeys implements core.Element. Text is appended, as on a real text field.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return core.ErrStaleElement
	}
	e.text += text
	return nil
}

// Text implements core.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return "", core.ErrStaleElement
	}
	return e.text, nil
}

// IsDisplayed implements core.Element.
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return false, core.ErrStaleElement
	}
	return e.displayed, nil
}

// IsEnabled implements core.Element.
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stale {
		return false, core.ErrStaleElement
	}
	return e.enabled, nil
}
