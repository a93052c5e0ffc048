package appium

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
)

// Dialer opens Appium sessions. It implements core.Dialer.
type Dialer struct {
	// HTTPClient is used for every request; nil means a client with a 5 minute timeout.
	HTTPClient *http.Client
}

// Dial creates a remote session. A single attempt is made.
func (d Dialer) Dial(ctx context.Context, serverURL string, capabilities map[string]interface{}) (core.Driver, error) {
	var client *Client
	if d.HTTPClient != nil {
		client = NewClientWithHTTP(serverURL, d.HTTPClient)
	} else {
		client = NewClient(serverURL)
	}

	logger.Debug("appium: creating session at %s", serverURL)
	if err := client.Connect(ctx, capabilities); err != nil {
		return nil, err
	}
	logger.Debug("appium: session %s created (platform %s)", client.SessionID(), client.Platform())

	return &Driver{client: client}, nil
}

// Driver implements core.Driver using Appium server.
type Driver struct {
	client *Client
}

// NewDriver wraps an already connected client.
func NewDriver(client *Client) *Driver {
	return &Driver{client: client}
}

// Client returns the underlying HTTP client.
func (d *Driver) Client() *Client {
	return d.client
}

// SessionID implements core.Driver.
func (d *Driver) SessionID() string {
	return d.client.SessionID()
}

// FindElement implements core.Driver.
func (d *Driver) FindElement(ctx context.Context, loc core.Locator) (core.Element, error) {
	id, err := d.client.FindElement(ctx, loc.Strategy, loc.Value)
	if err != nil {
		return nil, mapError(err)
	}
	return &element{id: id, client: d.client}, nil
}

// SetImplicitWait implements core.Driver.
func (d *Driver) SetImplicitWait(ctx context.Context, timeout time.Duration) error {
	return mapError(d.client.SetImplicitWait(ctx, timeout))
}

// WindowRect implements core.Driver.
func (d *Driver) WindowRect(ctx context.Context) (core.Rect, error) {
	x, y, w, h, err := d.client.WindowRect(ctx)
	if err != nil {
		return core.Rect{}, mapError(err)
	}
	return core.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

// ExecuteMobile implements core.Driver.
func (d *Driver) ExecuteMobile(ctx context.Context, command string, args map[string]interface{}) (interface{}, error) {
	v, err := d.client.ExecuteMobile(ctx, command, args)
	return v, mapError(err)
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.client.Screenshot(ctx)
	return data, mapError(err)
}

// Quit implements core.Driver.
func (d *Driver) Quit(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

type element struct {
	id     string
	client *Client
}

func (e *element) ID() string { return e.id }

func (e *element) Click(ctx context.Context) error {
	return mapError(e.client.ClickElement(ctx, e.id))
}

func (e *element) Clear(ctx context.Context) error {
	return mapError(e.client.ClearElement(ctx, e.id))
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return mapError(e.client.SendKeysToElement(ctx, e.id, text))
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.client.GetElementText(ctx, e.id)
	return text, mapError(err)
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	v, err := e.client.IsElementDisplayed(ctx, e.id)
	return v, mapError(err)
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	v, err := e.client.IsElementEnabled(ctx, e.id)
	return v, mapError(err)
}

// mapError translates W3C error codes the wait engine cares about into core sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) {
		return err
	}
	switch wdErr.Code {
	case errNoSuchElement:
		return fmt.Errorf("%w: %s", core.ErrNoSuchElement, wdErr.Message)
	case errStaleElement:
		return fmt.Errorf("%w: %s", core.ErrStaleElement, wdErr.Message)
	case errInvalidSession:
		return core.ErrIllegalState.WithMessage("remote session is gone").WithCause(wdErr)
	default:
		return err
	}
}
