// Package page provides the platform-agnostic action surface used by page
// objects, and dispatch of page variants by the session's platform.
package page

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/screenshot"
	"github.com/devicelab-dev/pagedriver/pkg/session"
	"github.com/devicelab-dev/pagedriver/pkg/wait"
)

// DefaultDisplayTimeout bounds IsDisplayed.
const DefaultDisplayTimeout = 5 * time.Second

type options struct {
	waitOpts       []wait.Option
	displayTimeout time.Duration
	maxSwipes      int
	screenshotDir  string
	scroller       Scroller
}

// Option configures a Context.
type Option func(*options)

// WithDisplayTimeout overrides the IsDisplayed fallback timeout.
func WithDisplayTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.displayTimeout = d
		}
	}
}

// WithWait passes options to the underlying waiter.
func WithWait(opts ...wait.Option) Option {
	return func(o *options) { o.waitOpts = append(o.waitOpts, opts...) }
}

// WithMaxSwipes bounds ScrollTo.
func WithMaxSwipes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSwipes = n
		}
	}
}

// WithScroller replaces the platform scroll strategy.
func WithScroller(s Scroller) Option {
	return func(o *options) { o.scroller = s }
}

// FromConfig applies explicit.wait, scroll.max.swipes and screenshot.path.
func FromConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.waitOpts = append(o.waitOpts, wait.FromConfig(cfg))
		o.screenshotDir = cfg.ScreenshotDir()
		n, err := cfg.Int(config.KeyMaxSwipes, config.DefaultMaxSwipes)
		if err != nil {
			logger.Warn("page: %v; using %d", err, o.maxSwipes)
			return
		}
		WithMaxSwipes(n)(o)
	}
}

// Context is bound to one execution's active session. Every action waits for
// its target explicitly before touching it.
type Context struct {
	sess           *session.Session
	waiter         *wait.Waiter
	scroller       Scroller
	displayTimeout time.Duration
	screenshotDir  string
	log            *logrus.Entry
}

// New binds a Context to the active session of the execution carried by ctx.
// The scroll strategy is chosen once, from the session's platform.
func New(ctx context.Context, reg *session.Registry, opts ...Option) (*Context, error) {
	sess, ok := reg.Get(ctx)
	if !ok {
		return nil, core.ErrIllegalState.WithMessage("page requires an active session")
	}

	o := options{
		displayTimeout: DefaultDisplayTimeout,
		maxSwipes:      config.DefaultMaxSwipes,
		screenshotDir:  config.DefaultScreenshots,
	}
	for _, opt := range opts {
		opt(&o)
	}

	scroller := o.scroller
	if scroller == nil {
		scroller = scrollerFor(sess.Platform(), o.maxSwipes)
	}

	return &Context{
		sess:           sess,
		waiter:         wait.New(sess, o.waitOpts...),
		scroller:       scroller,
		displayTimeout: o.displayTimeout,
		screenshotDir:  o.screenshotDir,
		log: logger.WithFields(logrus.Fields{
			"execution": sess.ExecutionID(),
			"platform":  sess.Platform().String(),
		}),
	}, nil
}

// Session returns the bound session.
func (c *Context) Session() *session.Session { return c.sess }

// Platform returns the bound session's platform.
func (c *Context) Platform() core.Platform { return c.sess.Platform() }

// Waiter returns the waiter used by every action.
func (c *Context) Waiter() *wait.Waiter { return c.waiter }

// Click waits for t to be clickable and clicks it.
func (c *Context) Click(ctx context.Context, t Target) error {
	c.log.Infof("Clicking on element: %s", t.Name())
	el, err := t.waitClickable(ctx, c.waiter, 0)
	if err != nil {
		return fmt.Errorf("click %s: %w", t.Name(), err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", t.Name(), err)
	}
	c.log.Debugf("Clicked on element: %s", t.Name())
	return nil
}

// EnterText replaces the content of t with text.
func (c *Context) EnterText(ctx context.Context, t Target, text string) error {
	c.log.Infof("Entering text into element: %s", t.Name())
	el, err := t.waitVisible(ctx, c.waiter, 0)
	if err != nil {
		return fmt.Errorf("enter text into %s: %w", t.Name(), err)
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name(), err)
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("enter text into %s: %w", t.Name(), err)
	}
	return nil
}

// Text waits for t to be visible and returns its text.
func (c *Context) Text(ctx context.Context, t Target) (string, error) {
	el, err := t.waitVisible(ctx, c.waiter, 0)
	if err != nil {
		return "", fmt.Errorf("get text of %s: %w", t.Name(), err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("get text of %s: %w", t.Name(), err)
	}
	c.log.Infof("Text from element '%s': %s", t.Name(), text)
	return text, nil
}

// IsDisplayed reports whether t becomes visible within the display timeout.
// Every failure, including cancellation, reads as false. The display timeout
// covers suspending the implicit wait and polling; restoring the implicit
// wait afterwards is one more round trip on top.
func (c *Context) IsDisplayed(ctx context.Context, t Target) bool {
	el, err := t.waitVisible(ctx, c.waiter, c.displayTimeout)
	if err != nil {
		c.log.Infof("Element '%s' not displayed: %v", t.Name(), err)
		return false
	}
	shown, err := el.IsDisplayed(ctx)
	if err != nil {
		c.log.Infof("Element '%s' not displayed: %v", t.Name(), err)
		return false
	}
	c.log.Infof("Element '%s' displayed: %t", t.Name(), shown)
	return shown
}

// WaitFor waits for t to be visible with the default timeout.
func (c *Context) WaitFor(ctx context.Context, t Target) (core.Element, error) {
	c.log.Debugf("Waiting for element: %s", t.Name())
	return t.waitVisible(ctx, c.waiter, 0)
}

// ScrollTo scrolls until t is displayed using the platform strategy.
func (c *Context) ScrollTo(ctx context.Context, t Target) error {
	c.log.Infof("Scrolling to element: %s", t.Name())
	if err := c.scroller.ScrollTo(ctx, c, t); err != nil {
		return err
	}
	c.log.Debugf("Scrolled to element: %s", t.Name())
	return nil
}

// Screenshot captures the current screen into the configured screenshot dir.
func (c *Context) Screenshot(ctx context.Context, name string) (core.Attachment, error) {
	return screenshot.CaptureSession(ctx, c.sess, name, c.screenshotDir, true)
}
