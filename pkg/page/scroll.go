package page

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/wait"
)

// Scroller brings a target into view. It is the only platform-specific
// behaviour a Context has.
type Scroller interface {
	ScrollTo(ctx context.Context, c *Context, t Target) error
}

func scrollerFor(p core.Platform, maxSwipes int) Scroller {
	if p == core.PlatformIOS {
		return IOSScroller{MaxSwipes: maxSwipes}
	}
	return AndroidScroller{MaxSwipes: maxSwipes}
}

// AndroidScroller swipes down with UiAutomator2's scrollGesture until the
// target is displayed, the gesture reports the end of the content, or
// MaxSwipes is reached.
type AndroidScroller struct {
	MaxSwipes int
}

// ScrollTo implements Scroller.
func (s AndroidScroller) ScrollTo(ctx context.Context, c *Context, t Target) error {
	restore, err := c.sess.SuspendImplicitWait(ctx)
	if err != nil {
		return err
	}
	defer restore()

	drv := c.sess.Driver()
	swipes := 0
	for {
		if ok, err := c.probe(ctx, t.visible()); err != nil || ok {
			return err
		}
		if swipes >= s.MaxSwipes {
			break
		}

		rect, err := drv.WindowRect(ctx)
		if err != nil {
			return fmt.Errorf("scroll to %s: %w", t.Name(), err)
		}
		// Gesture area is the middle of the screen, clear of system bars.
		more, err := drv.ExecuteMobile(ctx, "scrollGesture", map[string]interface{}{
			"left":      rect.X + rect.Width/10,
			"top":       rect.Y + rect.Height/5,
			"width":     rect.Width * 8 / 10,
			"height":    rect.Height * 3 / 5,
			"direction": "down",
			"percent":   0.75,
		})
		if err != nil {
			return fmt.Errorf("scroll to %s: %w", t.Name(), err)
		}
		swipes++

		if canScroll, ok := more.(bool); ok && !canScroll {
			if ok, err := c.probe(ctx, t.visible()); err != nil || ok {
				return err
			}
			break
		}
	}
	return notFound(t, swipes)
}

// IOSScroller uses XCUITest's scroll-to-visible when the target is already in
// the element tree, and otherwise swipes up until it appears.
type IOSScroller struct {
	MaxSwipes int
}

// ScrollTo implements Scroller.
func (s IOSScroller) ScrollTo(ctx context.Context, c *Context, t Target) error {
	restore, err := c.sess.SuspendImplicitWait(ctx)
	if err != nil {
		return err
	}
	defer restore()

	drv := c.sess.Driver()

	el, err := c.resolve(ctx, t.present())
	if err != nil {
		return err
	}
	if el != nil {
		if _, err := drv.ExecuteMobile(ctx, "scroll", map[string]interface{}{
			"elementId": el.ID(),
			"toVisible": true,
		}); err != nil {
			return fmt.Errorf("scroll to %s: %w", t.Name(), err)
		}
		if ok, err := c.probe(ctx, wait.ElementVisible(el)); err != nil || ok {
			return err
		}
	}

	swipes := 0
	for swipes < s.MaxSwipes {
		if _, err := drv.ExecuteMobile(ctx, "swipe", map[string]interface{}{"direction": "up"}); err != nil {
			return fmt.Errorf("scroll to %s: %w", t.Name(), err)
		}
		swipes++
		if ok, err := c.probe(ctx, t.visible()); err != nil || ok {
			return err
		}
	}
	return notFound(t, swipes)
}

// probe evaluates cond once. Retryable failures read as "not yet".
func (c *Context) probe(ctx context.Context, cond wait.Condition) (bool, error) {
	el, err := c.resolve(ctx, cond)
	return el != nil, err
}

func (c *Context) resolve(ctx context.Context, cond wait.Condition) (core.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.sess.IsActive() {
		return nil, core.ErrIllegalState
	}
	el, err := cond(ctx, c.sess.Driver())
	if err != nil {
		if wait.Retryable(err) {
			return nil, nil
		}
		return nil, err
	}
	return el, nil
}

func notFound(t Target, swipes int) error {
	return core.ErrElementNotFound.
		WithMessagef("%s not found after %d swipes", t.Name(), swipes).
		WithDetails(map[string]interface{}{"locator": t.key().String()})
}
