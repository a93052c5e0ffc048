package page

import (
	"context"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/wait"
)

// Target is something a page action operates on: either a locator that is
// resolved again on every action, or an element that was already resolved.
type Target struct {
	label string
	loc   core.Locator
	el    core.Element
}

// Bind returns a lazily resolved target. Element handles are never cached.
func Bind(label string, loc core.Locator) Target {
	return Target{label: label, loc: loc}
}

// Resolved wraps an element that has already been found.
func Resolved(label string, el core.Element) Target {
	return Target{label: label, el: el}
}

// Name returns the human-readable label.
func (t Target) Name() string {
	return t.label
}

// Locator returns the bound locator; it is zero for resolved targets.
func (t Target) Locator() core.Locator {
	return t.loc
}

func (t Target) String() string {
	if t.el != nil {
		return t.label + " (element " + t.el.ID() + ")"
	}
	return t.label + " (" + t.loc.String() + ")"
}

// key identifies the target in wait errors.
func (t Target) key() core.Locator {
	if t.el != nil {
		return core.Locator{Strategy: "element", Value: t.el.ID()}
	}
	return t.loc
}

func (t Target) visible() wait.Condition {
	if t.el != nil {
		return wait.ElementVisible(t.el)
	}
	return wait.VisibilityOf(t.loc)
}

func (t Target) clickable() wait.Condition {
	if t.el != nil {
		return wait.ElementClickable(t.el)
	}
	return wait.ClickabilityOf(t.loc)
}

func (t Target) present() wait.Condition {
	if t.el != nil {
		return func(context.Context, core.Driver) (core.Element, error) { return t.el, nil }
	}
	return wait.PresenceOf(t.loc)
}

func (t Target) waitVisible(ctx context.Context, w *wait.Waiter, timeout time.Duration) (core.Element, error) {
	return w.Until(ctx, t.key(), "visible", t.visible(), timeout)
}

func (t Target) waitClickable(ctx context.Context, w *wait.Waiter, timeout time.Duration) (core.Element, error) {
	return w.Until(ctx, t.key(), "clickable", t.clickable(), timeout)
}
