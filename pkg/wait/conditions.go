package wait

import (
	"context"
	"errors"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

// ErrConditionUnmet tells the waiter to poll again.
var ErrConditionUnmet = errors.New("condition not met")

// Condition is evaluated once per poll. It returns the element satisfying the
// condition (nil for conditions about absence), ErrConditionUnmet to keep
// polling, or a driver error. No-such-element and stale-element errors are
// retried; any other error aborts the wait.
type Condition func(ctx context.Context, d core.Driver) (core.Element, error)

// PresenceOf is met once loc resolves to an element.
func PresenceOf(loc core.Locator) Condition {
	return func(ctx context.Context, d core.Driver) (core.Element, error) {
		return d.FindElement(ctx, loc)
	}
}

// VisibilityOf is met once loc resolves to a displayed element.
func VisibilityOf(loc core.Locator) Condition {
	return func(ctx context.Context, d core.Driver) (core.Element, error) {
		el, err := d.FindElement(ctx, loc)
		if err != nil {
			return nil, err
		}
		return ElementVisible(el)(ctx, d)
	}
}

// ClickabilityOf is met once loc resolves to a displayed, enabled element.
func ClickabilityOf(loc core.Locator) Condition {
	return func(ctx context.Context, d core.Driver) (core.Element, error) {
		el, err := d.FindElement(ctx, loc)
		if err != nil {
			return nil, err
		}
		return ElementClickable(el)(ctx, d)
	}
}

// InvisibilityOf is met once loc is absent, stale or not displayed.
func InvisibilityOf(loc core.Locator) Condition {
	return func(ctx context.Context, d core.Driver) (core.Element, error) {
		el, err := d.FindElement(ctx, loc)
		if errors.Is(err, core.ErrNoSuchElement) || errors.Is(err, core.ErrStaleElement) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		shown, err := el.IsDisplayed(ctx)
		if errors.Is(err, core.ErrStaleElement) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if shown {
			return nil, ErrConditionUnmet
		}
		return nil, nil
	}
}

// ElementVisible is met once an already resolved element is displayed.
func ElementVisible(el core.Element) Condition {
	return func(ctx context.Context, _ core.Driver) (core.Element, error) {
		shown, err := el.IsDisplayed(ctx)
		if err != nil {
			return nil, err
		}
		if !shown {
			return nil, ErrConditionUnmet
		}
		return el, nil
	}
}

// ElementClickable is met once an already resolved element is displayed and enabled.
func ElementClickable(el core.Element) Condition {
	return func(ctx context.Context, d core.Driver) (core.Element, error) {
		if _, err := ElementVisible(el)(ctx, d); err != nil {
			return nil, err
		}
		enabled, err := el.IsEnabled(ctx)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, ErrConditionUnmet
		}
		return el, nil
	}
}

// Retryable reports whether a poll error means "try again".
func Retryable(err error) bool {
	return errors.Is(err, ErrConditionUnmet) ||
		errors.Is(err, core.ErrNoSuchElement) ||
		errors.Is(err, core.ErrStaleElement)
}
