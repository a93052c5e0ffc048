// Package wait polls the active session until an element condition holds or a
// timeout elapses. While a wait is running the server-side implicit wait is
// suspended, so the explicit timeout is the only one in effect.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/session"
	"github.com/devicelab-dev/pagedriver/pkg/tracing"
)

// DefaultInterval is the polling interval.
const DefaultInterval = 200 * time.Millisecond

// Waiter runs explicit waits against one session.
type Waiter struct {
	sess     *session.Session
	timeout  time.Duration
	interval time.Duration
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithTimeout sets the default timeout used when a call passes timeout <= 0.
func WithTimeout(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// FromConfig takes the default timeout from explicit.wait. An unparsable value
// is logged and the built-in default kept.
func FromConfig(cfg *config.Config) Option {
	return func(w *Waiter) {
		d, err := cfg.ExplicitWait()
		if err != nil {
			logger.Warn("wait: %v; using %s", err, w.timeout)
			return
		}
		WithTimeout(d)(w)
	}
}

// New creates a waiter bound to sess.
func New(sess *session.Session, opts ...Option) *Waiter {
	w := &Waiter{
		sess:     sess,
		timeout:  config.DefaultExplicitWait,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Timeout returns the default timeout.
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Visible waits until loc resolves to a displayed element.
func (w *Waiter) Visible(ctx context.Context, loc core.Locator, timeout time.Duration) (core.Element, error) {
	return w.Until(ctx, loc, "visible", VisibilityOf(loc), timeout)
}

// Clickable waits until loc resolves to a displayed, enabled element.
func (w *Waiter) Clickable(ctx context.Context, loc core.Locator, timeout time.Duration) (core.Element, error) {
	return w.Until(ctx, loc, "clickable", ClickabilityOf(loc), timeout)
}

// Present waits until loc resolves to an element, displayed or not.
func (w *Waiter) Present(ctx context.Context, loc core.Locator, timeout time.Duration) (core.Element, error) {
	return w.Until(ctx, loc, "present", PresenceOf(loc), timeout)
}

// Invisible waits until loc is absent or hidden.
func (w *Waiter) Invisible(ctx context.Context, loc core.Locator, timeout time.Duration) error {
	_, err := w.Until(ctx, loc, "invisible", InvisibilityOf(loc), timeout)
	return err
}

// Sleep pauses unconditionally for d.
func (w *Waiter) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Until polls cond every interval until it is met or timeout elapses
// (timeout <= 0 means the waiter default). target and condition only label
// the timeout error. The timeout runs from the call, so it also covers
// suspending the implicit wait; one poll always lands on the deadline.
//
// On timeout the result is a *core.ElementTimeoutError. If ctx itself is
// cancelled, ctx.Err() is returned instead.
func (w *Waiter) Until(ctx context.Context, target core.Locator, condition string, cond Condition, timeout time.Duration) (el core.Element, err error) {
	if timeout <= 0 {
		timeout = w.timeout
	}
	if w.sess == nil || !w.sess.IsActive() {
		return nil, core.ErrIllegalState
	}
	start := time.Now()
	deadline := start.Add(timeout)

	ctx, span := tracing.StartSpan(ctx, "wait."+condition, map[string]string{
		"locator": target.String(),
		"timeout": timeout.String(),
	})
	defer func() { tracing.EndSpan(span, err) }()

	restore, err := w.sess.SuspendImplicitWait(ctx)
	if err != nil {
		return nil, err
	}
	defer restore()

	// A poll started at the deadline still gets one interval to answer.
	pctx, cancel := context.WithDeadline(ctx, deadline.Add(w.interval))
	defer cancel()

	var (
		found core.Element
		last  error
		polls int
	)
	driver := w.sess.Driver()

	op := func() error {
		polls++
		if !w.sess.IsActive() {
			return backoff.Permanent(core.ErrIllegalState)
		}
		e, err := cond(pctx, driver)
		switch {
		case err == nil:
			found = e
			return nil
		case Retryable(err):
			if !errors.Is(err, ErrConditionUnmet) {
				last = err
			}
			return err
		case pctx.Err() != nil && ctx.Err() == nil:
			// Cut short by our own deadline; the schedule stops next.
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	b := backoff.WithContext(&untilDeadline{interval: w.interval, deadline: deadline}, ctx)
	err = backoff.Retry(op, b)
	if err == nil {
		logger.Debug("wait: %s %s after %d polls (%s)", target, condition, polls, time.Since(start).Round(time.Millisecond))
		return found, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !time.Now().Before(deadline) || Retryable(err) {
		return nil, &core.ElementTimeoutError{
			Locator:   target,
			Condition: condition,
			Timeout:   timeout,
			Elapsed:   time.Since(start),
			Last:      last,
		}
	}
	return nil, err
}

// untilDeadline waits interval between polls and shortens the last wait so
// the final poll runs at the deadline.
type untilDeadline struct {
	interval time.Duration
	deadline time.Time
}

func (b *untilDeadline) NextBackOff() time.Duration {
	left := time.Until(b.deadline)
	switch {
	case left <= 0:
		return backoff.Stop
	case left < b.interval:
		return left
	default:
		return b.interval
	}
}

func (b *untilDeadline) Reset() {}
