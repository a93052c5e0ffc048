// Package session owns the lifecycle of remote automation sessions. Sessions are
// bound to an execution id carried by context.Context, so concurrent scenarios
// never see each other's session.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/devicelab-dev/pagedriver/pkg/capability"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
)

// restoreTimeout bounds the call that puts the baseline implicit wait back.
const restoreTimeout = 10 * time.Second

// Session is one live remote session. It is created by Registry.Initialize and
// destroyed by Registry.Teardown; its platform never changes.
type Session struct {
	id           string
	executionID  string
	platform     core.Platform
	caps         capability.Set
	driver       core.Driver
	implicitWait time.Duration
	createdAt    time.Time
	state        atomic.Int32
}

// ID returns the remote session id.
func (s *Session) ID() string { return s.id }

// ExecutionID returns the execution the session belongs to.
func (s *Session) ExecutionID() string { return s.executionID }

// Platform returns the platform tag fixed at initialization.
func (s *Session) Platform() core.Platform { return s.platform }

// Capabilities returns the capability set the session was created with.
func (s *Session) Capabilities() capability.Set { return s.caps }

// Driver returns the underlying driver handle.
func (s *Session) Driver() core.Driver { return s.driver }

// ImplicitWait returns the baseline implicit wait.
func (s *Session) ImplicitWait() time.Duration { return s.implicitWait }

// CreatedAt returns when the session became active.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current lifecycle state.
func (s *Session) State() core.SessionState {
	return core.SessionState(s.state.Load())
}

// IsActive reports whether the session accepts element operations.
func (s *Session) IsActive() bool {
	return s.State() == core.StateActive
}

func (s *Session) transition(from, to core.SessionState) bool {
	if !from.CanTransition(to) {
		return false
	}
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// SuspendImplicitWait sets the server-side implicit wait to zero so an
// explicit wait's own timeout governs every lookup. The returned func restores
// the baseline; it must be called even if the wait's context was cancelled.
func (s *Session) SuspendImplicitWait(ctx context.Context) (func(), error) {
	if !s.IsActive() {
		return nil, core.ErrIllegalState
	}
	if s.implicitWait == 0 {
		return func() {}, nil
	}
	if err := s.driver.SetImplicitWait(ctx, 0); err != nil {
		return nil, err
	}

	return func() {
		if !s.IsActive() {
			return
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
		if err := s.driver.SetImplicitWait(rctx, s.implicitWait); err != nil {
			logger.Warn("session %s: failed to restore implicit wait %s: %v", s.id, s.implicitWait, err)
		}
	}, nil
}
