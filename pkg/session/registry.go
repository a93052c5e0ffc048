package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/devicelab-dev/pagedriver/pkg/capability"
	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/logger"
	"github.com/devicelab-dev/pagedriver/pkg/tracing"
)

// quitTimeout bounds Quit calls made during teardown and failed initialization.
const quitTimeout = 30 * time.Second

// Registry holds at most one active session per execution id.
type Registry struct {
	dialer  core.Dialer
	limiter *rate.Limiter // nil: unlimited
	slots   sync.Map      // execution id -> *Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithDialRate limits session creation across all executions to perSecond.
// perSecond <= 0 removes the limit.
func WithDialRate(perSecond float64) Option {
	return func(r *Registry) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewRegistry creates a registry that opens sessions through dialer.
func NewRegistry(dialer core.Dialer, opts ...Option) *Registry {
	r := &Registry{dialer: dialer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OptionsFromConfig reads session.create.rate (sessions per second).
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	perSecond, err := cfg.Float(config.KeySessionRate, 0)
	if err != nil {
		return nil, err
	}
	return []Option{WithDialRate(perSecond)}, nil
}

// Initialize creates the session for the execution carried by ctx.
//
// Configuration problems fail with core.ErrConfiguration before anything is
// sent to the server. A rejected or unreachable server, or a failure to apply
// the baseline implicit wait, fails with core.ErrSessionInit. In every failure
// case nothing is installed.
func (r *Registry) Initialize(ctx context.Context, cfg *config.Config) (sess *Session, err error) {
	execID, ok := ExecutionFrom(ctx)
	if !ok {
		return nil, core.ErrIllegalState.WithMessage("no execution id in context")
	}
	if existing, ok := r.Get(ctx); ok {
		return nil, core.ErrIllegalState.WithMessagef(
			"execution %s already has active session %s", execID, existing.ID())
	}

	ctx, span := tracing.StartSpan(ctx, "session.initialize", map[string]string{
		"execution.id":  execID,
		"platform.type": cfg.PlatformType(),
	})
	defer func() { tracing.EndSpan(span, err) }()

	platform, err := core.ParsePlatform(cfg.PlatformType())
	if err != nil {
		return nil, err
	}
	caps, err := capability.Build(cfg)
	if err != nil {
		return nil, err
	}
	serverURL, err := validateServerURL(cfg.ServerURL())
	if err != nil {
		return nil, err
	}
	implicit, err := cfg.ImplicitWait()
	if err != nil {
		return nil, err
	}

	s := &Session{
		executionID:  execID,
		platform:     platform,
		caps:         caps,
		implicitWait: implicit,
	}
	s.state.Store(int32(core.StateNew))
	s.transition(core.StateNew, core.StateInitializing)

	log := logger.WithFields(logrus.Fields{
		"execution": execID,
		"platform":  platform.String(),
	})
	log.Debugf("opening session at %s (%s)", serverURL, capability.Describe(caps))

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			s.transition(core.StateInitializing, core.StateFailed)
			return nil, core.ErrSessionInit.
				WithMessage("session creation cancelled while rate limited").
				WithCause(err)
		}
	}

	drv, err := r.dialer.Dial(ctx, serverURL, caps.W3C())
	if err != nil {
		s.transition(core.StateInitializing, core.StateFailed)
		log.Errorf("session init failed: %v", err)
		return nil, core.ErrSessionInit.
			WithMessagef("failed to create %s session at %s", platform, serverURL).
			WithCause(err)
	}
	s.driver = drv
	s.id = drv.SessionID()

	if err := drv.SetImplicitWait(ctx, implicit); err != nil {
		s.transition(core.StateInitializing, core.StateFailed)
		quitQuietly(ctx, drv)
		log.Errorf("session %s: implicit wait rejected: %v", s.id, err)
		return nil, core.ErrSessionInit.
			WithMessagef("failed to apply implicit wait %s", implicit).
			WithCause(err)
	}

	s.createdAt = time.Now()
	s.transition(core.StateInitializing, core.StateActive)
	if _, loaded := r.slots.LoadOrStore(execID, s); loaded {
		// Another Initialize on the same execution won the slot.
		s.state.Store(int32(core.StateFailed))
		quitQuietly(ctx, drv)
		return nil, core.ErrIllegalState.WithMessagef("execution %s already has an active session", execID)
	}

	span.WithAttributes(map[string]string{"session.id": s.id})
	log.Infof("session %s active", s.id)
	return s, nil
}

// Get returns the active session of the execution carried by ctx. It never blocks.
func (r *Registry) Get(ctx context.Context) (*Session, bool) {
	execID, ok := ExecutionFrom(ctx)
	if !ok {
		return nil, false
	}
	v, ok := r.slots.Load(execID)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	if !s.IsActive() {
		return nil, false
	}
	return s, true
}

// Teardown quits the session of the execution carried by ctx and removes it.
// It is a no-op when there is no session. The slot is cleared even when the
// remote quit fails; that failure is returned wrapped in core.ErrTeardown.
func (r *Registry) Teardown(ctx context.Context) (err error) {
	execID, ok := ExecutionFrom(ctx)
	if !ok {
		return nil
	}
	v, ok := r.slots.Load(execID)
	if !ok {
		return nil
	}
	s := v.(*Session)
	if !s.transition(core.StateActive, core.StateTerminating) {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "session.teardown", map[string]string{
		"execution.id": execID,
		"session.id":   s.id,
	})
	defer func() { tracing.EndSpan(span, err) }()

	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), quitTimeout)
	defer cancel()
	quitErr := s.driver.Quit(qctx)

	r.slots.Delete(execID)
	s.transition(core.StateTerminating, core.StateClosed)

	if quitErr != nil {
		logger.Warn("session %s: quit failed: %v", s.id, quitErr)
		return core.ErrTeardown.WithMessagef("failed to quit session %s", s.id).WithCause(quitErr)
	}
	logger.Info("session %s closed", s.id)
	return nil
}

// Active returns the number of live sessions across all executions.
func (r *Registry) Active() int {
	n := 0
	r.slots.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func validateServerURL(raw string) (string, error) {
	if raw == "" {
		return "", core.ErrConfiguration.WithMessagef("%s is required", config.KeyServerURL)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", core.ErrConfiguration.
			WithMessagef("%s: %q is not an http(s) URL", config.KeyServerURL, raw).
			WithDetails(map[string]interface{}{"key": config.KeyServerURL})
	}
	return raw, nil
}

func quitQuietly(ctx context.Context, drv core.Driver) {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), quitTimeout)
	defer cancel()
	if err := drv.Quit(qctx); err != nil {
		logger.Warn("session %s: quit after failed init: %v", drv.SessionID(), err)
	}
}
