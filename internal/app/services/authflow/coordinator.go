// Package authflow decides which top-level screen the client shows, derived
// from backend auth state plus profile existence. It is the single writer of
// the flow state.
package authflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/metrics"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/internal/auth"
	"github.com/StackLine-App/pokerbase/internal/cache"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// ErrRefreshInFlight reports that a refresh was requested while one was
// already executing. The request is coalesced into exactly one follow-up
// refresh, so callers do not need to re-trigger.
var ErrRefreshInFlight = errors.New("refresh already in flight")

const defaultRefreshTimeout = 15 * time.Second

// Coordinator derives the flow state from the authentication backend and the
// profile store. At most one refresh runs at a time; auth state-change events
// are coalesced through a 1-buffered trigger channel.
type Coordinator struct {
	auth     auth.Authenticator
	profiles storage.ProfileStore
	cache    cache.ProfileCache
	log      *logger.Logger
	timeout  time.Duration

	inFlight atomic.Bool
	pending  atomic.Bool
	trigger  chan struct{}

	mu        sync.RWMutex
	state     State
	lastErr   error
	transient bool
	onChange  func(State)

	stop        chan struct{}
	done        chan struct{}
	unsubscribe func()
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithTimeout bounds a single refresh cycle end to end.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnChange registers a callback invoked after every state transition,
// from the refresh goroutine.
func WithOnChange(fn func(State)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// New creates a coordinator in the Loading state.
func New(authenticator auth.Authenticator, profiles storage.ProfileStore, profileCache cache.ProfileCache, log *logger.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logger.NewDefault("authflow")
	}
	if profileCache == nil {
		profileCache = cache.NewMemory(0)
	}
	c := &Coordinator{
		auth:     authenticator,
		profiles: profiles,
		cache:    profileCache,
		log:      log,
		timeout:  defaultRefreshTimeout,
		trigger:  make(chan struct{}, 1),
		state:    Loading(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state and last degraded-resolution cause.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, Err: c.lastErr, Transient: c.transient}
}

// State returns the current flow state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Force sets the state directly, bypassing a refresh. Used right after
// onboarding when the caller already knows the outcome.
func (c *Coordinator) Force(s State) {
	c.setState(s, nil, false)
	c.log.WithField("state", string(s.Kind)).Info("flow state forced")
}

// Trigger requests an asynchronous refresh. Redundant triggers while one is
// queued or running collapse into a single refresh.
func (c *Coordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Refresh recomputes the flow state. If a refresh is already executing the
// call returns the current state and ErrRefreshInFlight, and one follow-up
// refresh is scheduled.
func (c *Coordinator) Refresh(ctx context.Context) (State, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.pending.Store(true)
		return c.State(), ErrRefreshInFlight
	}
	defer func() {
		c.inFlight.Store(false)
		if c.pending.CompareAndSwap(true, false) {
			c.Trigger()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.setState(Loading(), nil, false)
	state := c.resolve(ctx)
	return state, nil
}

// resolve walks the decision table: signed out, unverified, missing profile,
// then main. Every backend failure degrades to SignedOut, with the transient
// flag distinguishing outages from a genuine signed-out principal.
func (c *Coordinator) resolve(ctx context.Context) State {
	principal, err := c.auth.CurrentPrincipal(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return c.conclude(SignedOut(), nil, false)
	}
	if err != nil {
		return c.degrade("current principal", err)
	}

	// Force a reload so the verified flag is fresh.
	principal, err = c.auth.ReloadPrincipal(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return c.conclude(SignedOut(), nil, false)
	}
	if errors.Is(err, auth.ErrPermissionDenied) {
		// Revoked credentials: force a sign-out so the stale principal
		// cannot linger.
		if signOutErr := c.auth.SignOut(ctx); signOutErr != nil {
			c.log.WithError(signOutErr).Warn("forced sign-out failed")
		}
		return c.conclude(SignedOut(), err, false)
	}
	if err != nil {
		return c.degrade("reload principal", err)
	}

	if !principal.EmailVerified {
		return c.conclude(EmailVerification(), nil, false)
	}

	p, cached, exists, err := c.lookupProfile(ctx, principal.UID)
	if err != nil {
		return c.degrade("profile lookup", err)
	}
	if !exists {
		return c.conclude(ProfileSetup(), nil, false)
	}
	if !cached {
		// Profile came from the store; make sure the cache holds it before
		// entering main.
		if err := c.cache.Set(ctx, p); err != nil {
			c.log.WithError(err).Warn("profile cache set failed")
		}
	}
	return c.conclude(Main(principal.UID), nil, false)
}

// lookupProfile checks the cache first and falls back to a point lookup.
// Returns whether the cache already held the profile and whether it exists.
func (c *Coordinator) lookupProfile(ctx context.Context, userID string) (p profile.Profile, cached, exists bool, err error) {
	if hit, err := c.cache.Get(ctx, userID); err == nil {
		return hit, true, true, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.log.WithError(err).Warn("profile cache get failed")
	}

	p, err = c.profiles.GetProfile(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, false, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, false, err
	}
	return p, false, true, nil
}

func (c *Coordinator) degrade(stage string, err error) State {
	c.log.WithError(err).WithField("stage", stage).Warn("flow refresh degraded to signed out")
	return c.conclude(SignedOut(), err, true)
}

func (c *Coordinator) conclude(s State, err error, transient bool) State {
	c.setState(s, err, transient)
	outcome := string(s.Kind)
	if transient {
		outcome = "transient_failure"
	}
	metrics.RecordFlowRefresh(outcome)
	return s
}

func (c *Coordinator) setState(s State, err error, transient bool) {
	c.mu.Lock()
	c.state = s
	c.lastErr = err
	c.transient = transient
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Name implements system.Service.
func (c *Coordinator) Name() string { return "authflow-coordinator" }

// Start subscribes to auth state changes and begins consuming triggers.
func (c *Coordinator) Start(ctx context.Context) error {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.unsubscribe = c.auth.Subscribe(c.Trigger)

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.stop:
				return
			case <-c.trigger:
				// ErrRefreshInFlight sets the pending flag, which queues
				// exactly one follow-up when the running refresh completes.
				if _, err := c.Refresh(context.Background()); err != nil && !errors.Is(err, ErrRefreshInFlight) {
					c.log.WithError(err).Warn("flow refresh failed")
				}
			}
		}
	}()

	// Resolve the initial state instead of sitting in Loading until the
	// first auth event.
	c.Trigger()
	return nil
}

// Stop unsubscribes and waits for the trigger loop to exit.
func (c *Coordinator) Stop(ctx context.Context) error {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.stop == nil {
		return nil
	}
	close(c.stop)
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
