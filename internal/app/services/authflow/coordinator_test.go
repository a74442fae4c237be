package authflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
	"github.com/StackLine-App/pokerbase/internal/auth"
	"github.com/StackLine-App/pokerbase/internal/cache"
)

// stubAuth is a scriptable Authenticator for exercising the coordinator.
type stubAuth struct {
	mu        sync.Mutex
	principal auth.Principal
	signedIn  bool
	reloadErr error
	// reloadGate, when set, blocks ReloadPrincipal until released.
	reloadGate chan struct{}
	reloads    atomic.Int32
	signOuts   atomic.Int32

	subscribers []func()
}

func (s *stubAuth) SignUp(context.Context, string, string) (auth.Principal, error) {
	return auth.Principal{}, errors.New("not scripted")
}

func (s *stubAuth) SignIn(context.Context, string, string) (auth.Principal, error) {
	return auth.Principal{}, errors.New("not scripted")
}

func (s *stubAuth) SignOut(context.Context) error {
	s.signOuts.Add(1)
	s.mu.Lock()
	s.signedIn = false
	s.mu.Unlock()
	return nil
}

func (s *stubAuth) CurrentPrincipal(context.Context) (auth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return auth.Principal{}, auth.ErrNotAuthenticated
	}
	return s.principal, nil
}

func (s *stubAuth) ReloadPrincipal(ctx context.Context) (auth.Principal, error) {
	s.reloads.Add(1)
	s.mu.Lock()
	gate := s.reloadGate
	reloadErr := s.reloadErr
	signedIn := s.signedIn
	principal := s.principal
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return auth.Principal{}, ctx.Err()
		}
	}
	if reloadErr != nil {
		return auth.Principal{}, reloadErr
	}
	if !signedIn {
		return auth.Principal{}, auth.ErrNotAuthenticated
	}
	return principal, nil
}

func (s *stubAuth) SendVerificationEmail(context.Context) error { return nil }

func (s *stubAuth) Subscribe(fn func()) func() {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
	return func() {}
}

func (s *stubAuth) fire() {
	s.mu.Lock()
	subs := append([]func(){}, s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func signedInStub(verified bool) *stubAuth {
	return &stubAuth{
		signedIn:  true,
		principal: auth.Principal{UID: "u1", Email: "a@b.co", EmailVerified: verified},
	}
}

func TestRefresh_SignedOut(t *testing.T) {
	c := New(&stubAuth{}, memory.New(), cache.NewMemory(0), nil)

	state, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, SignedOut(), state)

	snap := c.Snapshot()
	require.False(t, snap.Transient)
	require.NoError(t, snap.Err)
}

func TestRefresh_DecisionTable(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name       string
		verified   bool
		hasProfile bool
		want       Kind
	}{
		{"unverified no profile", false, false, KindEmailVerification},
		{"unverified with profile", false, true, KindEmailVerification},
		{"verified no profile", true, false, KindProfileSetup},
		{"verified with profile", true, true, KindMain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			if tc.hasProfile {
				_, err := store.CreateProfile(ctx, profile.Profile{ID: "u1", Username: "hero"})
				require.NoError(t, err)
			}

			c := New(signedInStub(tc.verified), store, cache.NewMemory(0), nil)
			state, err := c.Refresh(ctx)
			require.NoError(t, err)
			require.Equal(t, tc.want, state.Kind)
			if tc.want == KindMain {
				require.Equal(t, "u1", state.UserID)
			}
		})
	}
}

func TestRefresh_MainCachesProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreateProfile(ctx, profile.Profile{ID: "u1", Username: "hero"})
	require.NoError(t, err)

	profileCache := cache.NewMemory(0)
	c := New(signedInStub(true), store, profileCache, nil)

	state, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, Main("u1"), state)

	cached, err := profileCache.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "hero", cached.Username)
}

func TestRefresh_CacheHitSkipsStore(t *testing.T) {
	ctx := context.Background()
	profileCache := cache.NewMemory(0)
	require.NoError(t, profileCache.Set(ctx, profile.Profile{ID: "u1", Username: "hero"}))

	// Empty store: a cache hit must be enough to reach main.
	c := New(signedInStub(true), memory.New(), profileCache, nil)
	state, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, KindMain, state.Kind)
}

func TestRefresh_TransientFailureDegradesToSignedOut(t *testing.T) {
	stub := signedInStub(true)
	stub.reloadErr = errors.New("backend unreachable")

	c := New(stub, memory.New(), cache.NewMemory(0), nil)
	state, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, KindSignedOut, state.Kind)

	snap := c.Snapshot()
	require.True(t, snap.Transient)
	require.Error(t, snap.Err)
}

func TestRefresh_PermissionDeniedForcesSignOut(t *testing.T) {
	stub := signedInStub(true)
	stub.reloadErr = auth.ErrPermissionDenied

	c := New(stub, memory.New(), cache.NewMemory(0), nil)
	state, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, KindSignedOut, state.Kind)
	require.Equal(t, int32(1), stub.signOuts.Load())

	snap := c.Snapshot()
	require.False(t, snap.Transient, "revoked credentials are not a transient outage")
}

func TestRefresh_SingleFlight(t *testing.T) {
	stub := signedInStub(true)
	stub.reloadGate = make(chan struct{})

	c := New(stub, memory.New(), cache.NewMemory(0), nil)

	done := make(chan State, 1)
	go func() {
		state, _ := c.Refresh(context.Background())
		done <- state
	}()

	// Wait until the first refresh is parked inside ReloadPrincipal.
	require.Eventually(t, func() bool { return stub.reloads.Load() == 1 },
		time.Second, time.Millisecond)

	_, err := c.Refresh(context.Background())
	require.ErrorIs(t, err, ErrRefreshInFlight)
	require.Equal(t, int32(1), stub.reloads.Load(), "second refresh must not reach the backend")

	close(stub.reloadGate)
	<-done
}

func TestRefresh_CoalescedFollowUp(t *testing.T) {
	stub := signedInStub(true)
	stub.reloadGate = make(chan struct{})

	store := memory.New()
	_, err := store.CreateProfile(context.Background(), profile.Profile{ID: "u1", Username: "hero"})
	require.NoError(t, err)

	c := New(stub, store, cache.NewMemory(0), nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	// First trigger parks in ReloadPrincipal; the rest must collapse into a
	// single follow-up refresh.
	require.Eventually(t, func() bool { return stub.reloads.Load() == 1 },
		time.Second, time.Millisecond)
	stub.fire()
	stub.fire()
	stub.fire()

	stub.mu.Lock()
	gate := stub.reloadGate
	stub.reloadGate = nil
	stub.mu.Unlock()
	close(gate)

	require.Eventually(t, func() bool { return c.State().Kind == KindMain },
		time.Second, time.Millisecond)
	require.LessOrEqual(t, stub.reloads.Load(), int32(3),
		"redundant triggers must coalesce, not queue")
}

func TestForce(t *testing.T) {
	c := New(&stubAuth{}, memory.New(), cache.NewMemory(0), nil)
	c.Force(Main("u9"))
	require.Equal(t, Main("u9"), c.State())
}

func TestRefresh_TimeoutDegrades(t *testing.T) {
	stub := signedInStub(true)
	stub.reloadGate = make(chan struct{}) // never released

	c := New(stub, memory.New(), cache.NewMemory(0), nil, WithTimeout(20*time.Millisecond))
	state, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, KindSignedOut, state.Kind)
	require.True(t, c.Snapshot().Transient)
}
