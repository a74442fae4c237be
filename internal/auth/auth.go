// Package auth defines the authentication backend surface the application
// depends on: sign-in/sign-up/sign-out, the email-verified flag, principal
// reload and state-change subscription. Implementations wrap a managed
// identity service; LocalProvider is the self-contained implementation used
// for development and tests.
package auth

import (
	"context"
	"errors"
)

// Sentinel errors. The auth flow coordinator branches on these, so
// implementations must return them (wrapped is fine) rather than free-form
// strings.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPermissionDenied   = errors.New("permission denied")
)

// Principal is the authenticated identity returned by the authentication
// service, distinct from the application profile.
type Principal struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Authenticator is the authentication service contract.
type Authenticator interface {
	// SignUp registers a new identity and signs it in. The principal starts
	// unverified.
	SignUp(ctx context.Context, email, password string) (Principal, error)

	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (Principal, error)

	// SignOut clears the current principal.
	SignOut(ctx context.Context) error

	// CurrentPrincipal returns the signed-in principal without a backend
	// round trip, or ErrNotAuthenticated.
	CurrentPrincipal(ctx context.Context) (Principal, error)

	// ReloadPrincipal re-fetches the principal from the backend so the
	// email-verified flag is fresh.
	ReloadPrincipal(ctx context.Context) (Principal, error)

	// SendVerificationEmail requests a verification email for the current
	// principal.
	SendVerificationEmail(ctx context.Context) error

	// Subscribe registers a callback invoked on every auth state change.
	// The returned function removes the subscription.
	Subscribe(fn func()) (unsubscribe func())
}
