package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type localAccount struct {
	uid      string
	email    string
	passHash []byte
	verified bool
}

// LocalProvider is an in-process Authenticator. It models the single-client
// semantics of the product: one principal is signed in at a time, and state
// changes fan out to subscribers synchronously.
type LocalProvider struct {
	mu          sync.RWMutex
	accounts    map[string]*localAccount // keyed by lowercase email
	current     string                   // uid of signed-in principal, "" when signed out
	subscribers map[int]func()
	nextSubID   int

	// FailReload simulates a backend outage on ReloadPrincipal. Tests use it
	// to exercise the coordinator's transient-failure path.
	FailReload error
}

var _ Authenticator = (*LocalProvider)(nil)

// NewLocalProvider creates an empty provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		accounts:    make(map[string]*localAccount),
		subscribers: make(map[int]func()),
	}
}

func (p *LocalProvider) SignUp(_ context.Context, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Principal{}, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 6 {
		return Principal{}, fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, err
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return Principal{}, ErrEmailTaken
	}

	acct := &localAccount{
		uid:      uuid.NewString(),
		email:    email,
		passHash: hash,
	}
	p.accounts[email] = acct
	p.current = acct.uid
	p.mu.Unlock()

	p.notify()
	return principalOf(acct), nil
}

func (p *LocalProvider) SignIn(_ context.Context, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok || bcrypt.CompareHashAndPassword(acct.passHash, []byte(password)) != nil {
		p.mu.Unlock()
		return Principal{}, ErrInvalidCredentials
	}
	p.current = acct.uid
	p.mu.Unlock()

	p.notify()
	return principalOf(acct), nil
}

func (p *LocalProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	changed := p.current != ""
	p.current = ""
	p.mu.Unlock()

	if changed {
		p.notify()
	}
	return nil
}

func (p *LocalProvider) CurrentPrincipal(_ context.Context) (Principal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentLocked()
}

func (p *LocalProvider) ReloadPrincipal(ctx context.Context) (Principal, error) {
	if err := ctx.Err(); err != nil {
		return Principal{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.FailReload != nil {
		return Principal{}, p.FailReload
	}
	return p.currentLocked()
}

func (p *LocalProvider) currentLocked() (Principal, error) {
	if p.current == "" {
		return Principal{}, ErrNotAuthenticated
	}
	for _, acct := range p.accounts {
		if acct.uid == p.current {
			return principalOf(acct), nil
		}
	}
	return Principal{}, ErrNotAuthenticated
}

func (p *LocalProvider) SendVerificationEmail(_ context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == "" {
		return ErrNotAuthenticated
	}
	// The local provider has no mail transport; verification completes via
	// MarkVerified.
	return nil
}

// MarkVerified flips the verified flag for an email, standing in for the user
// clicking the verification link.
func (p *LocalProvider) MarkVerified(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("no account for %s", email)
	}
	acct.verified = true
	p.mu.Unlock()

	p.notify()
	return nil
}

func (p *LocalProvider) Subscribe(fn func()) func() {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) notify() {
	p.mu.RLock()
	fns := make([]func(), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func principalOf(acct *localAccount) Principal {
	return Principal{UID: acct.uid, Email: acct.email, EmailVerified: acct.verified}
}
