// Package app assembles the service layer on top of the storage backends.
package app

import (
	"context"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/services/authflow"
	"github.com/StackLine-App/pokerbase/internal/app/services/challenges"
	"github.com/StackLine-App/pokerbase/internal/app/services/groups"
	"github.com/StackLine-App/pokerbase/internal/app/services/hands"
	"github.com/StackLine-App/pokerbase/internal/app/services/posts"
	"github.com/StackLine-App/pokerbase/internal/app/services/profiles"
	"github.com/StackLine-App/pokerbase/internal/app/services/sessions"
	"github.com/StackLine-App/pokerbase/internal/app/services/stakes"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
	"github.com/StackLine-App/pokerbase/internal/app/system"
	"github.com/StackLine-App/pokerbase/internal/auth"
	"github.com/StackLine-App/pokerbase/internal/blob"
	"github.com/StackLine-App/pokerbase/internal/cache"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// Stores bundles the storage backends. Nil fields default to a shared
// in-memory store, which keeps tests and local runs free of setup.
type Stores struct {
	Profiles   storage.ProfileStore
	Follows    storage.FollowStore
	Sessions   storage.SessionStore
	Posts      storage.PostStore
	Groups     storage.GroupStore
	Hands      storage.HandStore
	Stakes     storage.StakeStore
	Challenges storage.ChallengeStore
}

func (s *Stores) fillDefaults() {
	var mem *memory.Store
	def := func() *memory.Store {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}
	if s.Profiles == nil {
		s.Profiles = def()
	}
	if s.Follows == nil {
		s.Follows = def()
	}
	if s.Sessions == nil {
		s.Sessions = def()
	}
	if s.Posts == nil {
		s.Posts = def()
	}
	if s.Groups == nil {
		s.Groups = def()
	}
	if s.Hands == nil {
		s.Hands = def()
	}
	if s.Stakes == nil {
		s.Stakes = def()
	}
	if s.Challenges == nil {
		s.Challenges = def()
	}
}

// Options carries the cross-cutting dependencies of the application.
type Options struct {
	Auth  auth.Authenticator
	Cache cache.ProfileCache
	Blobs blob.Store
	// FlowRefreshTimeout bounds one auth flow refresh; zero uses the default.
	FlowRefreshTimeout time.Duration
	// ChallengeExpirySpec is the cron spec for the expiry sweep; empty uses
	// the hourly default.
	ChallengeExpirySpec string
	Logger              *logger.Logger
}

// Application wires the services and owns their lifecycles.
type Application struct {
	Auth auth.Authenticator
	Flow *authflow.Coordinator

	Profiles   *profiles.Service
	Sessions   *sessions.Service
	Posts      *posts.Service
	Groups     *groups.Service
	Hands      *hands.Service
	Stakes     *stakes.Service
	Challenges *challenges.Service

	manager *system.Manager
	log     *logger.Logger
}

// New assembles the application.
func New(stores Stores, opts Options) *Application {
	stores.fillDefaults()

	log := opts.Logger
	if log == nil {
		log = logger.NewDefault("app")
	}

	authenticator := opts.Auth
	if authenticator == nil {
		authenticator = auth.NewLocalProvider()
	}
	profileCache := opts.Cache
	if profileCache == nil {
		profileCache = cache.NewMemory(5 * time.Minute)
	}

	var flowOpts []authflow.Option
	if opts.FlowRefreshTimeout > 0 {
		flowOpts = append(flowOpts, authflow.WithTimeout(opts.FlowRefreshTimeout))
	}

	a := &Application{
		Auth:       authenticator,
		Flow:       authflow.New(authenticator, stores.Profiles, profileCache, log, flowOpts...),
		Profiles:   profiles.New(stores.Profiles, stores.Follows, profileCache, opts.Blobs, log),
		Sessions:   sessions.New(stores.Sessions, log),
		Posts:      posts.New(stores.Posts, stores.Follows, log),
		Groups:     groups.New(stores.Groups, groups.NewHub(log), log),
		Hands:      hands.New(stores.Hands, log),
		Stakes:     stakes.New(stores.Stakes, stores.Sessions, log),
		Challenges: challenges.New(stores.Challenges, log),
		manager:    system.NewManager(log),
		log:        log,
	}

	// Completed sessions advance challenge progress.
	a.Sessions.OnRecorded(func(ctx context.Context, s session.Session) {
		if err := a.Challenges.Apply(ctx, s); err != nil {
			log.WithError(err).Warn("challenge progress update failed")
		}
	})

	a.manager.Register(a.Flow)
	a.manager.Register(challenges.NewRunner(a.Challenges, opts.ChallengeExpirySpec, log))

	return a
}

// Start brings up the background services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop shuts the background services down in reverse start order.
func (a *Application) Stop(ctx context.Context) {
	a.manager.Stop(ctx)
}
