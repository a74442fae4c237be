package challenges

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// Service manages personal challenges and advances their progress as
// sessions come in.
type Service struct {
	store storage.ChallengeStore
	log   *logger.Logger
	now   func() time.Time
}

// New constructs a challenge service.
func New(store storage.ChallengeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("challenges")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Create opens a challenge. The deadline must be in the future and the
// target positive.
func (s *Service) Create(ctx context.Context, userID string, kind challenge.Kind, title string, target float64, deadline time.Time) (challenge.Challenge, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)

	if userID == "" {
		return challenge.Challenge{}, fmt.Errorf("user id is required")
	}
	switch kind {
	case challenge.KindProfit, challenge.KindHours, challenge.KindSessions:
	default:
		return challenge.Challenge{}, fmt.Errorf("unknown challenge kind %q", kind)
	}
	if target <= 0 {
		return challenge.Challenge{}, fmt.Errorf("target must be positive")
	}
	if !deadline.After(s.now()) {
		return challenge.Challenge{}, fmt.Errorf("deadline must be in the future")
	}
	if title == "" {
		title = fmt.Sprintf("%s challenge", kind)
	}

	c, err := s.store.CreateChallenge(ctx, challenge.Challenge{
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Target:   target,
		Status:   challenge.StatusActive,
		Deadline: deadline,
	})
	if err != nil {
		return challenge.Challenge{}, err
	}

	s.log.WithField("user_id", userID).
		WithField("challenge_id", c.ID).
		WithField("kind", string(kind)).
		Info("challenge created")
	return c, nil
}

// Get returns a challenge.
func (s *Service) Get(ctx context.Context, id string) (challenge.Challenge, error) {
	return s.store.GetChallenge(ctx, id)
}

// List returns a user's challenges.
func (s *Service) List(ctx context.Context, userID string) ([]challenge.Challenge, error) {
	return s.store.ListChallenges(ctx, userID)
}

// Apply advances the user's active challenges with a finished session.
// Profit challenges only move forward on winning sessions so a downswing
// cannot un-complete a goal.
func (s *Service) Apply(ctx context.Context, sess session.Session) error {
	if sess.Live {
		return nil
	}

	list, err := s.store.ListChallenges(ctx, sess.UserID)
	if err != nil {
		return err
	}

	for _, c := range list {
		if c.Status != challenge.StatusActive {
			continue
		}
		if sess.StartedAt.After(c.Deadline) {
			continue
		}

		switch c.Kind {
		case challenge.KindProfit:
			if sess.Profit > 0 {
				c.Progress += sess.Profit
			}
		case challenge.KindHours:
			c.Progress += sess.Hours()
		case challenge.KindSessions:
			c.Progress++
		}

		if c.Progress >= c.Target {
			c.Status = challenge.StatusCompleted
			s.log.WithField("challenge_id", c.ID).Info("challenge completed")
		}

		if _, err := s.store.UpdateChallenge(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// ExpireOverdue marks active challenges whose deadline has passed as expired
// and returns how many were expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	active, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for _, c := range active {
		if c.Deadline.After(now) {
			continue
		}
		c.Status = challenge.StatusExpired
		if _, err := s.store.UpdateChallenge(ctx, c); err != nil {
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		s.log.WithField("count", expired).Info("challenges expired")
	}
	return expired, nil
}
