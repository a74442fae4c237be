package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/internal/blob"
	"github.com/StackLine-App/pokerbase/internal/cache"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// Service manages user profiles, avatars and follow relationships.
type Service struct {
	store   storage.ProfileStore
	follows storage.FollowStore
	cache   cache.ProfileCache
	blobs   blob.Store
	log     *logger.Logger
}

// New constructs a profile service. The cache and blob store are optional.
func New(store storage.ProfileStore, follows storage.FollowStore, profileCache cache.ProfileCache, blobs blob.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("profiles")
	}
	return &Service{
		store:   store,
		follows: follows,
		cache:   profileCache,
		blobs:   blobs,
		log:     log,
	}
}

// Create registers a profile for an authenticated user. The id is the auth
// principal's uid so the flow coordinator can point-look-up by it.
func (s *Service) Create(ctx context.Context, userID, username, displayName, bio string) (profile.Profile, error) {
	userID = strings.TrimSpace(userID)
	username = strings.ToLower(strings.TrimSpace(username))
	displayName = strings.TrimSpace(displayName)

	if userID == "" {
		return profile.Profile{}, fmt.Errorf("user id is required")
	}
	if !usernamePattern.MatchString(username) {
		return profile.Profile{}, fmt.Errorf("username must be 3-24 characters of a-z, 0-9 or underscore")
	}
	if displayName == "" {
		displayName = username
	}

	if _, err := s.store.GetProfileByUsername(ctx, username); err == nil {
		return profile.Profile{}, fmt.Errorf("username %s is already taken", username)
	} else if !errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, err
	}

	p := profile.Profile{
		ID:          userID,
		Username:    username,
		DisplayName: displayName,
		Bio:         strings.TrimSpace(bio),
	}
	p, err := s.store.CreateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, err
	}

	s.cacheSet(ctx, p)
	s.log.WithField("user_id", p.ID).
		WithField("username", p.Username).
		Info("profile created")
	return p, nil
}

// Get returns a profile, consulting the cache first.
func (s *Service) Get(ctx context.Context, userID string) (profile.Profile, error) {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, userID); err == nil {
			return p, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.log.WithError(err).Warn("profile cache get failed")
		}
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	s.cacheSet(ctx, p)
	return p, nil
}

// GetByUsername performs the equality-filtered lookup used by sign-up checks
// and profile search.
func (s *Service) GetByUsername(ctx context.Context, username string) (profile.Profile, error) {
	return s.store.GetProfileByUsername(ctx, username)
}

// Update applies mutable fields.
func (s *Service) Update(ctx context.Context, userID string, displayName, bio *string) (profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}

	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			return profile.Profile{}, fmt.Errorf("display_name cannot be empty")
		}
		p.DisplayName = trimmed
	}
	if bio != nil {
		p.Bio = strings.TrimSpace(*bio)
	}

	p, err = s.store.UpdateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, err
	}
	s.cacheSet(ctx, p)
	s.log.WithField("user_id", p.ID).Info("profile updated")
	return p, nil
}

// Delete removes the profile, its avatar and cache entry.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.DeleteProfile(ctx, userID); err != nil {
		return err
	}
	if s.blobs != nil {
		if err := s.blobs.DeleteAvatar(ctx, userID); err != nil {
			s.log.WithError(err).Warn("avatar delete failed")
		}
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID); err != nil {
			s.log.WithError(err).Warn("profile cache delete failed")
		}
	}
	s.log.WithField("user_id", userID).Info("profile deleted")
	return nil
}

// SetAvatar uploads a profile image and stores its URL on the profile.
func (s *Service) SetAvatar(ctx context.Context, userID, contentType string, r io.Reader) (profile.Profile, error) {
	if s.blobs == nil {
		return profile.Profile{}, fmt.Errorf("avatar storage not configured")
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}

	url, err := s.blobs.UploadAvatar(ctx, userID, contentType, r)
	if err != nil {
		return profile.Profile{}, err
	}

	p.AvatarURL = url
	p, err = s.store.UpdateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, err
	}
	s.cacheSet(ctx, p)
	s.log.WithField("user_id", userID).Info("avatar updated")
	return p, nil
}

// Follow makes follower follow followee and adjusts both counters.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string, notify bool) (profile.Follow, error) {
	if followerID == followeeID {
		return profile.Follow{}, fmt.Errorf("cannot follow yourself")
	}

	follower, err := s.store.GetProfile(ctx, followerID)
	if err != nil {
		return profile.Follow{}, fmt.Errorf("follower validation failed: %w", err)
	}
	followee, err := s.store.GetProfile(ctx, followeeID)
	if err != nil {
		return profile.Follow{}, fmt.Errorf("followee validation failed: %w", err)
	}

	f, err := s.follows.CreateFollow(ctx, profile.Follow{
		FollowerID:   followerID,
		FolloweeID:   followeeID,
		NotifyOnPost: notify,
	})
	if err != nil {
		return profile.Follow{}, err
	}

	follower.FollowingCount++
	followee.FollowerCount++
	s.updateCounts(ctx, follower, followee)

	s.log.WithField("follower", followerID).
		WithField("followee", followeeID).
		Info("follow created")
	return f, nil
}

// Unfollow removes the relationship and adjusts both counters.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := s.follows.DeleteFollow(ctx, followerID, followeeID); err != nil {
		return err
	}

	if follower, err := s.store.GetProfile(ctx, followerID); err == nil {
		if followee, err := s.store.GetProfile(ctx, followeeID); err == nil {
			if follower.FollowingCount > 0 {
				follower.FollowingCount--
			}
			if followee.FollowerCount > 0 {
				followee.FollowerCount--
			}
			s.updateCounts(ctx, follower, followee)
		}
	}

	s.log.WithField("follower", followerID).
		WithField("followee", followeeID).
		Info("follow removed")
	return nil
}

// SetNotifyOnPost flips the notification preference on an existing follow.
func (s *Service) SetNotifyOnPost(ctx context.Context, followerID, followeeID string, notify bool) (profile.Follow, error) {
	f, err := s.follows.GetFollow(ctx, followerID, followeeID)
	if err != nil {
		return profile.Follow{}, err
	}
	if f.NotifyOnPost == notify {
		return f, nil
	}

	f.NotifyOnPost = notify
	return s.follows.UpdateFollow(ctx, f)
}

// Followers lists follows pointing at the user.
func (s *Service) Followers(ctx context.Context, userID string) ([]profile.Follow, error) {
	return s.follows.ListFollowers(ctx, userID)
}

// Following lists follows initiated by the user.
func (s *Service) Following(ctx context.Context, userID string) ([]profile.Follow, error) {
	return s.follows.ListFollowing(ctx, userID)
}

func (s *Service) updateCounts(ctx context.Context, profiles ...profile.Profile) {
	for _, p := range profiles {
		updated, err := s.store.UpdateProfile(ctx, p)
		if err != nil {
			s.log.WithError(err).WithField("user_id", p.ID).Warn("counter update failed")
			continue
		}
		s.cacheSet(ctx, updated)
	}
}

func (s *Service) cacheSet(ctx context.Context, p profile.Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		s.log.WithError(err).Warn("profile cache set failed")
	}
}
