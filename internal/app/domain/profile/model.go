package profile

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a profile lookup misses. The auth flow
// coordinator depends on distinguishing this from transient failures.
var ErrNotFound = errors.New("profile not found")

// Profile is the application-level user record, distinct from the
// authentication principal.
type Profile struct {
	ID             string
	Username       string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FollowerCount  int
	FollowingCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Follow links a follower to a followee.
type Follow struct {
	ID         string
	FollowerID string
	FolloweeID string
	// NotifyOnPost controls whether the follower is notified when the
	// followee publishes a post.
	NotifyOnPost bool
	CreatedAt    time.Time
}
