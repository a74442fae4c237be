package storage

import (
	"context"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
)

// ProfileStore persists user profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (profile.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// FollowStore persists follow relationships.
type FollowStore interface {
	CreateFollow(ctx context.Context, f profile.Follow) (profile.Follow, error)
	UpdateFollow(ctx context.Context, f profile.Follow) (profile.Follow, error)
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	GetFollow(ctx context.Context, followerID, followeeID string) (profile.Follow, error)
	ListFollowers(ctx context.Context, userID string) ([]profile.Follow, error)
	ListFollowing(ctx context.Context, userID string) ([]profile.Follow, error)
}

// SessionStore persists poker sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s session.Session) (session.Session, error)
	UpdateSession(ctx context.Context, s session.Session) (session.Session, error)
	GetSession(ctx context.Context, id string) (session.Session, error)
	ListSessions(ctx context.Context, userID string) ([]session.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// PostStore persists feed posts.
type PostStore interface {
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	GetPost(ctx context.Context, id string) (post.Post, error)
	ListPosts(ctx context.Context, userID string) ([]post.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// GroupStore persists home games and their chat messages.
type GroupStore interface {
	CreateGame(ctx context.Context, g group.HomeGame) (group.HomeGame, error)
	UpdateGame(ctx context.Context, g group.HomeGame) (group.HomeGame, error)
	GetGame(ctx context.Context, id string) (group.HomeGame, error)
	ListGames(ctx context.Context, memberID string) ([]group.HomeGame, error)
	DeleteGame(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, m group.Message) (group.Message, error)
	ListMessages(ctx context.Context, groupID string) ([]group.Message, error)
}

// HandStore persists saved hands.
type HandStore interface {
	CreateHand(ctx context.Context, h hand.SavedHand) (hand.SavedHand, error)
	GetHand(ctx context.Context, id string) (hand.SavedHand, error)
	ListHands(ctx context.Context, userID string) ([]hand.SavedHand, error)
	DeleteHand(ctx context.Context, id string) error
}

// StakeStore persists staking arrangements.
type StakeStore interface {
	CreateStake(ctx context.Context, st staking.Stake) (staking.Stake, error)
	UpdateStake(ctx context.Context, st staking.Stake) (staking.Stake, error)
	GetStake(ctx context.Context, id string) (staking.Stake, error)
	ListStakesByPlayer(ctx context.Context, playerID string) ([]staking.Stake, error)
	ListStakesByBacker(ctx context.Context, backerID string) ([]staking.Stake, error)
}

// ChallengeStore persists challenges.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error)
	UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error)
	GetChallenge(ctx context.Context, id string) (challenge.Challenge, error)
	ListChallenges(ctx context.Context, userID string) ([]challenge.Challenge, error)
	ListActiveChallenges(ctx context.Context) ([]challenge.Challenge, error)
}
