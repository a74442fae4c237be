package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
)

func TestProfileUsernameIndex(t *testing.T) {
	ctx := context.Background()
	store := New()

	p, err := store.CreateProfile(ctx, profile.Profile{ID: "u1", Username: "Hero"})
	require.NoError(t, err)
	require.False(t, p.CreatedAt.IsZero())

	got, err := store.GetProfileByUsername(ctx, "hero")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)

	_, err = store.GetProfileByUsername(ctx, "nobody")
	require.ErrorIs(t, err, profile.ErrNotFound)

	// Returned values are copies; mutating them must not touch the store.
	got.Bio = "mutated"
	fresh, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, fresh.Bio)
}

func TestProfileDeleteClearsIndex(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.CreateProfile(ctx, profile.Profile{ID: "u1", Username: "hero"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteProfile(ctx, "u1"))

	_, err = store.GetProfile(ctx, "u1")
	require.ErrorIs(t, err, profile.ErrNotFound)

	// Username is free again.
	_, err = store.CreateProfile(ctx, profile.Profile{ID: "u2", Username: "hero"})
	require.NoError(t, err)
}

func TestFollows(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.CreateFollow(ctx, profile.Follow{FollowerID: "u1", FolloweeID: "u2"})
	require.NoError(t, err)

	followers, err := store.ListFollowers(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, followers, 1)

	following, err := store.ListFollowing(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, following, 1)

	require.NoError(t, store.DeleteFollow(ctx, "u1", "u2"))
	followers, err = store.ListFollowers(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, followers)
}

func TestSessionsOrderedByStart(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []int{3, 1, 2} {
		_, err := store.CreateSession(ctx, session.Session{
			UserID:    "u1",
			StartedAt: base.AddDate(0, 0, -offset),
		})
		require.NoError(t, err)
	}

	list, err := store.ListSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		require.True(t, list[i-1].StartedAt.Before(list[i].StartedAt))
	}
}

func TestPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := New()

	first, err := store.CreatePost(ctx, post.Post{UserID: "u1", Body: "first"})
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, post.Post{UserID: "u1", Body: "second"})
	require.NoError(t, err)

	list, err := store.ListPosts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[len(list)-1].ID)
}

func TestGroupMembershipListing(t *testing.T) {
	ctx := context.Background()
	store := New()

	g, err := store.CreateGame(ctx, group.HomeGame{OwnerID: "u1", Name: "g", MemberIDs: []string{"u1", "u2"}})
	require.NoError(t, err)

	games, err := store.ListGames(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, games, 1)

	games, err = store.ListGames(ctx, "u3")
	require.NoError(t, err)
	require.Empty(t, games)

	_, err = store.CreateMessage(ctx, group.Message{GroupID: g.ID, SenderID: "u1", Body: "hi"})
	require.NoError(t, err)
	msgs, err := store.ListMessages(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestStakeListings(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.CreateStake(ctx, staking.Stake{PlayerID: "p1", BackerID: "b1", Status: staking.StatusPending})
	require.NoError(t, err)
	_, err = store.CreateStake(ctx, staking.Stake{PlayerID: "p2", BackerID: "b1", Status: staking.StatusPending})
	require.NoError(t, err)

	asPlayer, err := store.ListStakesByPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, asPlayer, 1)

	asBacker, err := store.ListStakesByBacker(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, asBacker, 2)
}

func TestActiveChallenges(t *testing.T) {
	ctx := context.Background()
	store := New()

	active, err := store.CreateChallenge(ctx, challenge.Challenge{UserID: "u1", Status: challenge.StatusActive})
	require.NoError(t, err)
	_, err = store.CreateChallenge(ctx, challenge.Challenge{UserID: "u1", Status: challenge.StatusCompleted})
	require.NoError(t, err)

	list, err := store.ListActiveChallenges(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, active.ID, list[0].ID)
}
