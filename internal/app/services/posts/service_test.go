package posts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	_, err := svc.Create(ctx, post.Post{UserID: "u1"})
	require.Error(t, err, "empty post rejected")

	_, err = svc.Create(ctx, post.Post{UserID: "u1", Body: "gg", SessionID: "s1", HandID: "h1"})
	require.Error(t, err, "cannot reference both a session and a hand")

	p, err := svc.Create(ctx, post.Post{UserID: "u1", Body: "  booked a win  ", LikeCount: 99})
	require.NoError(t, err)
	require.Equal(t, "booked a win", p.Body)
	require.Zero(t, p.LikeCount, "like count starts at zero")
}

func TestDelete_OwnershipCheck(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	p, err := svc.Create(ctx, post.Post{UserID: "u1", Body: "hello"})
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, p.ID, "u2"))
	require.NoError(t, svc.Delete(ctx, p.ID, "u1"))
}

func TestFeed(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	_, err := store.CreateFollow(ctx, profile.Follow{FollowerID: "u1", FolloweeID: "u2"})
	require.NoError(t, err)

	for _, author := range []string{"u1", "u2", "u3"} {
		_, err := svc.Create(ctx, post.Post{UserID: author, Body: "from " + author})
		require.NoError(t, err)
	}

	feed, err := svc.Feed(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, feed, 2, "only own posts and followed authors")
	for _, p := range feed {
		require.NotEqual(t, "u3", p.UserID)
	}

	capped, err := svc.Feed(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
}
