package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
)

// openTestDB connects to the database named by TEST_POSTGRES_DSN. The schema
// from migrations/schema.sql must already be applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIntegration_ProfileRoundTrip(t *testing.T) {
	store := New(openTestDB(t))
	ctx := context.Background()

	p, err := store.CreateProfile(ctx, profile.Profile{Username: "it_hero_" + time.Now().Format("150405.000")})
	require.NoError(t, err)
	defer store.DeleteProfile(ctx, p.ID)

	got, err := store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Username, got.Username)

	got.Bio = "integration"
	updated, err := store.UpdateProfile(ctx, got)
	require.NoError(t, err)
	require.Equal(t, "integration", updated.Bio)

	byName, err := store.GetProfileByUsername(ctx, got.Username)
	require.NoError(t, err)
	require.Equal(t, p.ID, byName.ID)

	require.NoError(t, store.DeleteProfile(ctx, p.ID))
	_, err = store.GetProfile(ctx, p.ID)
	require.ErrorIs(t, err, profile.ErrNotFound)
}

func TestIntegration_SessionRoundTrip(t *testing.T) {
	store := New(openTestDB(t))
	ctx := context.Background()

	start := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Microsecond)
	sess, err := store.CreateSession(ctx, session.Session{
		UserID:    "it-user",
		GameType:  session.GameCash,
		Stakes:    "1/2",
		BuyIn:     200,
		Cashout:   350,
		Profit:    150,
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	defer store.DeleteSession(ctx, sess.ID)

	list, err := store.ListSessions(ctx, "it-user")
	require.NoError(t, err)
	require.NotEmpty(t, list)

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.InDelta(t, 150.0, got.Profit, 1e-9)
	require.False(t, got.EndedAt.IsZero())
}
