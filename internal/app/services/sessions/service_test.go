package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/services/analytics"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

func newService() *Service {
	svc := New(memory.New(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func completed(profit float64, start time.Time) CreateInput {
	return CreateInput{
		UserID:    "u1",
		GameType:  session.GameCash,
		Stakes:    "1/2",
		Location:  "Bellagio",
		BuyIn:     200,
		Cashout:   200 + profit,
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Hour),
	}
}

func TestCreate_DerivesProfit(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	rec, err := svc.Create(ctx, completed(150, time.Date(2024, 2, 28, 19, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.InDelta(t, 150.0, rec.Profit, 1e-9)
	require.False(t, rec.Live)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	start := time.Date(2024, 2, 28, 19, 0, 0, 0, time.UTC)

	in := completed(0, start)
	in.UserID = ""
	_, err := svc.Create(ctx, in)
	require.Error(t, err)

	in = completed(0, start)
	in.GameType = "plo5"
	_, err = svc.Create(ctx, in)
	require.Error(t, err)

	in = completed(0, start)
	in.EndedAt = start.Add(-time.Hour)
	_, err = svc.Create(ctx, in)
	require.Error(t, err)
}

func TestLiveSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	rec, err := svc.StartLive(ctx, CreateInput{
		UserID:   "u1",
		GameType: session.GameCash,
		Stakes:   "2/5",
		BuyIn:    500,
	})
	require.NoError(t, err)
	require.True(t, rec.Live)
	require.False(t, rec.StartedAt.IsZero(), "start defaults to now")

	// Live sessions cannot be edited in place.
	_, err = svc.Update(ctx, rec.ID, completed(0, rec.StartedAt))
	require.Error(t, err)

	ended, err := svc.EndLive(ctx, rec.ID, "u1", 800, rec.StartedAt.Add(4*time.Hour))
	require.NoError(t, err)
	require.False(t, ended.Live)
	require.InDelta(t, 300.0, ended.Profit, 1e-9)

	_, err = svc.EndLive(ctx, rec.ID, "u1", 800, time.Time{})
	require.Error(t, err, "ending twice fails")
}

func TestOwnershipGuards(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	start := time.Date(2024, 2, 28, 19, 0, 0, 0, time.UTC)

	rec, err := svc.Create(ctx, completed(100, start))
	require.NoError(t, err)

	_, err = svc.Get(ctx, rec.ID, "u2")
	require.Error(t, err, "another user's session reads as missing")

	in := completed(100, start)
	in.UserID = "u2"
	_, err = svc.Update(ctx, rec.ID, in)
	require.ErrorIs(t, err, ErrNotOwner)

	err = svc.Delete(ctx, rec.ID, "u2")
	require.ErrorIs(t, err, ErrNotOwner)

	live, err := svc.StartLive(ctx, CreateInput{UserID: "u1", GameType: session.GameCash, BuyIn: 100})
	require.NoError(t, err)
	_, err = svc.EndLive(ctx, live.ID, "u2", 150, time.Time{})
	require.ErrorIs(t, err, ErrNotOwner)

	got, err := svc.Get(ctx, rec.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.NoError(t, svc.Delete(ctx, rec.ID, "u1"))
}

func TestUpdate_RederivesProfit(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	start := time.Date(2024, 2, 28, 19, 0, 0, 0, time.UTC)

	rec, err := svc.Create(ctx, completed(100, start))
	require.NoError(t, err)

	in := completed(100, start)
	in.Cashout = 50
	updated, err := svc.Update(ctx, rec.ID, in)
	require.NoError(t, err)
	require.InDelta(t, -150.0, updated.Profit, 1e-9)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	now := svc.now()

	for i, profit := range []float64{100, -50, 250} {
		_, err := svc.Create(ctx, completed(profit, now.AddDate(0, 0, -(i+1))))
		require.NoError(t, err)
	}
	// Outside the one-week window.
	_, err := svc.Create(ctx, completed(999, now.AddDate(0, -2, 0)))
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, "u1", analytics.Range1W, analytics.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, dash.Summary.SessionCount)
	require.InDelta(t, 300.0, dash.Summary.TotalProfit, 1e-9)
	require.NotEmpty(t, dash.Series)
	require.Equal(t, analytics.PersonaRookie, dash.Persona)
}
