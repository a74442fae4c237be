package challenges

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newService() *Service {
	svc := New(memory.New(), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func finished(profit, hours float64, start time.Time) session.Session {
	return session.Session{
		UserID:    "u1",
		GameType:  session.GameCash,
		Profit:    profit,
		StartedAt: start,
		EndedAt:   start.Add(time.Duration(hours * float64(time.Hour))),
	}
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	deadline := testNow.AddDate(0, 1, 0)

	_, err := svc.Create(ctx, "", challenge.KindProfit, "", 100, deadline)
	require.Error(t, err)

	_, err = svc.Create(ctx, "u1", "streak", "", 100, deadline)
	require.Error(t, err, "unknown kind")

	_, err = svc.Create(ctx, "u1", challenge.KindProfit, "", 0, deadline)
	require.Error(t, err)

	_, err = svc.Create(ctx, "u1", challenge.KindProfit, "", 100, testNow.AddDate(0, 0, -1))
	require.Error(t, err, "past deadline")

	c, err := svc.Create(ctx, "u1", challenge.KindHours, "  ", 50, deadline)
	require.NoError(t, err)
	require.Equal(t, challenge.StatusActive, c.Status)
	require.NotEmpty(t, c.Title, "default title filled in")
}

func TestApply_AdvancesAndCompletes(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	deadline := testNow.AddDate(0, 1, 0)

	profitC, err := svc.Create(ctx, "u1", challenge.KindProfit, "win 500", 500, deadline)
	require.NoError(t, err)
	hoursC, err := svc.Create(ctx, "u1", challenge.KindHours, "play 10h", 10, deadline)
	require.NoError(t, err)
	countC, err := svc.Create(ctx, "u1", challenge.KindSessions, "3 sessions", 3, deadline)
	require.NoError(t, err)

	require.NoError(t, svc.Apply(ctx, finished(300, 4, testNow)))
	require.NoError(t, svc.Apply(ctx, finished(-100, 4, testNow)))
	require.NoError(t, svc.Apply(ctx, finished(250, 3, testNow)))

	got, err := svc.Get(ctx, profitC.ID)
	require.NoError(t, err)
	require.InDelta(t, 550.0, got.Progress, 1e-9, "losing sessions do not roll profit back")
	require.Equal(t, challenge.StatusCompleted, got.Status)

	got, err = svc.Get(ctx, hoursC.ID)
	require.NoError(t, err)
	require.InDelta(t, 11.0, got.Progress, 1e-9)
	require.Equal(t, challenge.StatusCompleted, got.Status)

	got, err = svc.Get(ctx, countC.ID)
	require.NoError(t, err)
	require.InDelta(t, 3.0, got.Progress, 1e-9)
	require.Equal(t, challenge.StatusCompleted, got.Status)
}

func TestApply_IgnoresLiveAndLateSessions(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	deadline := testNow.AddDate(0, 0, 7)

	c, err := svc.Create(ctx, "u1", challenge.KindSessions, "", 5, deadline)
	require.NoError(t, err)

	live := finished(0, 0, testNow)
	live.Live = true
	require.NoError(t, svc.Apply(ctx, live))

	require.NoError(t, svc.Apply(ctx, finished(10, 2, deadline.AddDate(0, 0, 1))))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Zero(t, got.Progress)
}

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	overdue, err := svc.Create(ctx, "u1", challenge.KindProfit, "", 100, testNow.Add(time.Hour))
	require.NoError(t, err)
	current, err := svc.Create(ctx, "u1", challenge.KindProfit, "", 100, testNow.AddDate(0, 1, 0))
	require.NoError(t, err)

	svc.now = func() time.Time { return testNow.AddDate(0, 0, 1) }

	n, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := svc.Get(ctx, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, challenge.StatusExpired, got.Status)

	got, err = svc.Get(ctx, current.ID)
	require.NoError(t, err)
	require.Equal(t, challenge.StatusActive, got.Status)
}

func TestRunner_SweepOnStart(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Create(ctx, "u1", challenge.KindProfit, "", 100, testNow.Add(time.Hour))
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 1) }

	r := NewRunner(svc, "", nil)
	require.NoError(t, r.Start(ctx))
	defer r.Stop(ctx)

	require.Eventually(t, func() bool {
		active, err := svc.store.ListActiveChallenges(ctx)
		return err == nil && len(active) == 0
	}, time.Second, 5*time.Millisecond)
}
