package stakes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

func seedSession(t *testing.T, store *memory.Store, buyIn, cashout float64, live bool) session.Session {
	t.Helper()
	start := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	sess, err := store.CreateSession(context.Background(), session.Session{
		UserID:    "player",
		GameType:  session.GameCash,
		BuyIn:     buyIn,
		Cashout:   cashout,
		Profit:    cashout - buyIn,
		StartedAt: start,
		EndedAt:   start.Add(5 * time.Hour),
		Live:      live,
	})
	require.NoError(t, err)
	return sess
}

func TestPropose_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)
	sess := seedSession(t, store, 1000, 0, false)

	_, err := svc.Propose(ctx, "player", "player", sess.ID, 50, 1.1)
	require.Error(t, err, "self-backing rejected")

	_, err = svc.Propose(ctx, "player", "backer", sess.ID, 0, 1.1)
	require.Error(t, err)
	_, err = svc.Propose(ctx, "player", "backer", sess.ID, 120, 1.1)
	require.Error(t, err)

	_, err = svc.Propose(ctx, "someone-else", "backer", sess.ID, 50, 1.1)
	require.Error(t, err, "session must belong to the player")

	st, err := svc.Propose(ctx, "player", "backer", sess.ID, 50, 0)
	require.NoError(t, err)
	require.Equal(t, staking.StatusPending, st.Status)
	require.InDelta(t, 1.0, st.Markup, 1e-9, "markup defaults to none")
}

func TestAcceptDecline(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)
	sess := seedSession(t, store, 1000, 0, false)

	st, err := svc.Propose(ctx, "player", "backer", sess.ID, 50, 1.2)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, st.ID, "stranger")
	require.Error(t, err, "only the backer answers")

	st, err = svc.Accept(ctx, st.ID, "backer")
	require.NoError(t, err)
	require.Equal(t, staking.StatusActive, st.Status)

	_, err = svc.Decline(ctx, st.ID, "backer")
	require.Error(t, err, "already answered")
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC) }

	// Backer buys 50% of a 1000 buy-in at 1.2 markup, player cashes for 3000.
	// Cost 600, payout 1500, player owes 900.
	sess := seedSession(t, store, 1000, 3000, false)
	st, err := svc.Propose(ctx, "player", "backer", sess.ID, 50, 1.2)
	require.NoError(t, err)

	_, err = svc.Settle(ctx, st.ID, "player")
	require.Error(t, err, "pending stake cannot settle")

	st, err = svc.Accept(ctx, st.ID, "backer")
	require.NoError(t, err)

	_, err = svc.Settle(ctx, st.ID, "stranger")
	require.ErrorIs(t, err, ErrNotParticipant)

	st, err = svc.Settle(ctx, st.ID, "player")
	require.NoError(t, err)
	require.Equal(t, staking.StatusSettled, st.Status)
	require.InDelta(t, 900.0, st.AmountOwed, 1e-9)
	require.False(t, st.SettledAt.IsZero())
}

func TestSettle_LosingSessionOwesBacker(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	// Bust: cost 250 at no markup, payout 0, backer is out 250.
	sess := seedSession(t, store, 1000, 0, false)
	st, err := svc.Propose(ctx, "player", "backer", sess.ID, 25, 1.0)
	require.NoError(t, err)
	st, err = svc.Accept(ctx, st.ID, "backer")
	require.NoError(t, err)

	st, err = svc.Settle(ctx, st.ID, "backer")
	require.NoError(t, err)
	require.InDelta(t, -250.0, st.AmountOwed, 1e-9)
}

func TestSettle_LiveSessionRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	sess := seedSession(t, store, 1000, 0, true)
	st, err := svc.Propose(ctx, "player", "backer", sess.ID, 50, 1.0)
	require.NoError(t, err)
	st, err = svc.Accept(ctx, st.ID, "backer")
	require.NoError(t, err)

	_, err = svc.Settle(ctx, st.ID, "player")
	require.Error(t, err)
}
