package hands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

func TestSave_NormalizesCards(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	h, err := svc.Save(ctx, hand.SavedHand{
		UserID:     "u1",
		HeroCards:  []string{"as", "KD"},
		BoardCards: []string{"2c", "7H", "ts"},
		PotSize:    320,
		Result:     240,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"As", "Kd"}, h.HeroCards)
	require.Equal(t, []string{"2c", "7h", "Ts"}, h.BoardCards)
}

func TestSave_Validation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	cases := []struct {
		name string
		h    hand.SavedHand
	}{
		{"missing user", hand.SavedHand{HeroCards: []string{"As", "Kd"}}},
		{"one hero card", hand.SavedHand{UserID: "u1", HeroCards: []string{"As"}}},
		{"two board cards", hand.SavedHand{UserID: "u1", HeroCards: []string{"As", "Kd"}, BoardCards: []string{"2c", "7h"}}},
		{"bad rank", hand.SavedHand{UserID: "u1", HeroCards: []string{"Xs", "Kd"}}},
		{"bad suit", hand.SavedHand{UserID: "u1", HeroCards: []string{"Az", "Kd"}}},
		{"duplicate card", hand.SavedHand{UserID: "u1", HeroCards: []string{"As", "as"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, tc.h)
			require.Error(t, err)
		})
	}
}

func TestDelete_OwnershipCheck(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	h, err := svc.Save(ctx, hand.SavedHand{UserID: "u1", HeroCards: []string{"As", "Kd"}})
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, h.ID, "u2"))
	require.NoError(t, svc.Delete(ctx, h.ID, "u1"))
}
