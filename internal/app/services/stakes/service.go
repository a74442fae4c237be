package stakes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// ErrNotParticipant is returned when a caller who is neither the player nor
// the backer tries to act on a stake.
var ErrNotParticipant = errors.New("stake does not involve requester")

// Service manages staking arrangements between players and backers.
type Service struct {
	stakes   storage.StakeStore
	sessions storage.SessionStore
	log      *logger.Logger
	now      func() time.Time
}

// New constructs a staking service.
func New(stakes storage.StakeStore, sessions storage.SessionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("staking")
	}
	return &Service{stakes: stakes, sessions: sessions, log: log, now: time.Now}
}

// Propose creates a pending stake offer from player to backer for a session.
func (s *Service) Propose(ctx context.Context, playerID, backerID, sessionID string, percentage, markup float64) (staking.Stake, error) {
	if playerID == "" || backerID == "" {
		return staking.Stake{}, fmt.Errorf("player and backer ids are required")
	}
	if playerID == backerID {
		return staking.Stake{}, fmt.Errorf("player cannot back themselves")
	}
	if percentage <= 0 || percentage > 100 {
		return staking.Stake{}, fmt.Errorf("percentage must be in (0, 100]")
	}
	if markup <= 0 {
		markup = 1.0
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return staking.Stake{}, fmt.Errorf("session validation failed: %w", err)
	}
	if sess.UserID != playerID {
		return staking.Stake{}, fmt.Errorf("session %s does not belong to player %s", sessionID, playerID)
	}

	st, err := s.stakes.CreateStake(ctx, staking.Stake{
		PlayerID:   playerID,
		BackerID:   backerID,
		SessionID:  sessionID,
		Percentage: percentage,
		Markup:     markup,
		Status:     staking.StatusPending,
	})
	if err != nil {
		return staking.Stake{}, err
	}

	s.log.WithField("stake_id", st.ID).
		WithField("player_id", playerID).
		WithField("backer_id", backerID).
		Info("stake proposed")
	return st, nil
}

// Accept moves a pending stake to active. Only the backer may accept.
func (s *Service) Accept(ctx context.Context, id, backerID string) (staking.Stake, error) {
	return s.answer(ctx, id, backerID, staking.StatusActive)
}

// Decline rejects a pending stake. Only the backer may decline.
func (s *Service) Decline(ctx context.Context, id, backerID string) (staking.Stake, error) {
	return s.answer(ctx, id, backerID, staking.StatusDeclined)
}

func (s *Service) answer(ctx context.Context, id, backerID string, status staking.Status) (staking.Stake, error) {
	st, err := s.stakes.GetStake(ctx, id)
	if err != nil {
		return staking.Stake{}, err
	}
	if st.BackerID != backerID {
		return staking.Stake{}, fmt.Errorf("stake %s is not offered to %s", id, backerID)
	}
	if st.Status != staking.StatusPending {
		return staking.Stake{}, fmt.Errorf("stake %s is %s, not pending", id, st.Status)
	}

	st.Status = status
	st, err = s.stakes.UpdateStake(ctx, st)
	if err != nil {
		return staking.Stake{}, err
	}
	s.log.WithField("stake_id", id).WithField("status", string(status)).Info("stake answered")
	return st, nil
}

// Settle computes the settlement for an active stake once its session has
// ended. Only the player or the backer may settle. The backer paid
// percentage * buy-in * markup up front and is owed percentage * cashout;
// AmountOwed is the difference, positive when the player owes the backer.
func (s *Service) Settle(ctx context.Context, id, requesterID string) (staking.Stake, error) {
	st, err := s.stakes.GetStake(ctx, id)
	if err != nil {
		return staking.Stake{}, err
	}
	if requesterID != st.PlayerID && requesterID != st.BackerID {
		return staking.Stake{}, fmt.Errorf("stake %s: %w", id, ErrNotParticipant)
	}
	if st.Status != staking.StatusActive {
		return staking.Stake{}, fmt.Errorf("stake %s is %s, not active", id, st.Status)
	}

	sess, err := s.sessions.GetSession(ctx, st.SessionID)
	if err != nil {
		return staking.Stake{}, err
	}
	if sess.Live {
		return staking.Stake{}, fmt.Errorf("session %s has not ended", sess.ID)
	}

	share := st.Percentage / 100
	cost := sess.BuyIn * share * st.Markup
	payout := sess.Cashout * share

	st.AmountOwed = payout - cost
	st.Status = staking.StatusSettled
	st.SettledAt = s.now()

	st, err = s.stakes.UpdateStake(ctx, st)
	if err != nil {
		return staking.Stake{}, err
	}

	s.log.WithField("stake_id", st.ID).
		WithField("amount_owed", st.AmountOwed).
		Info("stake settled")
	return st, nil
}

// Get returns a stake.
func (s *Service) Get(ctx context.Context, id string) (staking.Stake, error) {
	return s.stakes.GetStake(ctx, id)
}

// ListAsPlayer returns the stakes where the user sold action.
func (s *Service) ListAsPlayer(ctx context.Context, userID string) ([]staking.Stake, error) {
	return s.stakes.ListStakesByPlayer(ctx, userID)
}

// ListAsBacker returns the stakes where the user bought action.
func (s *Service) ListAsBacker(ctx context.Context, userID string) ([]staking.Stake, error) {
	return s.stakes.ListStakesByBacker(ctx, userID)
}
