package hands

import (
	"context"
	"fmt"
	"strings"

	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

const (
	ranks = "23456789TJQKA"
	suits = "cdhs"
)

// Service stores hand histories entered in the hand builder.
type Service struct {
	store storage.HandStore
	log   *logger.Logger
}

// New constructs a hand service.
func New(store storage.HandStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("hands")
	}
	return &Service{store: store, log: log}
}

// Save validates and persists a hand. Hero cards are mandatory, the board may
// be partial (flop only, flop and turn) or absent for preflop all-ins.
func (s *Service) Save(ctx context.Context, h hand.SavedHand) (hand.SavedHand, error) {
	h.UserID = strings.TrimSpace(h.UserID)
	if h.UserID == "" {
		return hand.SavedHand{}, fmt.Errorf("user id is required")
	}
	if len(h.HeroCards) != 2 {
		return hand.SavedHand{}, fmt.Errorf("hero hand must be exactly 2 cards")
	}
	switch len(h.BoardCards) {
	case 0, 3, 4, 5:
	default:
		return hand.SavedHand{}, fmt.Errorf("board must have 0, 3, 4 or 5 cards")
	}

	normalized, err := normalizeCards(append(append([]string{}, h.HeroCards...), h.BoardCards...))
	if err != nil {
		return hand.SavedHand{}, err
	}
	h.HeroCards = normalized[:2]
	h.BoardCards = normalized[2:]

	h, err = s.store.CreateHand(ctx, h)
	if err != nil {
		return hand.SavedHand{}, err
	}

	s.log.WithField("user_id", h.UserID).
		WithField("hand_id", h.ID).
		Info("hand saved")
	return h, nil
}

// Get returns a saved hand.
func (s *Service) Get(ctx context.Context, id string) (hand.SavedHand, error) {
	return s.store.GetHand(ctx, id)
}

// List returns a user's saved hands.
func (s *Service) List(ctx context.Context, userID string) ([]hand.SavedHand, error) {
	return s.store.ListHands(ctx, userID)
}

// Delete removes a saved hand after an ownership check.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	h, err := s.store.GetHand(ctx, id)
	if err != nil {
		return err
	}
	if h.UserID != requesterID {
		return fmt.Errorf("hand %s is not owned by %s", id, requesterID)
	}
	return s.store.DeleteHand(ctx, id)
}

// normalizeCards canonicalizes shorthand ("as" -> "As") and rejects malformed
// or duplicated cards.
func normalizeCards(cards []string) ([]string, error) {
	seen := make(map[string]bool, len(cards))
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		c = strings.TrimSpace(c)
		if len(c) != 2 {
			return nil, fmt.Errorf("malformed card %q", c)
		}
		rank := strings.ToUpper(c[:1])
		suit := strings.ToLower(c[1:])
		if !strings.Contains(ranks, rank) || !strings.Contains(suits, suit) {
			return nil, fmt.Errorf("malformed card %q", c)
		}
		card := rank + suit
		if seen[card] {
			return nil, fmt.Errorf("duplicate card %s", card)
		}
		seen[card] = true
		out = append(out, card)
	}
	return out, nil
}
