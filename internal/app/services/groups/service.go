package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// Service manages home game groups and their chat. Messages are persisted
// first and then fanned out to live subscribers through the hub.
type Service struct {
	store storage.GroupStore
	hub   *Hub
	log   *logger.Logger
}

// New constructs a group service. The hub is optional; without one messages
// are persisted but not fanned out.
func New(store storage.GroupStore, hub *Hub, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("groups")
	}
	return &Service{store: store, hub: hub, log: log}
}

// CreateGame creates a home game owned by ownerID. The owner is always a
// member.
func (s *Service) CreateGame(ctx context.Context, ownerID, name, location string) (group.HomeGame, error) {
	ownerID = strings.TrimSpace(ownerID)
	name = strings.TrimSpace(name)
	if ownerID == "" {
		return group.HomeGame{}, fmt.Errorf("owner id is required")
	}
	if name == "" {
		return group.HomeGame{}, fmt.Errorf("game name is required")
	}

	g, err := s.store.CreateGame(ctx, group.HomeGame{
		OwnerID:   ownerID,
		Name:      name,
		Location:  strings.TrimSpace(location),
		MemberIDs: []string{ownerID},
	})
	if err != nil {
		return group.HomeGame{}, err
	}

	s.log.WithField("group_id", g.ID).
		WithField("owner_id", ownerID).
		Info("home game created")
	return g, nil
}

// GetGame returns a home game.
func (s *Service) GetGame(ctx context.Context, id string) (group.HomeGame, error) {
	return s.store.GetGame(ctx, id)
}

// ListGames returns the games the user belongs to.
func (s *Service) ListGames(ctx context.Context, memberID string) ([]group.HomeGame, error) {
	return s.store.ListGames(ctx, memberID)
}

// RenameGame updates the name and location. Only the owner may edit.
func (s *Service) RenameGame(ctx context.Context, id, requesterID, name, location string) (group.HomeGame, error) {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return group.HomeGame{}, err
	}
	if g.OwnerID != requesterID {
		return group.HomeGame{}, fmt.Errorf("game %s is not owned by %s", id, requesterID)
	}

	name = strings.TrimSpace(name)
	if name != "" {
		g.Name = name
	}
	g.Location = strings.TrimSpace(location)
	return s.store.UpdateGame(ctx, g)
}

// DeleteGame removes a game. Only the owner may delete.
func (s *Service) DeleteGame(ctx context.Context, id, requesterID string) error {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if g.OwnerID != requesterID {
		return fmt.Errorf("game %s is not owned by %s", id, requesterID)
	}
	if err := s.store.DeleteGame(ctx, id); err != nil {
		return err
	}
	s.log.WithField("group_id", id).Info("home game deleted")
	return nil
}

// AddMember adds a user to the game. Only the owner may invite.
func (s *Service) AddMember(ctx context.Context, id, requesterID, memberID string) (group.HomeGame, error) {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return group.HomeGame{}, err
	}
	if g.OwnerID != requesterID {
		return group.HomeGame{}, fmt.Errorf("game %s is not owned by %s", id, requesterID)
	}
	if isMember(g, memberID) {
		return g, nil
	}

	g.MemberIDs = append(g.MemberIDs, memberID)
	g, err = s.store.UpdateGame(ctx, g)
	if err != nil {
		return group.HomeGame{}, err
	}
	s.log.WithField("group_id", id).WithField("member_id", memberID).Info("member added")
	return g, nil
}

// RemoveMember removes a user. The owner can remove anyone but themselves;
// members can leave.
func (s *Service) RemoveMember(ctx context.Context, id, requesterID, memberID string) (group.HomeGame, error) {
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		return group.HomeGame{}, err
	}
	if memberID == g.OwnerID {
		return group.HomeGame{}, fmt.Errorf("owner cannot leave their own game")
	}
	if requesterID != g.OwnerID && requesterID != memberID {
		return group.HomeGame{}, fmt.Errorf("only the owner may remove other members")
	}

	kept := g.MemberIDs[:0]
	for _, m := range g.MemberIDs {
		if m != memberID {
			kept = append(kept, m)
		}
	}
	g.MemberIDs = kept
	return s.store.UpdateGame(ctx, g)
}

// SendMessage persists a chat message and fans it out to live subscribers.
// Only members may post.
func (s *Service) SendMessage(ctx context.Context, groupID, senderID, body, imageURL string) (group.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && imageURL == "" {
		return group.Message{}, fmt.Errorf("message needs a body or an image")
	}

	g, err := s.store.GetGame(ctx, groupID)
	if err != nil {
		return group.Message{}, err
	}
	if !isMember(g, senderID) {
		return group.Message{}, fmt.Errorf("sender %s is not a member of game %s", senderID, groupID)
	}

	m, err := s.store.CreateMessage(ctx, group.Message{
		GroupID:  groupID,
		SenderID: senderID,
		Body:     body,
		ImageURL: imageURL,
	})
	if err != nil {
		return group.Message{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(m)
	}
	return m, nil
}

// ListMessages returns a group's chat history, oldest first. Only members
// may read.
func (s *Service) ListMessages(ctx context.Context, groupID, requesterID string) ([]group.Message, error) {
	g, err := s.store.GetGame(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(g, requesterID) {
		return nil, fmt.Errorf("requester %s is not a member of game %s", requesterID, groupID)
	}
	return s.store.ListMessages(ctx, groupID)
}

// IsMember reports whether the user belongs to the game. Used by the HTTP
// layer to gate websocket subscriptions.
func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	g, err := s.store.GetGame(ctx, groupID)
	if err != nil {
		return false, err
	}
	return isMember(g, userID), nil
}

// Hub exposes the live-delivery hub for the HTTP layer.
func (s *Service) Hub() *Hub {
	return s.hub
}

func isMember(g group.HomeGame, userID string) bool {
	for _, m := range g.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}
