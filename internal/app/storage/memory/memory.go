package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/domain/staking"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu                 sync.RWMutex
	nextID             int64
	profiles           map[string]profile.Profile
	profilesByUsername map[string]string
	follows            map[string]profile.Follow
	sessions           map[string]session.Session
	posts              map[string]post.Post
	games              map[string]group.HomeGame
	messages           map[string][]group.Message
	hands              map[string]hand.SavedHand
	stakes             map[string]staking.Stake
	challenges         map[string]challenge.Challenge
}

var _ storage.ProfileStore = (*Store)(nil)
var _ storage.FollowStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.GroupStore = (*Store)(nil)
var _ storage.HandStore = (*Store)(nil)
var _ storage.StakeStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:             1,
		profiles:           make(map[string]profile.Profile),
		profilesByUsername: make(map[string]string),
		follows:            make(map[string]profile.Follow),
		sessions:           make(map[string]session.Session),
		posts:              make(map[string]post.Post),
		games:              make(map[string]group.HomeGame),
		messages:           make(map[string][]group.Message),
		hands:              make(map[string]hand.SavedHand),
		stakes:             make(map[string]staking.Stake),
		challenges:         make(map[string]challenge.Challenge),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func followKey(followerID, followeeID string) string {
	return followerID + "|" + followeeID
}

// ProfileStore implementation -------------------------------------------------

func (s *Store) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.profiles[p.ID]; exists {
		return profile.Profile{}, fmt.Errorf("profile %s already exists", p.ID)
	}

	usernameKey := strings.ToLower(strings.TrimSpace(p.Username))
	if usernameKey == "" {
		return profile.Profile{}, fmt.Errorf("username is required")
	}
	if existing, exists := s.profilesByUsername[usernameKey]; exists {
		return profile.Profile{}, fmt.Errorf("username %s already taken by profile %s", p.Username, existing)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.profiles[p.ID] = p
	s.profilesByUsername[usernameKey] = p.ID
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.profiles[p.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	oldKey := strings.ToLower(strings.TrimSpace(original.Username))
	newKey := strings.ToLower(strings.TrimSpace(p.Username))
	if newKey == "" {
		return profile.Profile{}, fmt.Errorf("username is required")
	}
	if existing, exists := s.profilesByUsername[newKey]; exists && existing != p.ID {
		return profile.Profile{}, fmt.Errorf("username %s already taken by profile %s", p.Username, existing)
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	s.profiles[p.ID] = p
	if oldKey != newKey {
		delete(s.profilesByUsername, oldKey)
	}
	s.profilesByUsername[newKey] = p.ID
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfileByUsername(_ context.Context, username string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.profilesByUsername[strings.ToLower(strings.TrimSpace(username))]; ok {
		return s.profiles[id], nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.ErrNotFound
	}
	delete(s.profiles, id)
	delete(s.profilesByUsername, strings.ToLower(strings.TrimSpace(p.Username)))
	return nil
}

// FollowStore implementation --------------------------------------------------

func (s *Store) CreateFollow(_ context.Context, f profile.Follow) (profile.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey(f.FollowerID, f.FolloweeID)
	if _, exists := s.follows[key]; exists {
		return profile.Follow{}, fmt.Errorf("%s already follows %s", f.FollowerID, f.FolloweeID)
	}

	if f.ID == "" {
		f.ID = s.nextIDLocked()
	}
	f.CreatedAt = time.Now().UTC()
	s.follows[key] = f
	return f, nil
}

func (s *Store) UpdateFollow(_ context.Context, f profile.Follow) (profile.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey(f.FollowerID, f.FolloweeID)
	existing, ok := s.follows[key]
	if !ok {
		return profile.Follow{}, fmt.Errorf("follow %s -> %s not found", f.FollowerID, f.FolloweeID)
	}
	f.ID = existing.ID
	f.CreatedAt = existing.CreatedAt
	s.follows[key] = f
	return f, nil
}

func (s *Store) DeleteFollow(_ context.Context, followerID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey(followerID, followeeID)
	if _, ok := s.follows[key]; !ok {
		return fmt.Errorf("follow %s -> %s not found", followerID, followeeID)
	}
	delete(s.follows, key)
	return nil
}

func (s *Store) GetFollow(_ context.Context, followerID, followeeID string) (profile.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.follows[followKey(followerID, followeeID)]
	if !ok {
		return profile.Follow{}, fmt.Errorf("follow %s -> %s not found", followerID, followeeID)
	}
	return f, nil
}

func (s *Store) ListFollowers(_ context.Context, userID string) ([]profile.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]profile.Follow, 0)
	for _, f := range s.follows {
		if f.FolloweeID == userID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *Store) ListFollowing(_ context.Context, userID string) ([]profile.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]profile.Follow, 0)
	for _, f := range s.follows {
		if f.FollowerID == userID {
			result = append(result, f)
		}
	}
	return result, nil
}

// SessionStore implementation -------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = s.nextIDLocked()
	} else if _, exists := s.sessions[sess.ID]; exists {
		return session.Session{}, fmt.Errorf("session %s already exists", sess.ID)
	}

	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) UpdateSession(_ context.Context, sess session.Session) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.sessions[sess.ID]
	if !ok {
		return session.Session{}, fmt.Errorf("session %s not found", sess.ID)
	}

	sess.CreatedAt = original.CreatedAt
	sess.UpdatedAt = time.Now().UTC()

	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) GetSession(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

func (s *Store) ListSessions(_ context.Context, userID string) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]session.Session, 0)
	for _, sess := range s.sessions {
		if userID == "" || sess.UserID == userID {
			result = append(result, sess)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s not found", id)
	}
	delete(s.sessions, id)
	return nil
}

// PostStore implementation ----------------------------------------------------

func (s *Store) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.posts[p.ID]; exists {
		return post.Post{}, fmt.Errorf("post %s already exists", p.ID)
	}

	p.CreatedAt = time.Now().UTC()
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) GetPost(_ context.Context, id string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return post.Post{}, fmt.Errorf("post %s not found", id)
	}
	return p, nil
}

func (s *Store) ListPosts(_ context.Context, userID string) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]post.Post, 0)
	for _, p := range s.posts {
		if userID == "" || p.UserID == userID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %s not found", id)
	}
	delete(s.posts, id)
	return nil
}

// GroupStore implementation ---------------------------------------------------

func (s *Store) CreateGame(_ context.Context, g group.HomeGame) (group.HomeGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = s.nextIDLocked()
	} else if _, exists := s.games[g.ID]; exists {
		return group.HomeGame{}, fmt.Errorf("home game %s already exists", g.ID)
	}

	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	g.MemberIDs = append([]string(nil), g.MemberIDs...)

	s.games[g.ID] = g
	return cloneGame(g), nil
}

func (s *Store) UpdateGame(_ context.Context, g group.HomeGame) (group.HomeGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.games[g.ID]
	if !ok {
		return group.HomeGame{}, fmt.Errorf("home game %s not found", g.ID)
	}

	g.CreatedAt = original.CreatedAt
	g.UpdatedAt = time.Now().UTC()
	g.MemberIDs = append([]string(nil), g.MemberIDs...)

	s.games[g.ID] = g
	return cloneGame(g), nil
}

func (s *Store) GetGame(_ context.Context, id string) (group.HomeGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return group.HomeGame{}, fmt.Errorf("home game %s not found", id)
	}
	return cloneGame(g), nil
}

func (s *Store) ListGames(_ context.Context, memberID string) ([]group.HomeGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]group.HomeGame, 0)
	for _, g := range s.games {
		if memberID == "" || g.OwnerID == memberID || containsString(g.MemberIDs, memberID) {
			result = append(result, cloneGame(g))
		}
	}
	return result, nil
}

func (s *Store) DeleteGame(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return fmt.Errorf("home game %s not found", id)
	}
	delete(s.games, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) CreateMessage(_ context.Context, m group.Message) (group.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[m.GroupID]; !ok {
		return group.Message{}, fmt.Errorf("home game %s not found", m.GroupID)
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	m.CreatedAt = time.Now().UTC()
	s.messages[m.GroupID] = append(s.messages[m.GroupID], m)
	return m, nil
}

func (s *Store) ListMessages(_ context.Context, groupID string) ([]group.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]group.Message(nil), s.messages[groupID]...), nil
}

// HandStore implementation ----------------------------------------------------

func (s *Store) CreateHand(_ context.Context, h hand.SavedHand) (hand.SavedHand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = s.nextIDLocked()
	} else if _, exists := s.hands[h.ID]; exists {
		return hand.SavedHand{}, fmt.Errorf("hand %s already exists", h.ID)
	}

	h.CreatedAt = time.Now().UTC()
	h.HeroCards = append([]string(nil), h.HeroCards...)
	h.BoardCards = append([]string(nil), h.BoardCards...)

	s.hands[h.ID] = h
	return cloneHand(h), nil
}

func (s *Store) GetHand(_ context.Context, id string) (hand.SavedHand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hands[id]
	if !ok {
		return hand.SavedHand{}, fmt.Errorf("hand %s not found", id)
	}
	return cloneHand(h), nil
}

func (s *Store) ListHands(_ context.Context, userID string) ([]hand.SavedHand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]hand.SavedHand, 0)
	for _, h := range s.hands {
		if userID == "" || h.UserID == userID {
			result = append(result, cloneHand(h))
		}
	}
	return result, nil
}

func (s *Store) DeleteHand(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hands[id]; !ok {
		return fmt.Errorf("hand %s not found", id)
	}
	delete(s.hands, id)
	return nil
}

// StakeStore implementation ---------------------------------------------------

func (s *Store) CreateStake(_ context.Context, st staking.Stake) (staking.Stake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = s.nextIDLocked()
	} else if _, exists := s.stakes[st.ID]; exists {
		return staking.Stake{}, fmt.Errorf("stake %s already exists", st.ID)
	}

	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	s.stakes[st.ID] = st
	return st, nil
}

func (s *Store) UpdateStake(_ context.Context, st staking.Stake) (staking.Stake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.stakes[st.ID]
	if !ok {
		return staking.Stake{}, fmt.Errorf("stake %s not found", st.ID)
	}

	st.CreatedAt = original.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	s.stakes[st.ID] = st
	return st, nil
}

func (s *Store) GetStake(_ context.Context, id string) (staking.Stake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stakes[id]
	if !ok {
		return staking.Stake{}, fmt.Errorf("stake %s not found", id)
	}
	return st, nil
}

func (s *Store) ListStakesByPlayer(_ context.Context, playerID string) ([]staking.Stake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]staking.Stake, 0)
	for _, st := range s.stakes {
		if st.PlayerID == playerID {
			result = append(result, st)
		}
	}
	return result, nil
}

func (s *Store) ListStakesByBacker(_ context.Context, backerID string) ([]staking.Stake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]staking.Stake, 0)
	for _, st := range s.stakes {
		if st.BackerID == backerID {
			result = append(result, st)
		}
	}
	return result, nil
}

// ChallengeStore implementation -----------------------------------------------

func (s *Store) CreateChallenge(_ context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.challenges[c.ID]; exists {
		return challenge.Challenge{}, fmt.Errorf("challenge %s already exists", c.ID)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.challenges[c.ID] = c
	return c, nil
}

func (s *Store) UpdateChallenge(_ context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.challenges[c.ID]
	if !ok {
		return challenge.Challenge{}, fmt.Errorf("challenge %s not found", c.ID)
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	s.challenges[c.ID] = c
	return c, nil
}

func (s *Store) GetChallenge(_ context.Context, id string) (challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.challenges[id]
	if !ok {
		return challenge.Challenge{}, fmt.Errorf("challenge %s not found", id)
	}
	return c, nil
}

func (s *Store) ListChallenges(_ context.Context, userID string) ([]challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]challenge.Challenge, 0)
	for _, c := range s.challenges {
		if userID == "" || c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) ListActiveChallenges(_ context.Context) ([]challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]challenge.Challenge, 0)
	for _, c := range s.challenges {
		if c.Status == challenge.StatusActive {
			result = append(result, c)
		}
	}
	return result, nil
}

// Helpers --------------------------------------------------------------------

func cloneGame(g group.HomeGame) group.HomeGame {
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	return g
}

func cloneHand(h hand.SavedHand) hand.SavedHand {
	h.HeroCards = append([]string(nil), h.HeroCards...)
	h.BoardCards = append([]string(nil), h.BoardCards...)
	return h
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
