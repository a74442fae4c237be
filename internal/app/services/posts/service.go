package posts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

const maxBodyLen = 2000

// Service publishes feed posts and assembles follower feeds.
type Service struct {
	store   storage.PostStore
	follows storage.FollowStore
	log     *logger.Logger
}

// New constructs a post service.
func New(store storage.PostStore, follows storage.FollowStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("posts")
	}
	return &Service{store: store, follows: follows, log: log}
}

// Create publishes a post. A post needs a body or an image; it may reference
// a session or a saved hand to share results.
func (s *Service) Create(ctx context.Context, p post.Post) (post.Post, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	p.Body = strings.TrimSpace(p.Body)

	if p.UserID == "" {
		return post.Post{}, fmt.Errorf("user id is required")
	}
	if p.Body == "" && p.ImageURL == "" {
		return post.Post{}, fmt.Errorf("post needs a body or an image")
	}
	if len(p.Body) > maxBodyLen {
		return post.Post{}, fmt.Errorf("post body exceeds %d characters", maxBodyLen)
	}
	if p.SessionID != "" && p.HandID != "" {
		return post.Post{}, fmt.Errorf("post may reference a session or a hand, not both")
	}
	p.LikeCount = 0

	p, err := s.store.CreatePost(ctx, p)
	if err != nil {
		return post.Post{}, err
	}

	s.log.WithField("user_id", p.UserID).
		WithField("post_id", p.ID).
		Info("post published")
	return p, nil
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, id string) (post.Post, error) {
	return s.store.GetPost(ctx, id)
}

// ListByUser returns a user's posts, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]post.Post, error) {
	return s.store.ListPosts(ctx, userID)
}

// Delete removes a post after an ownership check.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != requesterID {
		return fmt.Errorf("post %s is not owned by %s", id, requesterID)
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.log.WithField("post_id", id).Info("post deleted")
	return nil
}

// Feed returns posts from everyone the user follows plus their own, newest
// first, capped at limit when positive.
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]post.Post, error) {
	following, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(following)+1)
	authors = append(authors, userID)
	for _, f := range following {
		authors = append(authors, f.FolloweeID)
	}

	var feed []post.Post
	for _, author := range authors {
		posts, err := s.store.ListPosts(ctx, author)
		if err != nil {
			return nil, err
		}
		feed = append(feed, posts...)
	}

	sort.Slice(feed, func(i, j int) bool { return feed[i].CreatedAt.After(feed[j].CreatedAt) })
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
