package post

import "time"

// Post is a feed entry published by a user. It may reference a session or a
// saved hand to share results.
type Post struct {
	ID        string
	UserID    string
	Body      string
	ImageURL  string
	SessionID string
	HandID    string
	LikeCount int
	CreatedAt time.Time
}
