package group

import "time"

// HomeGame is a private game group owned by a user.
type HomeGame struct {
	ID        string
	OwnerID   string
	Name      string
	Location  string
	MemberIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a chat message inside a home game group.
type Message struct {
	ID        string
	GroupID   string
	SenderID  string
	Body      string
	ImageURL  string
	CreatedAt time.Time
}
