package challenge

import "time"

// Kind selects the metric a challenge tracks.
type Kind string

const (
	KindProfit   Kind = "profit"
	KindHours    Kind = "hours"
	KindSessions Kind = "sessions"
)

// Status tracks challenge lifecycle.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Challenge is a personal target a user works toward over a deadline, e.g.
// "win $1000 this month" or "play 50 hours".
type Challenge struct {
	ID       string
	UserID   string
	Kind     Kind
	Title    string
	Target   float64
	Progress float64
	Status   Status
	Deadline time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
