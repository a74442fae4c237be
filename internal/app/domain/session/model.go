package session

import "time"

// GameType identifies the variant played during a session.
type GameType string

const (
	GameCash       GameType = "cash"
	GameTournament GameType = "tournament"
)

// Session is a single recorded poker session.
type Session struct {
	ID       string
	UserID   string
	GameType GameType
	// Stakes is the table stakes label, e.g. "1/2" or "2/5".
	Stakes   string
	Location string
	BuyIn    float64
	Cashout  float64
	// Profit is Cashout - BuyIn, derived on write.
	Profit    float64
	StartedAt time.Time
	EndedAt   time.Time
	// Live marks an in-progress session that has not been cashed out yet.
	Live      bool
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the session length, zero for live sessions.
func (s Session) Duration() time.Duration {
	if s.Live || s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Hours returns the session length in hours.
func (s Session) Hours() float64 {
	return s.Duration().Hours()
}
