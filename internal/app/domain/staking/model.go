package staking

import "time"

// Status tracks the lifecycle of a staking arrangement.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
	StatusDeclined Status = "declined"
)

// Stake is an arrangement where a backer buys a percentage of a player's
// action for a session, optionally at a markup.
type Stake struct {
	ID        string
	PlayerID  string
	BackerID  string
	SessionID string
	// Percentage of action bought, 0 < p <= 100.
	Percentage float64
	// Markup multiplies the backer's share of the buy-in, 1.0 means none.
	Markup float64
	Status Status
	// AmountOwed is the settlement result: positive means the player owes
	// the backer.
	AmountOwed float64
	SettledAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
