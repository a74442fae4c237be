package hand

import "time"

// SavedHand is a hand history a user chose to keep, as entered in the hand
// builder. Cards are stored in shorthand ("As", "Kd").
type SavedHand struct {
	ID         string
	UserID     string
	GameType   string
	Stakes     string
	HeroCards  []string
	BoardCards []string
	PotSize    float64
	// Result is the hero's net for the hand, negative on a loss.
	Result    float64
	Summary   string
	CreatedAt time.Time
}
