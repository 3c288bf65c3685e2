package models

import "time"

// Scoreboard is the live-scoring record a generated match links to.
// The core creates exactly one per match and never touches its score;
// in-match editing belongs to the external scoring surface.
type Scoreboard struct {
	ID        int       `json:"id" db:"id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
