package models

import "time"

type TournamentStatus string

const (
	TournamentSetup     TournamentStatus = "setup"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	FormatID       *string          `json:"format_id,omitempty" db:"format_id"`
	Status         TournamentStatus `json:"status" db:"status"`
	ActiveCourtIDs []int            `json:"active_court_ids,omitempty" db:"active_court_ids"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services where a view needs it.
	Teams []Team `json:"teams,omitempty" db:"-"`
}
