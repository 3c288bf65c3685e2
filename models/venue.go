package models

// Court belongs to the venue layout, which this core reads but never
// writes. Position orders courts for the format court-binding tables.
type Court struct {
	ID       int    `json:"id" db:"id"`
	Facility string `json:"facility" db:"facility"`
	Name     string `json:"name" db:"name"`
	Enabled  bool   `json:"enabled" db:"enabled"`
	Position int    `json:"position" db:"position"`
}
