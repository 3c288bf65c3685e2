package models

// Team is owned by the out-of-scope team management surface.
// The scheduling core only ever reads teams.
type Team struct {
	ID           int     `json:"id" db:"id"`
	TournamentID int     `json:"tournament_id" db:"tournament_id"`
	Name         string  `json:"name" db:"name"`
	ShortName    string  `json:"short_name" db:"short_name"`
	Seed         *int    `json:"seed,omitempty" db:"seed"`
	LogoKey      *string `json:"-" db:"logo_key"`
	LogoURL      *string `json:"logo_url,omitempty" db:"-"`
}
