package models

// RematchWarning flags two pool members that already played each other
// in a prior finalized stage. Team ids are stored normalized, A < B.
type RematchWarning struct {
	TeamAID int `json:"team_a_id" db:"team_a_id"`
	TeamBID int `json:"team_b_id" db:"team_b_id"`
}

type Pool struct {
	ID           int     `json:"id" db:"id"`
	TournamentID int     `json:"tournament_id" db:"tournament_id"`
	StageKey     string  `json:"stage_key" db:"stage_key"`
	Name         string  `json:"name" db:"name"`
	RequiredSize int     `json:"required_size" db:"required_size"`
	Facility     *string `json:"facility,omitempty" db:"facility"`
	Court        *string `json:"court,omitempty" db:"court"`

	// TeamIDs is the ordered membership. Once non-empty it never exceeds
	// RequiredSize; matches may only be generated when the two are equal.
	TeamIDs []int `json:"team_ids" db:"-"`

	// ManualRankOverride, when set, is an operator-supplied ranking of the
	// pool's teams that counts as "decided" even if matches are unplayed.
	ManualRankOverride []int `json:"manual_rank_override,omitempty" db:"manual_rank_override"`

	RematchWarnings []RematchWarning `json:"rematch_warnings" db:"-"`
}

// Decided reports whether this pool's ranking can feed a later stage:
// either every pool match is final (checked by the caller against the
// match set) or an explicit override exists.
func (p *Pool) HasOverride() bool {
	return len(p.ManualRankOverride) > 0
}
