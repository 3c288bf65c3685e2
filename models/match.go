package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchEnded     MatchStatus = "ended"
	MatchFinal     MatchStatus = "final"
)

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// MatchResult is written by the out-of-scope scoring surface when a match
// is finalized, and cleared again by Unfinalize. The core never derives
// winner/loser from set scores; it trusts the recorded ids.
type MatchResult struct {
	WinnerTeamID int        `json:"winner_team_id"`
	LoserTeamID  int        `json:"loser_team_id"`
	SetsWonA     int        `json:"sets_won_a"`
	SetsWonB     int        `json:"sets_won_b"`
	SetScores    []SetScore `json:"set_scores,omitempty"`
	PointsA      int        `json:"points_a"`
	PointsB      int        `json:"points_b"`
}

type Match struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	StageKey     string `json:"stage_key" db:"stage_key"`
	PoolID       *int   `json:"pool_id,omitempty" db:"pool_id"`

	RoundBlock int    `json:"round_block" db:"round_block"`
	Facility   string `json:"facility" db:"facility"`
	Court      string `json:"court" db:"court"`

	TeamAID int `json:"team_a_id" db:"team_a_id"`
	// TeamBID is nil only for playoff bye matches.
	TeamBID        *int  `json:"team_b_id,omitempty" db:"team_b_id"`
	RefereeTeamIDs []int `json:"referee_team_ids" db:"referee_team_ids"`

	ScoreboardID *int    `json:"scoreboard_id,omitempty" db:"scoreboard_id"`
	BracketKey   *string `json:"bracket_key,omitempty" db:"bracket_key"`

	Status    MatchStatus  `json:"status" db:"status"`
	Result    *MatchResult `json:"result,omitempty" db:"-"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Involves reports whether the team plays in this match (refereeing does
// not count).
func (m *Match) Involves(teamID int) bool {
	if m.TeamAID == teamID {
		return true
	}
	return m.TeamBID != nil && *m.TeamBID == teamID
}

func (m *Match) IsFinal() bool {
	return m.Status == MatchFinal
}

// IsBye reports a playoff bye: a single-participant match recorded so
// bracket views stay uniform. No result is ever required for it.
func (m *Match) IsBye() bool {
	return m.TeamBID == nil
}
