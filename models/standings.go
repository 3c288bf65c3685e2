package models

// StandingsEntry is computed on demand from the finalized matches of the
// requested scope. It is never persisted.
type StandingsEntry struct {
	TeamID        int   `json:"team_id"`
	Team          *Team `json:"team,omitempty"`
	Played        int   `json:"played"`
	Wins          int   `json:"wins"`
	Losses        int   `json:"losses"`
	SetsWon       int   `json:"sets_won"`
	SetsLost      int   `json:"sets_lost"`
	PointsFor     int   `json:"points_for"`
	PointsAgainst int   `json:"points_against"`

	// Rank is 1-based and strictly increasing with no gaps; tied teams
	// receive their position in the total order, not a shared number.
	Rank int `json:"rank"`
}

func (e StandingsEntry) SetDiff() int {
	return e.SetsWon - e.SetsLost
}

func (e StandingsEntry) PointDiff() int {
	return e.PointsFor - e.PointsAgainst
}

// PoolStandings groups a ranked table under the pool it was computed for.
type PoolStandings struct {
	PoolID   int              `json:"pool_id"`
	PoolName string           `json:"pool_name"`
	StageKey string           `json:"stage_key"`
	Entries  []StandingsEntry `json:"entries"`
}
