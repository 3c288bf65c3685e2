package scheduling

import (
	"sort"

	"github.com/jacobneff/scorebugger/models"
)

// Aggregate computes ranked records for the given teams from the final
// matches in scope. Matches that are not final are ignored entirely, so
// unfinalizing a match and re-finalizing it with the same result
// reproduces identical standings. Teams with no finalized matches still
// appear with all-zero records.
//
// Winner and loser come from the recorded result ids, never re-derived
// from set scores.
func Aggregate(teamIDs []int, matches []models.Match) []models.StandingsEntry {
	byTeam := make(map[int]*models.StandingsEntry, len(teamIDs))
	for _, id := range teamIDs {
		byTeam[id] = &models.StandingsEntry{TeamID: id}
	}

	for _, m := range matches {
		if m.Status != models.MatchFinal || m.Result == nil || m.TeamBID == nil {
			continue
		}
		r := m.Result
		if a, ok := byTeam[m.TeamAID]; ok {
			a.Played++
			a.SetsWon += r.SetsWonA
			a.SetsLost += r.SetsWonB
			a.PointsFor += r.PointsA
			a.PointsAgainst += r.PointsB
		}
		if b, ok := byTeam[*m.TeamBID]; ok {
			b.Played++
			b.SetsWon += r.SetsWonB
			b.SetsLost += r.SetsWonA
			b.PointsFor += r.PointsB
			b.PointsAgainst += r.PointsA
		}
		if w, ok := byTeam[r.WinnerTeamID]; ok {
			w.Wins++
		}
		if l, ok := byTeam[r.LoserTeamID]; ok {
			l.Losses++
		}
	}

	entries := make([]models.StandingsEntry, 0, len(teamIDs))
	for _, id := range teamIDs {
		entries = append(entries, *byTeam[id])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return StandingsLess(entries[i], entries[j])
	})
	// Ranks are strictly increasing even across ties: a tied pair gets
	// ranks n and n+1 in comparator order, never a shared number.
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// StandingsLess is the explicit standings total order: matches won
// descending, then set differential descending, then point differential
// descending, then team id ascending as the final deterministic key.
func StandingsLess(a, b models.StandingsEntry) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.SetDiff() != b.SetDiff() {
		return a.SetDiff() > b.SetDiff()
	}
	if a.PointDiff() != b.PointDiff() {
		return a.PointDiff() > b.PointDiff()
	}
	return a.TeamID < b.TeamID
}

// RankedTeamIDs flattens a standings table into its rank order.
func RankedTeamIDs(entries []models.StandingsEntry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.TeamID
	}
	return ids
}
