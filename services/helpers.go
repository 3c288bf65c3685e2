package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacobneff/scorebugger/formats"
	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
)

// loadTournamentWithFormat resolves the tournament and its assigned
// format. Operations that need a format treat its absence as an unmet
// prerequisite rather than bad input: the fix is applying one first.
func loadTournamentWithFormat(ctx context.Context, repo repositories.TournamentRepository, id int) (*models.Tournament, formats.FormatDefinition, error) {
	tournament, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, formats.FormatDefinition{}, ErrTournamentNotFound
		}
		return nil, formats.FormatDefinition{}, err
	}
	if tournament.FormatID == nil {
		return nil, formats.FormatDefinition{}, &PrereqNotMetError{Missing: []string{"format not applied"}}
	}
	format, ok := formats.Get(*tournament.FormatID)
	if !ok {
		return nil, formats.FormatDefinition{}, ErrFormatNotFound
	}
	return tournament, format, nil
}

// activeCourts loads the tournament's active courts in their bound
// order. The slot indices in format court bindings index this slice.
func activeCourts(ctx context.Context, venues repositories.VenueRepository, tournament *models.Tournament) ([]models.Court, error) {
	courts, err := venues.ListCourtsByIDs(ctx, tournament.ActiveCourtIDs)
	if err != nil {
		return nil, err
	}
	out := make([]models.Court, 0, len(courts))
	for _, c := range courts {
		out = append(out, *c)
	}
	return out, nil
}

func courtForSlot(courts []models.Court, bindings map[string]int, name string) (models.Court, error) {
	slot, ok := bindings[name]
	if !ok {
		return models.Court{}, &InvalidInputError{Field: "court_bindings", Reason: fmt.Sprintf("no court binding for %q", name)}
	}
	if slot >= len(courts) {
		return models.Court{}, &PrereqNotMetError{Missing: []string{fmt.Sprintf("court slot %d for %s not in active court list", slot, name)}}
	}
	return courts[slot], nil
}

func derefMatches(in []*models.Match) []models.Match {
	out := make([]models.Match, 0, len(in))
	for _, m := range in {
		out = append(out, *m)
	}
	return out
}

// poolMatches narrows a stage's matches to one pool.
func poolMatches(matches []*models.Match, poolID int) []models.Match {
	var out []models.Match
	for _, m := range matches {
		if m.PoolID != nil && *m.PoolID == poolID {
			out = append(out, *m)
		}
	}
	return out
}

// poolRanks returns the pool's decided ranking, or ok=false while
// matches remain unplayed. A manual rank override decides the pool no
// matter the match state; otherwise every one of the pool's n(n-1)/2
// matches must be final.
func poolRanks(pool *models.Pool, stageMatches []*models.Match) ([]int, bool) {
	if pool.HasOverride() {
		return pool.ManualRankOverride, true
	}
	n := len(pool.TeamIDs)
	if n < 2 {
		return nil, false
	}
	mine := poolMatches(stageMatches, pool.ID)
	finals := 0
	for _, m := range mine {
		if m.IsFinal() {
			finals++
		}
	}
	if finals < n*(n-1)/2 {
		return nil, false
	}
	entries := scheduling.Aggregate(pool.TeamIDs, mine)
	return scheduling.RankedTeamIDs(entries), true
}

// stageRanks resolves every pool of a pool-play stage to its decided
// ranking. Undecided pools come back in missing, labeled stage:pool.
func stageRanks(pools []*models.Pool, stageMatches []*models.Match, stageKey string) (map[string][]int, []string) {
	ranks := make(map[string][]int, len(pools))
	var missing []string
	for _, p := range pools {
		ids, ok := poolRanks(p, stageMatches)
		if !ok {
			missing = append(missing, fmt.Sprintf("%s:%s standings undecided", stageKey, p.Name))
			continue
		}
		ranks[p.Name] = ids
	}
	return ranks, missing
}

// overallOrder flattens decided per-pool rankings into one cumulative
// order: all pool winners first, then all runners-up, and so on, ties
// within a rank band broken by the standings comparator over the
// stage's finalized matches.
func overallOrder(pools []*models.Pool, ranks map[string][]int, stageMatches []*models.Match) []int {
	maxDepth := 0
	for _, ids := range ranks {
		if len(ids) > maxDepth {
			maxDepth = len(ids)
		}
	}

	all := derefMatches(stageMatches)
	var order []int
	for depth := 0; depth < maxDepth; depth++ {
		var band []int
		for _, p := range pools {
			ids, ok := ranks[p.Name]
			if ok && depth < len(ids) {
				band = append(band, ids[depth])
			}
		}
		entries := scheduling.Aggregate(band, all)
		order = append(order, scheduling.RankedTeamIDs(entries)...)
	}
	return order
}

func playedPairs(matches []*models.Match) map[scheduling.PairKey]bool {
	pairs := make(map[scheduling.PairKey]bool)
	for _, m := range matches {
		if !m.IsFinal() || m.TeamBID == nil {
			continue
		}
		pairs[scheduling.NewPairKey(m.TeamAID, *m.TeamBID)] = true
	}
	return pairs
}
